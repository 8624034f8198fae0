package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/costeo/internal/costing"
)

const productColumns = `id, name, sku, fob_unit_price_usd, quantity, length_cm, width_cm, height_cm,
	cbm_per_box, units_per_box, weight_per_box_kg, duty_percent, antidumping_usd`

// AddProduct validates and appends a product to a container. Names are unique
// per container.
func (s *Store) AddProduct(ctx context.Context, containerID string, p costing.Product) (costing.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return costing.Product{}, fmt.Errorf("begin product transaction: %w", err)
	}
	out, err := s.insertProduct(ctx, tx, containerID, p)
	if err != nil {
		_ = tx.Rollback()
		return costing.Product{}, err
	}
	if err := tx.Commit(); err != nil {
		return costing.Product{}, fmt.Errorf("commit product transaction: %w", err)
	}
	return out, nil
}

// AddProducts appends a batch in one transaction. Products whose name already
// exists in the container are skipped and counted; any invalid product
// aborts the whole batch.
func (s *Store) AddProducts(ctx context.Context, containerID string, products []costing.Product) (added []costing.Product, skipped int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin bulk transaction: %w", err)
	}
	for _, p := range products {
		out, err := s.insertProduct(ctx, tx, containerID, p)
		if errors.Is(err, ErrDuplicateProduct) {
			skipped++
			continue
		}
		if err != nil {
			_ = tx.Rollback()
			return nil, 0, err
		}
		added = append(added, out)
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit bulk transaction: %w", err)
	}
	return added, skipped, nil
}

func (s *Store) insertProduct(ctx context.Context, tx *sql.Tx, containerID string, p costing.Product) (costing.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return costing.Product{}, &costing.ValidationError{Field: "name", Message: "el nombre es obligatorio", Err: ErrInvalidInput}
	}
	if err := p.Validate(); err != nil {
		return costing.Product{}, err
	}
	if !validID(containerID) {
		return costing.Product{}, ErrNotFound
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM containers WHERE id = ?)`, containerID).Scan(&exists); err != nil {
		return costing.Product{}, fmt.Errorf("check container existence: %w", err)
	}
	if !exists {
		return costing.Product{}, ErrNotFound
	}
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE container_id = ? AND name = ?)`, containerID, p.Name).Scan(&exists); err != nil {
		return costing.Product{}, fmt.Errorf("check product name: %w", err)
	}
	if exists {
		return costing.Product{}, ErrDuplicateProduct
	}

	var position int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) + 1 FROM products WHERE container_id = ?`, containerID).Scan(&position); err != nil {
		return costing.Product{}, fmt.Errorf("next product position: %w", err)
	}

	p.ID = s.newID()
	l, w, h := dimensionArgs(p.Packing.Dimensions)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO products (
			id, container_id, position, name, sku, fob_unit_price_usd, quantity,
			length_cm, width_cm, height_cm, cbm_per_box, units_per_box, weight_per_box_kg,
			duty_percent, antidumping_usd, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, containerID, position, p.Name, p.SKU, p.FOBUnitPriceUSD, p.Quantity,
		l, w, h, p.Packing.CBMPerBox, p.Packing.UnitsPerBox, p.Packing.WeightPerBoxKG,
		nullFloat(p.DutyPercent), p.AntidumpingUSD, s.timestamp()); err != nil {
		return costing.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// UpdateProduct replaces every field of an existing product, keeping its
// position in the container.
func (s *Store) UpdateProduct(ctx context.Context, containerID string, p costing.Product) (costing.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return costing.Product{}, &costing.ValidationError{Field: "name", Message: "el nombre es obligatorio", Err: ErrInvalidInput}
	}
	if err := p.Validate(); err != nil {
		return costing.Product{}, err
	}
	if !validID(containerID) || !validID(p.ID) {
		return costing.Product{}, ErrNotFound
	}

	var clash bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM products WHERE container_id = ? AND name = ? AND id <> ?)
	`, containerID, p.Name, p.ID).Scan(&clash); err != nil {
		return costing.Product{}, fmt.Errorf("check product name: %w", err)
	}
	if clash {
		return costing.Product{}, ErrDuplicateProduct
	}

	l, w, h := dimensionArgs(p.Packing.Dimensions)
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, sku = ?, fob_unit_price_usd = ?, quantity = ?,
		    length_cm = ?, width_cm = ?, height_cm = ?, cbm_per_box = ?, units_per_box = ?, weight_per_box_kg = ?,
		    duty_percent = ?, antidumping_usd = ?
		WHERE id = ? AND container_id = ?
	`, p.Name, p.SKU, p.FOBUnitPriceUSD, p.Quantity,
		l, w, h, p.Packing.CBMPerBox, p.Packing.UnitsPerBox, p.Packing.WeightPerBoxKG,
		nullFloat(p.DutyPercent), p.AntidumpingUSD, p.ID, containerID)
	if err != nil {
		return costing.Product{}, fmt.Errorf("update product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return costing.Product{}, fmt.Errorf("update product rows affected: %w", err)
	}
	if n == 0 {
		return costing.Product{}, ErrNotFound
	}
	return p, nil
}

// DeleteProduct removes one product from a container.
func (s *Store) DeleteProduct(ctx context.Context, containerID, productID string) error {
	if !validID(containerID) || !validID(productID) {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ? AND container_id = ?`, productID, containerID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProducts returns a container's products in insertion order.
func (s *Store) ListProducts(ctx context.Context, containerID string) ([]costing.Product, error) {
	if _, err := s.GetContainer(ctx, containerID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products WHERE container_id = ? ORDER BY position ASC`, containerID)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]costing.Product, 0)
	for rows.Next() {
		var (
			p       costing.Product
			l, w, h sql.NullFloat64
			duty    sql.NullFloat64
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.FOBUnitPriceUSD, &p.Quantity, &l, &w, &h,
			&p.Packing.CBMPerBox, &p.Packing.UnitsPerBox, &p.Packing.WeightPerBoxKG, &duty, &p.AntidumpingUSD); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if l.Valid && w.Valid && h.Valid {
			p.Packing.Dimensions = &costing.Dimensions{LengthCM: l.Float64, WidthCM: w.Float64, HeightCM: h.Float64}
		}
		if duty.Valid {
			v := duty.Float64
			p.DutyPercent = &v
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// SetAntidumping sets the antidumping amount of the container's products
// named in amounts and returns how many products were updated. Names with no
// matching product are ignored.
func (s *Store) SetAntidumping(ctx context.Context, containerID string, amounts map[string]float64) (int, error) {
	if _, err := s.GetContainer(ctx, containerID); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin antidumping transaction: %w", err)
	}
	updated := 0
	for name, usd := range amounts {
		if usd < 0 {
			_ = tx.Rollback()
			return 0, &costing.ValidationError{Product: name, Field: "antidumping_usd", Message: "el antidumping no puede ser negativo", Err: ErrInvalidInput}
		}
		res, err := tx.ExecContext(ctx, `UPDATE products SET antidumping_usd = ? WHERE container_id = ? AND name = ?`, usd, containerID, strings.TrimSpace(name))
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("update antidumping: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("update antidumping rows affected: %w", err)
		}
		updated += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit antidumping transaction: %w", err)
	}
	return updated, nil
}

// ProductNames returns the set of product names already in a container.
func (s *Store) ProductNames(ctx context.Context, containerID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM products WHERE container_id = ?`, containerID)
	if err != nil {
		return nil, fmt.Errorf("query product names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan product name: %w", err)
		}
		names[name] = true
	}
	return names, rows.Err()
}

func dimensionArgs(d *costing.Dimensions) (any, any, any) {
	if d == nil {
		return nil, nil, nil
	}
	return d.LengthCM, d.WidthCM, d.HeightCM
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
