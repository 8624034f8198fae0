// Package roster turns supplier carton rows into costing products.
//
// A supplier row describes one carton line: the total units, the total
// volume and the gross weight of the line. Each row becomes a product packed
// one unit per box, so the per-box figures are the per-unit figures.
package roster

import (
	"fmt"
	"strings"

	"github.com/Simplici0/costeo/internal/costing"
)

// RMBPerUSD converts supplier RMB prices when no USD price is given.
const RMBPerUSD = 7.10

// Row is one supplier carton line.
type Row struct {
	Name          string   `json:"name"`
	SKU           string   `json:"sku,omitempty"`
	PriceUSD      float64  `json:"price_usd,omitempty"`
	PriceRMB      float64  `json:"price_rmb,omitempty"`
	Units         int      `json:"units"`
	CBM           float64  `json:"cbm"`
	GrossWeightKG float64  `json:"gross_weight_kg"`
	DutyPercent   *float64 `json:"duty_percent,omitempty"`
}

// RowError reports a rejected row. Row is 1-based.
type RowError struct {
	Row     int    `json:"row"`
	Name    string `json:"name,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("fila %d: %s: %s", e.Row, e.Field, e.Message)
}

// Result is the outcome of Build.
type Result struct {
	Products []costing.Product `json:"products"`
	Skipped  int               `json:"skipped"`
	Errors   []RowError        `json:"errors,omitempty"`
}

// Build maps rows to products. Rows whose name is already in existing, or
// repeats an earlier row, are skipped and counted. Rows that cannot produce
// a valid product are reported in Errors.
func Build(rows []Row, existing map[string]bool) Result {
	seen := make(map[string]bool, len(existing)+len(rows))
	for name := range existing {
		seen[name] = true
	}

	res := Result{Products: make([]costing.Product, 0, len(rows))}
	for i, row := range rows {
		rowNo := i + 1
		name := strings.TrimSpace(row.Name)
		if name == "" {
			res.Errors = append(res.Errors, RowError{Row: rowNo, Field: "name", Message: "el nombre es obligatorio"})
			continue
		}
		if seen[name] {
			res.Skipped++
			continue
		}

		p, rerr := row.product(rowNo, len(res.Products)+1)
		if rerr != nil {
			rerr.Name = name
			res.Errors = append(res.Errors, *rerr)
			continue
		}
		seen[name] = true
		res.Products = append(res.Products, p)
	}
	return res
}

// UnitPriceUSD returns the USD price, falling back to the RMB price.
func (r Row) UnitPriceUSD() float64 {
	if r.PriceUSD <= 0 && r.PriceRMB > 0 {
		return r.PriceRMB / RMBPerUSD
	}
	return r.PriceUSD
}

// product maps the row to a product. seq numbers generated SKUs among the
// accepted products.
func (r Row) product(rowNo, seq int) (costing.Product, *RowError) {
	invalid := func(field, msg string) *RowError {
		return &RowError{Row: rowNo, Field: field, Message: msg}
	}
	if r.Units <= 0 {
		return costing.Product{}, invalid("units", "la cantidad por cartón debe ser mayor a 0")
	}
	if r.CBM <= 0 {
		return costing.Product{}, invalid("cbm", "el CBM debe ser mayor a 0")
	}
	if r.GrossWeightKG < 0 {
		return costing.Product{}, invalid("gross_weight_kg", "el peso no puede ser negativo")
	}
	price := r.UnitPriceUSD()
	if price <= 0 {
		return costing.Product{}, invalid("price_usd", "falta el precio en USD o RMB")
	}

	sku := strings.TrimSpace(r.SKU)
	if sku == "" {
		sku = fmt.Sprintf("SKU%03d", seq)
	}
	units := float64(r.Units)

	p := costing.Product{
		Name:            strings.TrimSpace(r.Name),
		SKU:             sku,
		FOBUnitPriceUSD: price,
		Quantity:        r.Units,
		Packing: costing.Packing{
			CBMPerBox:      r.CBM / units,
			UnitsPerBox:    1,
			WeightPerBoxKG: r.GrossWeightKG / units,
		},
		DutyPercent: r.DutyPercent,
	}
	if err := p.Validate(); err != nil {
		return costing.Product{}, invalid("product", err.Error())
	}
	return p, nil
}
