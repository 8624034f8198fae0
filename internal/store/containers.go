package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Container is a named batch of products shipped together.
type Container struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ProductCount int       `json:"product_count"`
}

// CreateContainer inserts an empty container.
func (s *Store) CreateContainer(ctx context.Context, name, notes string) (Container, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Container{}, fmt.Errorf("el nombre del contenedor es obligatorio: %w", ErrInvalidInput)
	}

	c := Container{ID: s.newID(), Name: name, Notes: strings.TrimSpace(notes)}
	created := s.timestamp()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO containers (id, name, notes, created_at)
		VALUES (?, ?, ?, ?)
	`, c.ID, c.Name, c.Notes, created); err != nil {
		return Container{}, fmt.Errorf("insert container: %w", err)
	}
	c.CreatedAt = parseTime(created)
	return c, nil
}

// ListContainers returns every container, newest first.
func (s *Store) ListContainers(ctx context.Context) ([]Container, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.notes, c.created_at, COUNT(p.id)
		FROM containers c
		LEFT JOIN products p ON p.container_id = c.id
		GROUP BY c.id
		ORDER BY c.created_at DESC, c.name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query containers: %w", err)
	}
	defer rows.Close()

	containers := make([]Container, 0)
	for rows.Next() {
		var c Container
		var created string
		if err := rows.Scan(&c.ID, &c.Name, &c.Notes, &created, &c.ProductCount); err != nil {
			return nil, fmt.Errorf("scan container: %w", err)
		}
		c.CreatedAt = parseTime(created)
		containers = append(containers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate containers: %w", err)
	}
	return containers, nil
}

// GetContainer returns one container or ErrNotFound.
func (s *Store) GetContainer(ctx context.Context, id string) (Container, error) {
	if !validID(id) {
		return Container{}, ErrNotFound
	}

	var c Container
	var created string
	err := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.notes, c.created_at, (SELECT COUNT(*) FROM products p WHERE p.container_id = c.id)
		FROM containers c
		WHERE c.id = ?
	`, id).Scan(&c.ID, &c.Name, &c.Notes, &created, &c.ProductCount)
	if err != nil {
		return Container{}, notFound(err)
	}
	c.CreatedAt = parseTime(created)
	return c, nil
}

// DeleteContainer removes a container with its products and snapshots.
func (s *Store) DeleteContainer(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM containers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete container: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete container rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
