// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/quickly-vote/models"
)

var ErrNotFound = errors.New("not found")

// Reader is the read-only view of categories and nominees. Rows are owned
// by an external CRUD service.
type Reader interface {
	Category(ctx context.Context, id string) (models.Category, error)
	Nominee(ctx context.Context, id string) (models.Nominee, error)
	Nominees(ctx context.Context, categoryID string) ([]models.Nominee, error)
	Categories(ctx context.Context) ([]models.CategoryWithNominees, error)
}

type SQLReader struct {
	db *sql.DB
}

var _ Reader = (*SQLReader)(nil)

func NewSQLReader(db *sql.DB) *SQLReader {
	return &SQLReader{db: db}
}

func (s *SQLReader) Category(ctx context.Context, id string) (models.Category, error) {
	var c models.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM category WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("query category: %w", err)
	}
	return c, nil
}

func (s *SQLReader) Nominee(ctx context.Context, id string) (models.Nominee, error) {
	var n models.Nominee
	err := s.db.QueryRowContext(ctx, `
		SELECT id, category_id, name, created_at FROM nominee WHERE id = $1
	`, id).Scan(&n.ID, &n.CategoryID, &n.Name, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Nominee{}, fmt.Errorf("nominee %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Nominee{}, fmt.Errorf("query nominee: %w", err)
	}
	return n, nil
}

// Nominees lists a category's nominees in creation order.
func (s *SQLReader) Nominees(ctx context.Context, categoryID string) ([]models.Nominee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, name, created_at
		FROM nominee
		WHERE category_id = $1
		ORDER BY created_at, id
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("query nominees: %w", err)
	}
	defer rows.Close()

	nominees := []models.Nominee{}
	for rows.Next() {
		var n models.Nominee
		if err := rows.Scan(&n.ID, &n.CategoryID, &n.Name, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan nominee: %w", err)
		}
		nominees = append(nominees, n)
	}
	return nominees, rows.Err()
}

// Categories lists every category with its nominees.
func (s *SQLReader) Categories(ctx context.Context) ([]models.CategoryWithNominees, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at FROM category ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}

	result := []models.CategoryWithNominees{}
	index := make(map[string]int)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan category: %w", err)
		}
		index[c.ID] = len(result)
		result = append(result, models.CategoryWithNominees{Category: c, Nominees: []models.Nominee{}})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	// Second query only after the first result set is closed; SQLite runs
	// with a single pooled connection.
	nrows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, name, created_at FROM nominee ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query nominees: %w", err)
	}
	defer nrows.Close()

	for nrows.Next() {
		var n models.Nominee
		if err := nrows.Scan(&n.ID, &n.CategoryID, &n.Name, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan nominee: %w", err)
		}
		if i, ok := index[n.CategoryID]; ok {
			result[i].Nominees = append(result[i].Nominees, n)
		}
	}
	return result, nrows.Err()
}
