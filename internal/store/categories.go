package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CategoryRecord is a row in the categories reference table.
type CategoryRecord struct {
	ID               int64
	Name             string
	ParentCategoryID *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ResolveCategory creates the category if absent and returns its id either
// way, as one atomic statement. Two loaders resolving the same brand-new
// name concurrently get the same row; the conflict arm is a no-op update
// only so RETURNING always yields the surviving row.
func (s *Store) ResolveCategory(ctx context.Context, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("category name required")
	}
	var id int64
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO categories (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id
`, strings.TrimSpace(name)).Scan(&id)
	if err != nil {
		return 0, classify("resolve category", err)
	}
	return id, nil
}

// GetCategoryIDByName looks a category up without creating it. Matching is
// exact and case-sensitive; the bool reports existence.
func (s *Store) GetCategoryIDByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx, `SELECT id FROM categories WHERE name=$1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, classify("get category", err)
	}
	return id, true, nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]CategoryRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, name, parent_category_id, created_at, updated_at
FROM categories
ORDER BY name
`)
	if err != nil {
		return nil, classify("list categories", err)
	}
	defer rows.Close()

	var out []CategoryRecord
	for rows.Next() {
		var rec CategoryRecord
		var parent sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.Name, &parent, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		if parent.Valid {
			rec.ParentCategoryID = &parent.Int64
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
