package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StoreRecord is a row in the stores reference table.
type StoreRecord struct {
	ID        int64
	Name      string
	Location  string
	Website   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EnsureStore creates the store if it does not exist and returns the row
// either way. The ON CONFLICT no-op update makes the statement always
// return a row, so concurrent init runs cannot race.
func (s *Store) EnsureStore(ctx context.Context, name, location, website string) (StoreRecord, error) {
	if strings.TrimSpace(name) == "" {
		return StoreRecord{}, fmt.Errorf("store name required")
	}
	row := s.DB.QueryRowContext(ctx, `
INSERT INTO stores (name, location, website)
VALUES ($1,$2,$3)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name, location, website, created_at, updated_at
`, strings.TrimSpace(name), nullableString(location), nullableString(website))

	rec, err := scanStore(row)
	if err != nil {
		return StoreRecord{}, classify("ensure store", err)
	}
	return rec, nil
}

// GetStoreIDByName resolves a store name to its identifier. Matching is
// exact and case-sensitive; the bool reports whether the store exists.
func (s *Store) GetStoreIDByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx, `SELECT id FROM stores WHERE name=$1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, classify("resolve store", err)
	}
	return id, true, nil
}

// GetStoreByName fetches a store row by exact name. The bool reports existence.
func (s *Store) GetStoreByName(ctx context.Context, name string) (StoreRecord, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT id, name, location, website, created_at, updated_at
FROM stores
WHERE name=$1
`, name)
	rec, err := scanStore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StoreRecord{}, false, nil
	}
	if err != nil {
		return StoreRecord{}, false, classify("get store", err)
	}
	return rec, true, nil
}

// UpdateStore renames a store or changes its location/website. Empty
// arguments leave the corresponding column untouched.
func (s *Store) UpdateStore(ctx context.Context, id int64, newName, location, website string) (StoreRecord, error) {
	row := s.DB.QueryRowContext(ctx, `
UPDATE stores SET
  name       = COALESCE(NULLIF($2, ''), name),
  location   = COALESCE(NULLIF($3, ''), location),
  website    = COALESCE(NULLIF($4, ''), website),
  updated_at = NOW()
WHERE id=$1
RETURNING id, name, location, website, created_at, updated_at
`, id, newName, location, website)

	rec, err := scanStore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StoreRecord{}, fmt.Errorf("store %d not found", id)
	}
	if err != nil {
		return StoreRecord{}, classify("update store", err)
	}
	return rec, nil
}

// ListStores returns all stores ordered by name.
func (s *Store) ListStores(ctx context.Context) ([]StoreRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, name, location, website, created_at, updated_at
FROM stores
ORDER BY name
`)
	if err != nil {
		return nil, classify("list stores", err)
	}
	defer rows.Close()

	var out []StoreRecord
	for rows.Next() {
		rec, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStore(row rowScanner) (StoreRecord, error) {
	var rec StoreRecord
	var location, website sql.NullString
	if err := row.Scan(&rec.ID, &rec.Name, &location, &website, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return StoreRecord{}, err
	}
	if location.Valid {
		rec.Location = location.String
	}
	if website.Valid {
		rec.Website = website.String
	}
	return rec, nil
}
