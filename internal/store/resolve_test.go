package store

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestGetStoreIDByName(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}
	query := regexp.QuoteMeta(`SELECT id FROM stores WHERE name=$1`)
	mock.ExpectQuery(query).
		WithArgs("Costco").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	id, ok, err := st.GetStoreIDByName(context.Background(), "Costco")
	if err != nil {
		t.Fatalf("GetStoreIDByName: %v", err)
	}
	if !ok || id != 3 {
		t.Fatalf("expected id 3, got id=%d ok=%v", id, ok)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetStoreIDByNameNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}
	query := regexp.QuoteMeta(`SELECT id FROM stores WHERE name=$1`)
	mock.ExpectQuery(query).
		WithArgs("costco").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	// Matching is case-sensitive: a lowercased name is simply unknown.
	_, ok, err := st.GetStoreIDByName(context.Background(), "costco")
	if err != nil {
		t.Fatalf("GetStoreIDByName: %v", err)
	}
	if ok {
		t.Fatalf("expected store to be unknown")
	}
}

func TestResolveCategoryAtomicCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}
	query := regexp.QuoteMeta(`
INSERT INTO categories (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id
`)
	mock.ExpectQuery(query).
		WithArgs("Dairy").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := st.ResolveCategory(context.Background(), " Dairy ")
	if err != nil {
		t.Fatalf("ResolveCategory: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected id 7, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestResolveCategoryEmptyName(t *testing.T) {
	st := &Store{}
	if _, err := st.ResolveCategory(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty category name")
	}
}

func TestListStores(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}
	query := regexp.QuoteMeta(`
SELECT id, name, location, website, created_at, updated_at
FROM stores
ORDER BY name
`)
	mock.ExpectQuery(query).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "location", "website", "created_at", "updated_at"}).
			AddRow(int64(1), "Costco", "Seattle, WA", "https://costco.com", nowRow(), nowRow()).
			AddRow(int64(2), "Hmart", nil, nil, nowRow(), nowRow()))

	stores, err := st.ListStores(context.Background())
	if err != nil {
		t.Fatalf("ListStores: %v", err)
	}
	if len(stores) != 2 || stores[0].Name != "Costco" || stores[1].Location != "" {
		t.Fatalf("unexpected store list: %+v", stores)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListCategories(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}
	query := regexp.QuoteMeta(`
SELECT id, name, parent_category_id, created_at, updated_at
FROM categories
ORDER BY name
`)
	mock.ExpectQuery(query).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_category_id", "created_at", "updated_at"}).
			AddRow(int64(2), "Dairy", int64(1), nowRow(), nowRow()).
			AddRow(int64(1), "Food", nil, nowRow(), nowRow()))

	cats, err := st.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("unexpected category count: %d", len(cats))
	}
	if cats[0].ParentCategoryID == nil || *cats[0].ParentCategoryID != 1 {
		t.Fatalf("expected Dairy parented under 1, got %+v", cats[0])
	}
	if cats[1].ParentCategoryID != nil {
		t.Fatalf("expected Food to be top-level, got %+v", cats[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}
	query := regexp.QuoteMeta(`
INSERT INTO stores (name, location, website)
VALUES ($1,$2,$3)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name, location, website, created_at, updated_at
`)
	mock.ExpectQuery(query).
		WithArgs("Hmart", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "location", "website", "created_at", "updated_at"}).
			AddRow(int64(1), "Hmart", nil, "https://www.hmart.com", nowRow(), nowRow()))

	rec, err := st.EnsureStore(context.Background(), "Hmart", "", "https://www.hmart.com")
	if err != nil {
		t.Fatalf("EnsureStore: %v", err)
	}
	if rec.ID != 1 || rec.Website != "https://www.hmart.com" || rec.Location != "" {
		t.Fatalf("unexpected store record: %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
