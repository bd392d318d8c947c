package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pill/groceries-etl/internal/store"
)

func dealColumns() []string {
	return []string{
		"id", "external_id", "store_id", "store_name",
		"product_name", "category_id", "category_name",
		"regular_price", "sale_price", "unit", "quantity", "discount_percentage",
		"valid_from", "valid_to", "source_url", "image_url", "description",
		"created_at", "updated_at",
	}
}

func dealRow(rows *sqlmock.Rows, id int64, name string) *sqlmock.Rows {
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, "8f2b6a3c-0d7e-5f41-9a58-2f6f3f1c9b21", int64(1), "Costco",
		name, nil, nil,
		"5.99", "4.99", "gal", nil, "16.69",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
		nil, nil, nil,
		now, now,
	)
}

func TestListDeals(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := dealRow(sqlmock.NewRows(dealColumns()), 1, "Organic Milk")
	mock.ExpectQuery(`SELECT gd\.id, gd\.external_id`).WillReturnRows(rows)

	e := newEcho()
	registerRoutes(e, &store.Store{DB: db})

	req := httptest.NewRequest(http.MethodGet, "/api/deals?limit=10", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Organic Milk")
	assert.Contains(t, rec.Body.String(), `"count":1`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListDealsBadValidOn(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	e := newEcho()
	registerRoutes(e, &store.Store{DB: db})

	req := httptest.NewRequest(http.MethodGet, "/api/deals?valid_on=tomorrow", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchRequiresTerm(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	e := newEcho()
	registerRoutes(e, &store.Store{DB: db})

	req := httptest.NewRequest(http.MethodGet, "/api/deals/search", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "stores", "categories", "avg_discount", "avg_sale", "earliest", "latest"}).
			AddRow(int64(10), int64(2), int64(3), "15.25", "4.50",
				time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	mock.ExpectQuery(`GROUP BY s\.name`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "count"}).AddRow("Costco", int64(7)).AddRow("Hmart", int64(3)))
	mock.ExpectQuery(`GROUP BY c\.name`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "count"}).AddRow("Dairy", int64(5)))

	e := newEcho()
	registerRoutes(e, &store.Store{DB: db})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_deals":10`)
	assert.Contains(t, rec.Body.String(), "Costco")
	require.NoError(t, mock.ExpectationsWereMet())
}
