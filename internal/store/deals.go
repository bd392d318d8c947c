package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pill/groceries-etl/internal/deal"
)

// DealRecord is a grocery_deals row joined with its store and category names.
type DealRecord struct {
	ID                 int64
	ExternalID         string
	StoreID            int64
	StoreName          string
	ProductName        string
	CategoryID         *int64
	CategoryName       string
	RegularPrice       *decimal.Decimal
	SalePrice          *decimal.Decimal
	Unit               string
	Quantity           *decimal.Decimal
	DiscountPercentage *decimal.Decimal
	ValidFrom          time.Time
	ValidTo            time.Time
	SourceURL          string
	ImageURL           string
	Description        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// UpsertResult reports which branch the deal upsert took.
type UpsertResult struct {
	DealID   int64
	Inserted bool
}

// UpsertDeal inserts a deal or, when external_id already exists, updates
// every mutable field and bumps updated_at. One statement, so it stays
// correct under concurrent loads of the same external_id; xmax = 0 tells
// insert from update.
func (s *Store) UpsertDeal(ctx context.Context, d deal.Deal, storeID int64, categoryID *int64) (UpsertResult, error) {
	var catID sql.NullInt64
	if categoryID != nil {
		catID = sql.NullInt64{Int64: *categoryID, Valid: true}
	}

	var res UpsertResult
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO grocery_deals (
  external_id, store_id, product_name, category_id, regular_price,
  sale_price, unit, quantity, discount_percentage, valid_from, valid_to,
  source_url, image_url, description, created_at, updated_at
) VALUES (
  $1, $2, $3, $4, $5,
  $6, $7, $8, $9, $10, $11,
  $12, $13, $14, NOW(), NOW()
)
ON CONFLICT (external_id) DO UPDATE SET
  store_id            = EXCLUDED.store_id,
  product_name        = EXCLUDED.product_name,
  category_id         = EXCLUDED.category_id,
  regular_price       = EXCLUDED.regular_price,
  sale_price          = EXCLUDED.sale_price,
  unit                = EXCLUDED.unit,
  quantity            = EXCLUDED.quantity,
  discount_percentage = EXCLUDED.discount_percentage,
  valid_from          = EXCLUDED.valid_from,
  valid_to            = EXCLUDED.valid_to,
  source_url          = EXCLUDED.source_url,
  image_url           = EXCLUDED.image_url,
  description         = EXCLUDED.description,
  updated_at          = NOW()
RETURNING id, (xmax = 0) AS inserted
`,
		d.ExternalID, storeID, d.ProductName, catID, nullableDecimal(d.RegularPrice),
		nullableDecimal(d.SalePrice), nullableString(d.Unit), nullableDecimal(d.Quantity),
		nullableDecimal(d.DiscountPercentage), d.ValidFrom, d.ValidTo,
		nullableString(d.SourceURL), nullableString(d.ImageURL), nullableString(d.Description),
	).Scan(&res.DealID, &res.Inserted)
	if err != nil {
		return UpsertResult{}, classify("upsert deal", err)
	}
	return res, nil
}

// DealExists reports whether a deal with the given external_id is stored.
// Dry runs use it to classify a record as insert vs update without writing.
func (s *Store) DealExists(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM grocery_deals WHERE external_id=$1)`, externalID).Scan(&exists)
	if err != nil {
		return false, classify("deal exists", err)
	}
	return exists, nil
}

// GetDealByExternalID fetches one deal with its reference names joined.
// The bool reports existence.
func (s *Store) GetDealByExternalID(ctx context.Context, externalID string) (DealRecord, bool, error) {
	row := s.DB.QueryRowContext(ctx, dealSelect+` WHERE gd.external_id=$1`, externalID)
	rec, err := scanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return DealRecord{}, false, nil
	}
	if err != nil {
		return DealRecord{}, false, classify("get deal", err)
	}
	return rec, true, nil
}

// DealFilters narrows ListDeals. Zero values mean "no filter".
type DealFilters struct {
	StoreName    string
	CategoryName string
	ValidOn      *time.Time
	MinDiscount  *decimal.Decimal
	MaxSalePrice *decimal.Decimal
}

const maxPageSize = 200

const dealSelect = `
SELECT gd.id, gd.external_id, gd.store_id, s.name,
       gd.product_name, gd.category_id, c.name,
       gd.regular_price, gd.sale_price, gd.unit, gd.quantity, gd.discount_percentage,
       gd.valid_from, gd.valid_to, gd.source_url, gd.image_url, gd.description,
       gd.created_at, gd.updated_at
FROM grocery_deals gd
JOIN stores s ON gd.store_id = s.id
LEFT JOIN categories c ON gd.category_id = c.id`

// ListDeals returns deals ordered by recency with a bounded page size.
func (s *Store) ListDeals(ctx context.Context, f DealFilters, limit, offset int) ([]DealRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.StoreName != "" {
		add("s.name = $%d", f.StoreName)
	}
	if f.CategoryName != "" {
		add("c.name = $%d", f.CategoryName)
	}
	if f.ValidOn != nil {
		add("gd.valid_from <= $%d", *f.ValidOn)
		add("gd.valid_to >= $%d", *f.ValidOn)
	}
	if f.MinDiscount != nil {
		add("gd.discount_percentage >= $%d", *f.MinDiscount)
	}
	if f.MaxSalePrice != nil {
		add("gd.sale_price <= $%d", *f.MaxSalePrice)
	}

	query := dealSelect
	if len(conds) > 0 {
		query += "\nWHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf("\nORDER BY gd.created_at DESC\nLIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list deals", err)
	}
	defer rows.Close()
	return collectDeals(rows)
}

// SearchDeals runs a full-text search over product names and descriptions,
// best matches first.
func (s *Store) SearchDeals(ctx context.Context, term string, limit int) ([]DealRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	rows, err := s.DB.QueryContext(ctx, dealSelect+`
WHERE to_tsvector('english', gd.product_name || ' ' || COALESCE(gd.description, '')) @@ plainto_tsquery('english', $1)
ORDER BY ts_rank(to_tsvector('english', gd.product_name || ' ' || COALESCE(gd.description, '')), plainto_tsquery('english', $1)) DESC
LIMIT $2
`, term, limit)
	if err != nil {
		return nil, classify("search deals", err)
	}
	defer rows.Close()
	return collectDeals(rows)
}

// Stats aggregates the deal table.
type Stats struct {
	TotalDeals       int64
	UniqueStores     int64
	UniqueCategories int64
	AvgDiscount      *decimal.Decimal
	AvgSalePrice     *decimal.Decimal
	EarliestDeal     *time.Time
	LatestDeal       *time.Time
	DealsByStore     []NamedCount
	DealsByCategory  []NamedCount
}

// NamedCount pairs a reference name with its deal count.
type NamedCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// GetStats computes aggregate statistics: overall totals plus counts by
// store and by category.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var st Stats
	var avgDiscount, avgSale decimal.NullDecimal
	var earliest, latest sql.NullTime
	err := s.DB.QueryRowContext(ctx, `
SELECT COUNT(*),
       COUNT(DISTINCT store_id),
       COUNT(DISTINCT category_id),
       AVG(discount_percentage),
       AVG(sale_price),
       MIN(valid_from),
       MAX(valid_to)
FROM grocery_deals
`).Scan(&st.TotalDeals, &st.UniqueStores, &st.UniqueCategories, &avgDiscount, &avgSale, &earliest, &latest)
	if err != nil {
		return Stats{}, classify("stats", err)
	}
	st.AvgDiscount = decimalPtr(avgDiscount)
	st.AvgSalePrice = decimalPtr(avgSale)
	if earliest.Valid {
		st.EarliestDeal = &earliest.Time
	}
	if latest.Valid {
		st.LatestDeal = &latest.Time
	}

	if st.DealsByStore, err = s.countBy(ctx, `
SELECT s.name, COUNT(*)
FROM grocery_deals gd
JOIN stores s ON gd.store_id = s.id
GROUP BY s.name
ORDER BY COUNT(*) DESC, s.name
`); err != nil {
		return Stats{}, err
	}
	if st.DealsByCategory, err = s.countBy(ctx, `
SELECT c.name, COUNT(*)
FROM grocery_deals gd
JOIN categories c ON gd.category_id = c.id
GROUP BY c.name
ORDER BY COUNT(*) DESC, c.name
`); err != nil {
		return Stats{}, err
	}
	return st, nil
}

func (s *Store) countBy(ctx context.Context, query string) ([]NamedCount, error) {
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("stats", err)
	}
	defer rows.Close()

	var out []NamedCount
	for rows.Next() {
		var nc NamedCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, err
		}
		out = append(out, nc)
	}
	return out, rows.Err()
}

func collectDeals(rows *sql.Rows) ([]DealRecord, error) {
	var out []DealRecord
	for rows.Next() {
		rec, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanDeal(row rowScanner) (DealRecord, error) {
	var rec DealRecord
	var categoryID sql.NullInt64
	var categoryName, unit, sourceURL, imageURL, description sql.NullString
	var regularPrice, salePrice, quantity, discount decimal.NullDecimal

	if err := row.Scan(
		&rec.ID, &rec.ExternalID, &rec.StoreID, &rec.StoreName,
		&rec.ProductName, &categoryID, &categoryName,
		&regularPrice, &salePrice, &unit, &quantity, &discount,
		&rec.ValidFrom, &rec.ValidTo, &sourceURL, &imageURL, &description,
		&rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return DealRecord{}, err
	}
	if categoryID.Valid {
		rec.CategoryID = &categoryID.Int64
	}
	rec.CategoryName = categoryName.String
	rec.RegularPrice = decimalPtr(regularPrice)
	rec.SalePrice = decimalPtr(salePrice)
	rec.Unit = unit.String
	rec.Quantity = decimalPtr(quantity)
	rec.DiscountPercentage = decimalPtr(discount)
	rec.SourceURL = sourceURL.String
	rec.ImageURL = imageURL.String
	rec.Description = description.String
	return rec, nil
}
