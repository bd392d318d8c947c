package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/pill/groceries-etl/internal/deal"
	"github.com/pill/groceries-etl/internal/store"
)

// DealsHandler serves the read-only deal endpoints.
type DealsHandler struct {
	Store *store.Store
}

type dealResponse struct {
	ID                 int64            `json:"id"`
	ExternalID         string           `json:"external_id"`
	StoreName          string           `json:"store_name"`
	ProductName        string           `json:"product_name"`
	CategoryName       string           `json:"category_name,omitempty"`
	RegularPrice       *decimal.Decimal `json:"regular_price,omitempty"`
	SalePrice          *decimal.Decimal `json:"sale_price,omitempty"`
	Unit               string           `json:"unit,omitempty"`
	Quantity           *decimal.Decimal `json:"quantity,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	ValidFrom          string           `json:"valid_from"`
	ValidTo            string           `json:"valid_to"`
	SourceURL          string           `json:"source_url,omitempty"`
	ImageURL           string           `json:"image_url,omitempty"`
	Description        string           `json:"description,omitempty"`
}

func toDealResponse(rec store.DealRecord) dealResponse {
	return dealResponse{
		ID:                 rec.ID,
		ExternalID:         rec.ExternalID,
		StoreName:          rec.StoreName,
		ProductName:        rec.ProductName,
		CategoryName:       rec.CategoryName,
		RegularPrice:       rec.RegularPrice,
		SalePrice:          rec.SalePrice,
		Unit:               rec.Unit,
		Quantity:           rec.Quantity,
		DiscountPercentage: rec.DiscountPercentage,
		ValidFrom:          rec.ValidFrom.Format(deal.DateFormat),
		ValidTo:            rec.ValidTo.Format(deal.DateFormat),
		SourceURL:          rec.SourceURL,
		ImageURL:           rec.ImageURL,
		Description:        rec.Description,
	}
}

// List returns deals ordered by recency, optionally filtered by store,
// category and validity window.
func (h *DealsHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	filters := store.DealFilters{
		StoreName:    c.QueryParam("store"),
		CategoryName: c.QueryParam("category"),
	}
	if v := c.QueryParam("valid_on"); v != "" {
		t, err := time.Parse(deal.DateFormat, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "valid_on must be a YYYY-MM-DD date")
		}
		filters.ValidOn = &t
	}
	if ok, _ := strconv.ParseBool(c.QueryParam("current")); ok {
		today := deal.DateOnly(time.Now())
		filters.ValidOn = &today
	}

	recs, err := h.Store.ListDeals(c.Request().Context(), filters, limit, offset)
	if err != nil {
		return err
	}
	out := make([]dealResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDealResponse(rec))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"deals": out, "count": len(out)})
}

// Search runs a full-text search over product names.
func (h *DealsHandler) Search(c echo.Context) error {
	term := c.QueryParam("q")
	if term == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	recs, err := h.Store.SearchDeals(c.Request().Context(), term, limit)
	if err != nil {
		return err
	}
	out := make([]dealResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDealResponse(rec))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"deals": out, "count": len(out)})
}

type statsResponse struct {
	TotalDeals       int64              `json:"total_deals"`
	UniqueStores     int64              `json:"unique_stores"`
	UniqueCategories int64              `json:"unique_categories"`
	AvgDiscount      *decimal.Decimal   `json:"avg_discount,omitempty"`
	AvgSalePrice     *decimal.Decimal   `json:"avg_sale_price,omitempty"`
	EarliestDeal     string             `json:"earliest_deal,omitempty"`
	LatestDeal       string             `json:"latest_deal,omitempty"`
	DealsByStore     []store.NamedCount `json:"deals_by_store"`
	DealsByCategory  []store.NamedCount `json:"deals_by_category"`
}

// Stats returns aggregate deal statistics.
func (h *DealsHandler) Stats(c echo.Context) error {
	st, err := h.Store.GetStats(c.Request().Context())
	if err != nil {
		return err
	}
	resp := statsResponse{
		TotalDeals:       st.TotalDeals,
		UniqueStores:     st.UniqueStores,
		UniqueCategories: st.UniqueCategories,
		AvgDiscount:      st.AvgDiscount,
		AvgSalePrice:     st.AvgSalePrice,
		DealsByStore:     st.DealsByStore,
		DealsByCategory:  st.DealsByCategory,
	}
	if st.EarliestDeal != nil {
		resp.EarliestDeal = st.EarliestDeal.Format(deal.DateFormat)
	}
	if st.LatestDeal != nil {
		resp.LatestDeal = st.LatestDeal.Format(deal.DateFormat)
	}
	return c.JSON(http.StatusOK, resp)
}
