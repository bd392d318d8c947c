package deal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateFormat is the calendar date layout used by record files and derived identifiers.
const DateFormat = "2006-01-02"

// externalIDNamespace seeds deterministic deal identifiers. Producers that
// omit external_id get the same UUID for the same product/store/window on
// every load, so re-scrapes deduplicate.
var externalIDNamespace = uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")

// Deal is a validated, normalized grocery deal record. Store and category
// are still names here; the resolver maps them to row identifiers.
type Deal struct {
	ExternalID         string
	StoreName          string
	ProductName        string
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
}

// DeriveExternalID computes the deterministic UUID for a deal that arrived
// without one: uuid5 over lower(trim(product)):storeID:validFrom:validTo.
func DeriveExternalID(productName string, storeID int64, validFrom, validTo time.Time) string {
	content := fmt.Sprintf("%s:%d:%s:%s",
		strings.ToLower(strings.TrimSpace(productName)),
		storeID,
		validFrom.Format(DateFormat),
		validTo.Format(DateFormat),
	)
	return uuid.NewSHA1(externalIDNamespace, []byte(content)).String()
}

// ComputeDiscount fills in discount_percentage from the two prices when the
// record did not carry one. Returns nil when it cannot be computed, including
// when the sale price exceeds the regular price: such records are valid, but
// a negative discount is not.
func ComputeDiscount(regular, sale *decimal.Decimal) *decimal.Decimal {
	if regular == nil || sale == nil || !regular.IsPositive() || sale.GreaterThan(*regular) {
		return nil
	}
	d := regular.Sub(*sale).Div(*regular).Mul(decimal.NewFromInt(100)).Round(2)
	return &d
}

// DateOnly truncates a timestamp to its UTC calendar date. Validity windows
// are DATE columns; comparing them against an intraday timestamp would
// exclude deals expiring that day.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
