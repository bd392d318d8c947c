package deal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxUnitLength = 32

// Validate turns one untyped record into a Deal or a *ValidationError that
// names the offending field. Checks run in a fixed order: required-field
// presence, date parseability, date range, numeric fields, unit shape.
// No partially-validated Deal is ever returned.
func Validate(raw map[string]interface{}) (Deal, error) {
	var d Deal

	for _, field := range []string{"product_name", "store_name", "valid_from", "valid_to"} {
		v, ok := raw[field]
		if !ok || v == nil {
			return Deal{}, &ValidationError{Field: field, Code: CodeMissing, Reason: "required field is absent"}
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			return Deal{}, &ValidationError{Field: field, Code: CodeMissing, Reason: "required field is empty"}
		}
	}

	var err error
	if d.ProductName, err = requireString(raw, "product_name"); err != nil {
		return Deal{}, err
	}
	if d.StoreName, err = requireString(raw, "store_name"); err != nil {
		return Deal{}, err
	}
	if d.ValidFrom, err = requireDate(raw, "valid_from"); err != nil {
		return Deal{}, err
	}
	if d.ValidTo, err = requireDate(raw, "valid_to"); err != nil {
		return Deal{}, err
	}
	if d.ValidTo.Before(d.ValidFrom) {
		return Deal{}, &ValidationError{Field: "valid_to", Code: CodeDateRange, Reason: "valid_to is before valid_from"}
	}

	if d.RegularPrice, err = optionalDecimal(raw, "regular_price", 2, nil); err != nil {
		return Deal{}, err
	}
	if d.SalePrice, err = optionalDecimal(raw, "sale_price", 2, nil); err != nil {
		return Deal{}, err
	}
	if d.Quantity, err = optionalDecimal(raw, "quantity", 3, nil); err != nil {
		return Deal{}, err
	}
	hundred := decimal.NewFromInt(100)
	if d.DiscountPercentage, err = optionalDecimal(raw, "discount_percentage", 2, &hundred); err != nil {
		return Deal{}, err
	}

	if d.Unit, err = optionalString(raw, "unit"); err != nil {
		return Deal{}, err
	}
	if len(d.Unit) > maxUnitLength {
		return Deal{}, &ValidationError{
			Field: "unit", Code: CodeTooLong,
			Reason: fmt.Sprintf("unit token exceeds %d characters", maxUnitLength),
		}
	}

	if d.ExternalID, err = optionalString(raw, "external_id"); err != nil {
		return Deal{}, err
	}
	if d.ExternalID != "" {
		if _, perr := uuid.Parse(d.ExternalID); perr != nil {
			return Deal{}, &ValidationError{Field: "external_id", Code: CodeType, Reason: "must be a UUID"}
		}
	}
	if d.CategoryName, err = optionalString(raw, "category_name"); err != nil {
		return Deal{}, err
	}
	if d.SourceURL, err = optionalString(raw, "source_url"); err != nil {
		return Deal{}, err
	}
	if d.ImageURL, err = optionalString(raw, "image_url"); err != nil {
		return Deal{}, err
	}
	if d.Description, err = optionalString(raw, "description"); err != nil {
		return Deal{}, err
	}

	if d.DiscountPercentage == nil {
		d.DiscountPercentage = ComputeDiscount(d.RegularPrice, d.SalePrice)
	}
	return d, nil
}

func requireString(raw map[string]interface{}, field string) (string, error) {
	s, ok := raw[field].(string)
	if !ok {
		return "", &ValidationError{Field: field, Code: CodeType, Reason: "must be a string"}
	}
	return strings.TrimSpace(s), nil
}

func optionalString(raw map[string]interface{}, field string) (string, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: field, Code: CodeType, Reason: "must be a string"}
	}
	return strings.TrimSpace(s), nil
}

func requireDate(raw map[string]interface{}, field string) (time.Time, error) {
	s, ok := raw[field].(string)
	if !ok {
		return time.Time{}, &ValidationError{Field: field, Code: CodeType, Reason: "must be a date string"}
	}
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ValidationError{
			Field: field, Code: CodeDateFormat,
			Reason: fmt.Sprintf("not a %s date", DateFormat),
		}
	}
	return t, nil
}

// optionalDecimal parses a loosely-typed numeric field, enforcing
// non-negativity, fractional precision and an optional upper bound.
func optionalDecimal(raw map[string]interface{}, field string, scale int32, max *decimal.Decimal) (*decimal.Decimal, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return nil, nil
	}

	var (
		d   decimal.Decimal
		err error
	)
	switch n := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(n.String())
	case string:
		if strings.TrimSpace(n) == "" {
			return nil, nil
		}
		d, err = decimal.NewFromString(strings.TrimSpace(n))
	case float64:
		d = decimal.NewFromFloat(n)
	case int:
		d = decimal.NewFromInt(int64(n))
	case int64:
		d = decimal.NewFromInt(n)
	default:
		return nil, &ValidationError{Field: field, Code: CodeType, Reason: "must be a number"}
	}
	if err != nil {
		return nil, &ValidationError{Field: field, Code: CodeType, Reason: "not a parseable number"}
	}

	if d.IsNegative() {
		return nil, &ValidationError{Field: field, Code: CodeNegative, Reason: "must be non-negative"}
	}
	if !d.Equal(d.Round(scale)) {
		return nil, &ValidationError{
			Field: field, Code: CodePrecision,
			Reason: fmt.Sprintf("more than %d fractional digits", scale),
		}
	}
	if max != nil && d.GreaterThan(*max) {
		return nil, &ValidationError{
			Field: field, Code: CodeRange,
			Reason: fmt.Sprintf("exceeds maximum %s", max.String()),
		}
	}
	return &d, nil
}
