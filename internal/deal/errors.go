package deal

import "fmt"

// Validation error codes, one per failure mode so callers can attribute a
// failure to a specific field check.
const (
	CodeMissing    = "missing"
	CodeType       = "wrong_type"
	CodeDateFormat = "date_format"
	CodeDateRange  = "date_range"
	CodeNegative   = "negative"
	CodePrecision  = "precision"
	CodeRange      = "out_of_range"
	CodeTooLong    = "too_long"
)

// ValidationError reports a malformed or out-of-range record field.
// It is terminal for the record and never retried.
type ValidationError struct {
	Field  string
	Code   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q (%s): %s", e.Field, e.Code, e.Reason)
}
