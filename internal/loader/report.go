package loader

import "fmt"

// Processing stages a record moves through, used to attribute failures.
const (
	StageRead     = "read"
	StageValidate = "validate"
	StageResolve  = "resolve"
	StageUpsert   = "upsert"
)

// Record outcomes.
const (
	OutcomeInserted = "inserted"
	OutcomeUpdated  = "updated"
	OutcomeError    = "error"
)

// ResolutionError reports a name that could not be mapped to a reference
// row. Unknown stores are terminal for the record; stores are provisioned
// deliberately, never auto-created from scraped strings.
type ResolutionError struct {
	Entity string
	Name   string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Entity, e.Name)
}

// LoadError attributes one record failure to its source file and stage.
type LoadError struct {
	Source  string
	Stage   string
	Field   string
	Message string
}

func (e LoadError) String() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s): %s", e.Source, e.Stage, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Stage, e.Message)
}

// Result is the outcome of loading a single record file.
type Result struct {
	Source     string
	Outcome    string
	ExternalID string
	DealID     int64
	Err        *LoadError
}

// Report aggregates a directory load. One record's failure never aborts
// the rest; it lands in Errors and the traversal continues.
type Report struct {
	Processed int
	Inserted  int
	Updated   int
	Skipped   int
	Errors    []LoadError
}

func (r *Report) HasErrors() bool { return len(r.Errors) > 0 }

func (r *Report) add(res Result) {
	r.Processed++
	switch res.Outcome {
	case OutcomeInserted:
		r.Inserted++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeError:
		if res.Err != nil {
			r.Errors = append(r.Errors, *res.Err)
		}
	}
}
