package store

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ConstraintError is a database-level rejection of the data itself
// (foreign key, uniqueness, check constraint). It is terminal for the
// record and must not be retried.
type ConstraintError struct {
	Constraint string
	Code       string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("constraint %s violated (code %s): %v", e.Constraint, e.Code, e.Err)
	}
	return fmt.Sprintf("constraint violated (code %s): %v", e.Code, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// InfrastructureError is a connectivity or timeout failure. Callers may
// retry with backoff; the data itself is not at fault.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

// Postgres error classes carrying data constraints (class 23).
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
)

// classify splits storage errors into the constraint/infrastructure
// taxonomy so the loader can tell "fix the data" from "fix the database".
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgForeignKeyViolation, pgUniqueViolation, pgCheckViolation, pgNotNullViolation:
			return &ConstraintError{Constraint: pqErr.Constraint, Code: string(pqErr.Code), Err: err}
		}
	}
	return &InfrastructureError{Op: op, Err: err}
}
