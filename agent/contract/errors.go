package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
	// ErrNotFound marks a catalog miss. Callers treat it as a result value,
	// not a turn failure: the item is reported unavailable and skipped.
	ErrNotFound = errors.New("not found")
)
