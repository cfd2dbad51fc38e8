package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrMartNotFound    = fmt.Errorf("%w: mart", ErrNotFound)
	ErrColumnNotFound  = fmt.Errorf("%w: column", ErrNotFound)
	ErrSegmentNotFound = fmt.Errorf("%w: segment", ErrNotFound)
	ErrDataDirNotFound = fmt.Errorf("%w: data directory", ErrNotFound)

	// Input errors
	ErrInvalidCount      = errors.New("invalid outcome count")
	ErrInvalidConfidence = errors.New("confidence level must be in (0, 1)")
	ErrInvalidProportion = errors.New("proportion must be in [0, 1]")
	ErrInvalidValue      = errors.New("invalid field value")

	// Statistical domain errors
	ErrDegenerateTable = errors.New("degenerate contingency table")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, resource, id)
}

func NewColumnNotFoundError(column string) error {
	return fmt.Errorf("%w %s", ErrColumnNotFound, column)
}

func NewCountError(successes, total int) error {
	return fmt.Errorf("%w: successes=%d total=%d", ErrInvalidCount, successes, total)
}

func NewDegenerateTableError(reason string) error {
	return fmt.Errorf("%w: %s", ErrDegenerateTable, reason)
}

func NewValueError(field, value string, err error) error {
	return fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, field, value, err)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidCount) ||
		errors.Is(err, ErrInvalidConfidence) ||
		errors.Is(err, ErrInvalidProportion) ||
		errors.Is(err, ErrInvalidValue)
}

func IsDegenerateError(err error) bool {
	return errors.Is(err, ErrDegenerateTable)
}
