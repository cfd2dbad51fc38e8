package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific keys
type (
	ReportID ID
	MartKey  ID
)

func (id ReportID) String() string { return ID(id).String() }
func (k MartKey) String() string   { return ID(k).String() }

// NewReportID creates a fresh report identifier
func NewReportID() ReportID {
	return ReportID(NewID())
}

// ParseMartKey normalizes a mart key as it arrives from a URL or flag
func ParseMartKey(s string) (MartKey, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", fmt.Errorf("%w: mart key cannot be empty", ErrInvalidValue)
	}
	return MartKey(key), nil
}
