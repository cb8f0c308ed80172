package handler

import (
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// optionalUUID parses s, returning nil for an empty string. Inputs are
// validated by binding tags before they get here.
func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

// optionalDate parses a YYYY-MM-DD string as a UTC date
func optionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// dateOrZero is optionalDate for callers that treat zero as unset
func dateOrZero(s string) time.Time {
	if t := optionalDate(s); t != nil {
		return *t
	}
	return time.Time{}
}
