package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = errors.New("task not found")
	ErrValidationFailed    = errors.New("validation failed")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrPartialBatchFailure = errors.New("partial batch failure")
)

// FieldError describes a rejected field of a single record.
type FieldError struct {
	Field   string
	Message string
}

// RecordFailure is one failed record of a batch write.
type RecordFailure struct {
	Index   int
	Message string
	Fields  []FieldError
}

func (f RecordFailure) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "record %d", f.Index)
	if f.Message != "" {
		fmt.Fprintf(&b, ": %s", f.Message)
	}
	for _, fe := range f.Fields {
		fmt.Fprintf(&b, " [%s: %s]", fe.Field, fe.Message)
	}
	return b.String()
}

// BatchError carries per-record detail for a multi-record write.
type BatchError struct {
	Op        string
	Succeeded int
	Failures  []RecordFailure
}

func (e *BatchError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%s: %d of %d records failed: %s",
		e.Op, len(e.Failures), len(e.Failures)+e.Succeeded, strings.Join(parts, "; "))
}

func (e *BatchError) Is(target error) bool {
	return target == ErrPartialBatchFailure
}
