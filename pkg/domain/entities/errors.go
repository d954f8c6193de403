package entities

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNegativeQuantity is returned when a stock change would leave a row with
// less than zero on hand
var ErrNegativeQuantity = errors.New("quantity would go below zero")

// ValidationError reports a record that failed schema coercion or validation.
// Row is the 1-based file line when the record came from disk, 0 otherwise.
type ValidationError struct {
	Collection string
	Row        int
	Field      string
	Value      string
	Reason     string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Collection != "" {
		b.WriteString(e.Collection)
		if e.Row > 0 {
			fmt.Fprintf(&b, " row %d", e.Row)
		}
		b.WriteString(": ")
	}
	if e.Field != "" {
		b.WriteString(e.Field)
		if e.Value != "" {
			fmt.Fprintf(&b, " %q", e.Value)
		}
		b.WriteString(" ")
	}
	b.WriteString(e.Reason)
	return b.String()
}

func invalid(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}
