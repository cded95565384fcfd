package model

import "fmt"

// InputError describes a malformed transaction field. It is produced while
// ingesting data and never by the analytics code.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
