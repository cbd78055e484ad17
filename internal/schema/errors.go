package schema

import (
	"fmt"
	"strings"
)

// SchemaError reports a missing or mistyped field discovered while decoding
// the resolved tree into the typed configuration.
type SchemaError struct {
	Path   string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("schema error at %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("schema error: %s", e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ValidationError is a single invariant violation.
type ValidationError struct {
	Field   string // dotted configuration path
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every violation found in one validation pass,
// so a user sees the complete problem set in a single run.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("%d validation error(s): %s", len(e), strings.Join(msgs, "; "))
}
