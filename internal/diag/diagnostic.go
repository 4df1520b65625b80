package diag

import (
	"cachediff/internal/source"
)

// Note is a secondary message anchored to its own span, shown under the
// primary diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit is a single text replacement; an empty NewText deletes the span.
type FixEdit struct {
	Span    source.Span
	NewText string
}

// Fix is a suggested correction made of one or more edits.
type Fix struct {
	Title string
	Edits []FixEdit
}

// Diagnostic is one finding attached to a precise source span.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}
