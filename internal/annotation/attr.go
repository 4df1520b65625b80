// Package annotation recognises the cache_diff attribute grammar: the
// comma-separated `key` / `key = value` lists found in `//cache_diff:`
// directive comments on a struct declaration or on one of its fields.
//
// The package owns the closed per-scope key sets, the scanner over the
// directive payload, and the reusable uniqueness/exclusivity validators.
// Everything reports through a diag.Bag: one pass collects every problem
// it can find, nothing stops at the first failure.
package annotation

import (
	"fmt"
	"strings"

	"cachediff/internal/source"
)

// Namespace is the reserved directive namespace. Only comments starting
// with `//cache_diff:` are inspected; every other comment is ignored.
const Namespace = "cache_diff"

// ToolName is how the generator refers to itself in diagnostics.
const ToolName = "cachediff"

const (
	// DefaultIgnoreReason is recorded for a bare `ignore`.
	DefaultIgnoreReason = "default"
	// IgnoreReasonCustom marks a field as handled by the container's
	// custom hook; it requires `custom` on the container.
	IgnoreReasonCustom = "custom"
)

// FieldKind is the kind-only discriminant of a field-scope attribute.
// Uniqueness and exclusivity bookkeeping key on kinds, never on payloads.
type FieldKind uint8

const (
	FieldRename FieldKind = iota
	FieldDisplay
	FieldIgnore
)

func (k FieldKind) String() string {
	switch k {
	case FieldRename:
		return "rename"
	case FieldDisplay:
		return "display"
	case FieldIgnore:
		return "ignore"
	}
	return "unknown"
}

// fieldKinds lists every field-scope key in declaration order; error
// messages enumerate them in exactly this order.
var fieldKinds = []FieldKind{FieldRename, FieldDisplay, FieldIgnore}

// ContainerKind is the kind-only discriminant of a container-scope attribute.
type ContainerKind uint8

const (
	ContainerCustom ContainerKind = iota
)

func (k ContainerKind) String() string {
	switch k {
	case ContainerCustom:
		return "custom"
	}
	return "unknown"
}

var containerKinds = []ContainerKind{ContainerCustom}

// FieldAttr is one parsed field-scope attribute. Value holds the rename
// text, the display function path, or the ignore reason depending on Kind.
type FieldAttr struct {
	Kind  FieldKind
	Value string
}

// Discriminant returns the attribute kind, ignoring the payload.
func (a FieldAttr) Discriminant() FieldKind { return a.Kind }

// ContainerAttr is one parsed container-scope attribute.
type ContainerAttr struct {
	Kind ContainerKind
	Path string
}

func (a ContainerAttr) Discriminant() ContainerKind { return a.Kind }

// WithSpan pairs a parsed value with the source span it was parsed from,
// so every later diagnostic can point at the exact offending token.
type WithSpan[T any] struct {
	Value T
	Span  source.Span
}

// quoteJoin renders a list of keys as "`a`, `b`, `c`".
func quoteJoin[T fmt.Stringer](keys []T) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, "`"+k.String()+"`")
	}
	return strings.Join(parts, ", ")
}

func lookupFieldKind(name string) (FieldKind, bool) {
	for _, k := range fieldKinds {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

func lookupContainerKind(name string) (ContainerKind, bool) {
	for _, k := range containerKinds {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}
