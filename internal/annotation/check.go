package annotation

import (
	"fmt"

	"cachediff/internal/diag"
)

// Kind constrains the kind-only discriminants used for bookkeeping.
type Kind interface {
	comparable
	fmt.Stringer
}

// Attr is any parsed attribute that can expose its discriminant.
type Attr[K Kind] interface {
	Discriminant() K
}

// Unique guarantees every attribute kind is specified at most once in one
// scope. A repeated kind reports two diagnostics sharing one combined
// report: one at the duplicate's span, one at the first occurrence's span.
// The returned map holds the last parsed value per kind; when duplicates
// were reported the map contents are only used to keep later checks
// running, never for codegen.
func Unique[K Kind, T Attr[K]](attrs []WithSpan[T], bag *diag.Bag) map[K]WithSpan[T] {
	seen := make(map[K]WithSpan[T], len(attrs))
	for _, attr := range attrs {
		key := attr.Value.Discriminant()
		if prior, dup := seen[key]; dup {
			bag.Add(diag.NewError(diag.ValDuplicate, attr.Span,
				fmt.Sprintf("duplicate attribute: `%s`", key)).
				WithFix("remove the duplicate", diag.FixEdit{Span: attr.Span}))
			bag.Add(diag.NewError(diag.ValDuplicateFirst, prior.Span,
				fmt.Sprintf("previously `%s` defined here", key)))
		}
		seen[key] = attr
	}
	return seen
}

// CheckExclusive errors when the exclusive kind co-occurs with any other
// kind in the same scope. Every attribute in the scope contributes one
// diagnostic: the exclusive attribute itself is phrased as a removal hint
// and reported first, the co-occurring attributes each name the conflict.
//
// Repeated kinds are not this check's business; Unique handles those, and
// both checks run regardless of the other's outcome.
func CheckExclusive[K Kind, T Attr[K]](exclusive K, attrs []WithSpan[T], bag *diag.Bag) {
	var others []K
	sawExclusive := false
	for _, attr := range attrs {
		key := attr.Value.Discriminant()
		if key == exclusive {
			sawExclusive = true
			continue
		}
		if !containsKind(others, key) {
			others = append(others, key)
		}
	}
	if !sawExclusive || len(others) == 0 {
		return
	}

	otherKeys := quoteJoin(others)
	for _, attr := range attrs {
		if attr.Value.Discriminant() == exclusive {
			bag.Add(diag.NewError(diag.ValExclusive, attr.Span,
				fmt.Sprintf("cannot be used with other attributes. Remove either `%s` or %s",
					exclusive, otherKeys)))
		}
	}
	for _, attr := range attrs {
		if attr.Value.Discriminant() != exclusive {
			bag.Add(diag.NewError(diag.ValExclusiveOther, attr.Span,
				fmt.Sprintf("cannot be used with //%s:%s", Namespace, exclusive)))
		}
	}
}

func containsKind[K Kind](keys []K, key K) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
