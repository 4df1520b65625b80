package annotation

import (
	"testing"

	"cachediff/internal/diag"
	"cachediff/internal/source"
)

func fieldAttr(kind FieldKind, value string, start, end uint32) WithSpan[FieldAttr] {
	return WithSpan[FieldAttr]{
		Value: FieldAttr{Kind: kind, Value: value},
		Span:  source.At(0, start, end),
	}
}

func TestUnique_NoDuplicates(t *testing.T) {
	bag := diag.NewBag(10)
	attrs := []WithSpan[FieldAttr]{
		fieldAttr(FieldRename, "a", 0, 6),
		fieldAttr(FieldDisplay, "f", 10, 17),
	}
	seen := Unique(attrs, bag)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if len(seen) != 2 {
		t.Fatalf("seen = %+v", seen)
	}
	if seen[FieldRename].Value.Value != "a" {
		t.Errorf("rename value = %+v", seen[FieldRename])
	}
}

func TestUnique_DuplicateReportsBothSpans(t *testing.T) {
	bag := diag.NewBag(10)
	attrs := []WithSpan[FieldAttr]{
		fieldAttr(FieldRename, "foo", 0, 6),
		fieldAttr(FieldRename, "bar", 20, 26),
	}
	Unique(attrs, bag)

	if bag.Len() != 2 {
		t.Fatalf("expected exactly 2 diagnostics, got %d: %+v", bag.Len(), bag.Items())
	}
	dup, first := bag.Items()[0], bag.Items()[1]

	if dup.Code != diag.ValDuplicate {
		t.Errorf("first diagnostic code = %v", dup.Code)
	}
	if dup.Message != "duplicate attribute: `rename`" {
		t.Errorf("duplicate message = %q", dup.Message)
	}
	if dup.Primary != source.At(0, 20, 26) {
		t.Errorf("duplicate span = %v, want the second occurrence", dup.Primary)
	}

	if first.Code != diag.ValDuplicateFirst {
		t.Errorf("second diagnostic code = %v", first.Code)
	}
	if first.Message != "previously `rename` defined here" {
		t.Errorf("previously message = %q", first.Message)
	}
	if first.Primary != source.At(0, 0, 6) {
		t.Errorf("previously span = %v, want the first occurrence", first.Primary)
	}
}

func TestUnique_TripleReportsTwoPairs(t *testing.T) {
	bag := diag.NewBag(10)
	attrs := []WithSpan[FieldAttr]{
		fieldAttr(FieldIgnore, "a", 0, 6),
		fieldAttr(FieldIgnore, "b", 10, 16),
		fieldAttr(FieldIgnore, "c", 20, 26),
	}
	Unique(attrs, bag)
	if bag.Len() != 4 {
		t.Fatalf("expected 4 diagnostics (two pairs), got %d", bag.Len())
	}
	// the second pair points at the second occurrence as "previously"
	if bag.Items()[3].Primary != source.At(0, 10, 16) {
		t.Errorf("second pair previously-span = %v", bag.Items()[3].Primary)
	}
}

func TestCheckExclusive_Violation(t *testing.T) {
	bag := diag.NewBag(10)
	attrs := []WithSpan[FieldAttr]{
		fieldAttr(FieldRename, "v", 0, 6),
		fieldAttr(FieldDisplay, "f", 10, 17),
		fieldAttr(FieldIgnore, "default", 20, 26),
	}
	CheckExclusive(FieldIgnore, attrs, bag)

	if bag.Len() != 3 {
		t.Fatalf("expected 3 diagnostics (one per attribute), got %d: %+v", bag.Len(), bag.Items())
	}

	// the exclusive attribute reports first, phrased as a removal hint
	excl := bag.Items()[0]
	if excl.Code != diag.ValExclusive {
		t.Errorf("exclusive code = %v", excl.Code)
	}
	if excl.Primary != source.At(0, 20, 26) {
		t.Errorf("exclusive span = %v", excl.Primary)
	}
	want := "cannot be used with other attributes. Remove either `ignore` or `rename`, `display`"
	if excl.Message != want {
		t.Errorf("exclusive message = %q\nwant             %q", excl.Message, want)
	}

	for i, d := range bag.Items()[1:] {
		if d.Code != diag.ValExclusiveOther {
			t.Errorf("other %d code = %v", i, d.Code)
		}
		if d.Message != "cannot be used with //cache_diff:ignore" {
			t.Errorf("other %d message = %q", i, d.Message)
		}
	}
}

func TestCheckExclusive_NoViolation(t *testing.T) {
	tests := []struct {
		name  string
		attrs []WithSpan[FieldAttr]
	}{
		{
			name:  "exclusive alone",
			attrs: []WithSpan[FieldAttr]{fieldAttr(FieldIgnore, "default", 0, 6)},
		},
		{
			name: "others without the exclusive",
			attrs: []WithSpan[FieldAttr]{
				fieldAttr(FieldRename, "v", 0, 6),
				fieldAttr(FieldDisplay, "f", 10, 17),
			},
		},
		{
			name:  "empty scope",
			attrs: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bag := diag.NewBag(10)
			CheckExclusive(FieldIgnore, tt.attrs, bag)
			if bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %+v", bag.Items())
			}
		})
	}
}

func TestCheckExclusive_RunsIndependentlyOfUnique(t *testing.T) {
	// duplicated rename together with ignore: both checks fire,
	// neither silences the other
	bag := diag.NewBag(10)
	attrs := []WithSpan[FieldAttr]{
		fieldAttr(FieldRename, "a", 0, 6),
		fieldAttr(FieldRename, "b", 10, 16),
		fieldAttr(FieldIgnore, "default", 20, 26),
	}
	CheckExclusive(FieldIgnore, attrs, bag)
	Unique(attrs, bag)

	var exclusive, duplicates int
	for _, d := range bag.Items() {
		switch d.Code {
		case diag.ValExclusive, diag.ValExclusiveOther:
			exclusive++
		case diag.ValDuplicate, diag.ValDuplicateFirst:
			duplicates++
		}
	}
	if exclusive != 3 {
		t.Errorf("exclusive diagnostics = %d, want 3", exclusive)
	}
	if duplicates != 2 {
		t.Errorf("duplicate diagnostics = %d, want 2", duplicates)
	}
}
