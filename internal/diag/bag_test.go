package diag

import (
	"testing"

	"cachediff/internal/source"
)

func TestBag_PreservesInsertionOrder(t *testing.T) {
	bag := NewBag(10)
	bag.Add(NewError(ValDuplicate, source.At(0, 10, 16), "duplicate attribute: `rename`"))
	bag.Add(NewError(ValDuplicateFirst, source.At(0, 2, 8), "previously `rename` defined here"))

	items := bag.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(items))
	}
	if items[0].Code != ValDuplicate || items[1].Code != ValDuplicateFirst {
		t.Fatalf("order not preserved: %v then %v", items[0].Code, items[1].Code)
	}
}

func TestBag_CapDropsOverflow(t *testing.T) {
	bag := NewBag(1)
	if !bag.Add(NewError(AttUnknownKey, source.Span{}, "first")) {
		t.Fatalf("first Add should succeed")
	}
	if bag.Add(NewError(AttUnknownKey, source.Span{}, "second")) {
		t.Fatalf("second Add should be dropped at cap")
	}
	if bag.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", bag.Len())
	}
}

func TestBag_HasErrorsAndWarnings(t *testing.T) {
	bag := NewBag(10)
	if bag.HasErrors() || bag.HasWarnings() {
		t.Fatalf("empty bag must have no findings")
	}

	bag.Add(New(SevWarning, AttInfo, source.Span{}, "heads up"))
	if bag.HasErrors() {
		t.Fatalf("warning must not count as error")
	}
	if !bag.HasWarnings() {
		t.Fatalf("expected HasWarnings")
	}

	bag.Add(NewError(ValExclusive, source.Span{}, "boom"))
	if !bag.HasErrors() {
		t.Fatalf("expected HasErrors")
	}
}

func TestBag_Merge(t *testing.T) {
	a := NewBag(1)
	a.Add(NewError(AttUnknownKey, source.Span{}, "a"))

	b := NewBag(2)
	b.Add(NewError(ValDuplicate, source.Span{}, "b1"))
	b.Add(NewError(ValDuplicateFirst, source.Span{}, "b2"))

	a.Merge(b)
	if a.Len() != 3 {
		t.Fatalf("merged Len() = %d, want 3", a.Len())
	}
	if a.Items()[2].Message != "b2" {
		t.Fatalf("merge order broken: %q", a.Items()[2].Message)
	}
}

func TestCode_ID(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{AttUnknownKey, "ATT1001"},
		{ValDuplicate, "VAL2001"},
		{ShpNotNamedStruct, "SHP3001"},
		{IOLoadFileError, "IOE4001"},
		{GenFormatFailed, "GEN5001"},
		{CfgInvalidManifest, "CFG6001"},
		{UnknownCode, "E0000"},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.want {
			t.Errorf("ID(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestBag_CapClamped(t *testing.T) {
	// 1<<16 would truncate to zero and silently drop everything
	bag := NewBag(1 << 16)
	if !bag.Add(NewError(ValDuplicate, source.At(0, 0, 1), "kept")) {
		t.Fatalf("diagnostic dropped by an oversized cap")
	}
	if bag.Cap() != 65535 {
		t.Errorf("cap = %d, want clamped to 65535", bag.Cap())
	}
	if !bag.HasErrors() {
		t.Errorf("error diagnostic lost")
	}

	if NewBag(-1).Cap() != 0 {
		t.Errorf("negative cap must clamp to zero")
	}
}

func TestBag_MergeCapSaturates(t *testing.T) {
	a := NewBag(10)
	b := NewBag(10)
	b.Add(NewError(ValDuplicate, source.At(0, 0, 1), "from b"))
	a.Merge(b)
	if a.Len() != 1 {
		t.Fatalf("merge lost the diagnostic: len = %d", a.Len())
	}
	if a.Cap() != 10 {
		t.Errorf("cap grew without need: %d", a.Cap())
	}
}
