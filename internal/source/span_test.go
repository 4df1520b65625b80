package source

import (
	"testing"
)

func TestSpan_Cover(t *testing.T) {
	tests := []struct {
		name     string
		span     Span
		other    Span
		expected Span
	}{
		{
			name:     "disjoint spans merge into hull",
			span:     Span{File: 1, Start: 10, End: 20},
			other:    Span{File: 1, Start: 30, End: 40},
			expected: Span{File: 1, Start: 10, End: 40},
		},
		{
			name:     "contained span changes nothing",
			span:     Span{File: 1, Start: 10, End: 40},
			other:    Span{File: 1, Start: 15, End: 20},
			expected: Span{File: 1, Start: 10, End: 40},
		},
		{
			name:     "other starts earlier",
			span:     Span{File: 1, Start: 10, End: 20},
			other:    Span{File: 1, Start: 5, End: 15},
			expected: Span{File: 1, Start: 5, End: 20},
		},
		{
			name:     "different file is ignored",
			span:     Span{File: 1, Start: 10, End: 20},
			other:    Span{File: 2, Start: 0, End: 100},
			expected: Span{File: 1, Start: 10, End: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.span.Cover(tt.other)
			if result != tt.expected {
				t.Errorf("Cover() = %+v, want %+v", result, tt.expected)
			}
		})
	}
}

func TestSpan_ShiftRight(t *testing.T) {
	span := Span{File: 3, Start: 4, End: 9}
	got := span.ShiftRight(100)
	want := Span{File: 3, Start: 104, End: 109}
	if got != want {
		t.Errorf("ShiftRight() = %+v, want %+v", got, want)
	}
}

func TestSpan_EmptyAndLen(t *testing.T) {
	empty := Span{File: 0, Start: 7, End: 7}
	if !empty.Empty() {
		t.Errorf("expected %v to be empty", empty)
	}
	if empty.Len() != 0 {
		t.Errorf("empty span length = %d, want 0", empty.Len())
	}

	span := Span{File: 0, Start: 2, End: 12}
	if span.Empty() {
		t.Errorf("expected %v to be non-empty", span)
	}
	if span.Len() != 10 {
		t.Errorf("span length = %d, want 10", span.Len())
	}
}

func TestSpan_String(t *testing.T) {
	span := Span{File: 2, Start: 5, End: 9}
	if got := span.String(); got != "2:5-9" {
		t.Errorf("String() = %q, want %q", got, "2:5-9")
	}
}
