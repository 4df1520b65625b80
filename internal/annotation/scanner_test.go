package annotation

import (
	"testing"

	"cachediff/internal/source"
)

func scanAll(t *testing.T, payload string) []annToken {
	t.Helper()
	sc := newScanner(Block{Text: payload, Span: source.At(0, 0, mustUint32(len(payload)))})
	var toks []annToken
	for {
		tok := sc.next()
		toks = append(toks, tok)
		if tok.Kind == tokEOF || tok.Kind == tokInvalid {
			return toks
		}
	}
}

func TestScanner_Tokens(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		kinds   []tokenKind
	}{
		{
			name:    "bare key",
			payload: "ignore",
			kinds:   []tokenKind{tokIdent, tokEOF},
		},
		{
			name:    "key value pair",
			payload: `rename = "Ruby version"`,
			kinds:   []tokenKind{tokIdent, tokEquals, tokString, tokEOF},
		},
		{
			name:    "comma separated list",
			payload: `ignore, display = f`,
			kinds:   []tokenKind{tokIdent, tokComma, tokIdent, tokEquals, tokIdent, tokEOF},
		},
		{
			name:    "dotted path",
			payload: "display = sanitize.Short",
			kinds:   []tokenKind{tokIdent, tokEquals, tokIdent, tokDot, tokIdent, tokEOF},
		},
		{
			name:    "unexpected byte",
			payload: "rename @",
			kinds:   []tokenKind{tokIdent, tokInvalid},
		},
		{
			name:    "unterminated string",
			payload: `rename = "oops`,
			kinds:   []tokenKind{tokIdent, tokEquals, tokInvalid},
		},
		{
			name:    "empty payload",
			payload: "   ",
			kinds:   []tokenKind{tokEOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := scanAll(t, tt.payload)
			if len(toks) != len(tt.kinds) {
				t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(tt.kinds), toks)
			}
			for i, k := range tt.kinds {
				if toks[i].Kind != k {
					t.Errorf("token %d = %v, want %v", i, toks[i].Kind, k)
				}
			}
		})
	}
}

func TestScanner_SpansAreFileAbsolute(t *testing.T) {
	// payload starts at byte 13 of the imaginary file
	payload := `rename = "x"`
	sc := newScanner(Block{Text: payload, Span: source.At(2, 13, 13+mustUint32(len(payload)))})

	key := sc.next()
	if key.Text != "rename" {
		t.Fatalf("unexpected first token: %+v", key)
	}
	want := source.At(2, 13, 19)
	if key.Span != want {
		t.Errorf("key span = %v, want %v", key.Span, want)
	}

	eq := sc.next()
	if eq.Span.Start != 20 || eq.Span.End != 21 {
		t.Errorf("equals span = %v", eq.Span)
	}
}

func TestScanner_StringEscapes(t *testing.T) {
	toks := scanAll(t, `rename = "say \"hi\""`)
	str := toks[2]
	if str.Kind != tokString {
		t.Fatalf("expected string token, got %+v", str)
	}
	value, err := unquote(str.Text)
	if err != nil {
		t.Fatalf("unquote: %v", err)
	}
	if value != `say "hi"` {
		t.Errorf("value = %q", value)
	}
}

func TestScanner_Lookahead(t *testing.T) {
	sc := newScanner(Block{Text: "ignore = \"custom\"", Span: source.At(0, 0, 17)})
	sc.next() // ignore
	if !sc.peekEquals() {
		t.Fatalf("expected peekEquals")
	}
	// peek must not consume
	if tok := sc.next(); tok.Kind != tokEquals {
		t.Fatalf("lookahead consumed the token: %+v", tok)
	}
}
