package annotation

import (
	"fmt"
	"strings"

	"cachediff/internal/diag"
	"cachediff/internal/source"
)

// Block is the payload of one `//cache_diff:` directive comment: the text
// after the namespace marker plus its file-absolute span.
type Block struct {
	Text string
	Span source.Span
}

// marker is the comment prefix that opens an annotation block.
const marker = "//" + Namespace + ":"

// ExtractBlock inspects one line comment. When the comment carries the
// cache_diff namespace its payload becomes a Block; any other comment is
// ignored entirely.
func ExtractBlock(text string, span source.Span) (Block, bool) {
	if !strings.HasPrefix(text, marker) {
		return Block{}, false
	}
	payload := text[len(marker):]
	start := span.Start + mustUint32(len(marker))
	return Block{
		Text: payload,
		Span: source.At(span.File, start, start+mustUint32(len(payload))),
	}, true
}

// ParseFieldAttrs parses every block attached to one field. A malformed
// block contributes exactly one diagnostic (its first syntax failure) and
// none of its attributes; other blocks still parse, so several bad blocks
// on the same field each surface their own error.
func ParseFieldAttrs(blocks []Block, bag *diag.Bag) []WithSpan[FieldAttr] {
	var attrs []WithSpan[FieldAttr]
	for _, block := range blocks {
		parsed, ok := parseBlock(block, bag, parseFieldAttr)
		if !ok {
			continue
		}
		attrs = append(attrs, parsed...)
	}
	return attrs
}

// ParseContainerAttrs is ParseFieldAttrs for the container scope.
func ParseContainerAttrs(blocks []Block, bag *diag.Bag) []WithSpan[ContainerAttr] {
	var attrs []WithSpan[ContainerAttr]
	for _, block := range blocks {
		parsed, ok := parseBlock(block, bag, parseContainerAttr)
		if !ok {
			continue
		}
		attrs = append(attrs, parsed...)
	}
	return attrs
}

// parseBlock parses one comma-separated attribute list. The first failure
// aborts the block: its partial results are dropped, mirroring the
// all-or-nothing treatment of a single annotation block.
func parseBlock[T any](block Block, bag *diag.Bag, one func(*scanner, annToken, *diag.Bag) (WithSpan[T], bool)) ([]WithSpan[T], bool) {
	sc := newScanner(block)
	var attrs []WithSpan[T]

	tok := sc.next()
	if tok.Kind == tokEOF {
		// empty block; contributes nothing
		return nil, true
	}
	for {
		attr, ok := one(sc, tok, bag)
		if !ok {
			return nil, false
		}
		attrs = append(attrs, attr)

		sep := sc.next()
		switch sep.Kind {
		case tokEOF:
			return attrs, true
		case tokComma:
			tok = sc.next()
			if tok.Kind == tokEOF {
				// trailing comma is fine
				return attrs, true
			}
		default:
			bag.Add(diag.NewError(diag.AttUnexpectedToken, sep.Span,
				fmt.Sprintf("expected `,` between attributes, found %s", describe(sep))))
			return nil, false
		}
	}
}

// parseFieldAttr parses one field-scope attribute starting at key.
// Grammar: rename = <string> | display = <path> | ignore [= <string>].
func parseFieldAttr(sc *scanner, key annToken, bag *diag.Bag) (WithSpan[FieldAttr], bool) {
	kind, ok := expectFieldKey(key, bag)
	if !ok {
		return WithSpan[FieldAttr]{}, false
	}

	switch kind {
	case FieldRename:
		value, ok := expectEqualsString(sc, key, kind, bag)
		if !ok {
			return WithSpan[FieldAttr]{}, false
		}
		return WithSpan[FieldAttr]{Value: FieldAttr{Kind: kind, Value: value}, Span: key.Span}, true

	case FieldDisplay:
		path, ok := expectEqualsPath(sc, key, kind, bag)
		if !ok {
			return WithSpan[FieldAttr]{}, false
		}
		return WithSpan[FieldAttr]{Value: FieldAttr{Kind: kind, Value: path}, Span: key.Span}, true

	case FieldIgnore:
		// `ignore` is the only key that may appear bare
		if !sc.peekEquals() {
			return WithSpan[FieldAttr]{Value: FieldAttr{Kind: kind, Value: DefaultIgnoreReason}, Span: key.Span}, true
		}
		sc.next() // consume `=`
		reason, ok := expectString(sc, kind, bag)
		if !ok {
			return WithSpan[FieldAttr]{}, false
		}
		return WithSpan[FieldAttr]{Value: FieldAttr{Kind: kind, Value: reason}, Span: key.Span}, true
	}
	return WithSpan[FieldAttr]{}, false
}

// parseContainerAttr parses one container-scope attribute starting at key.
// Grammar: custom = <path>.
func parseContainerAttr(sc *scanner, key annToken, bag *diag.Bag) (WithSpan[ContainerAttr], bool) {
	kind, ok := expectContainerKey(key, bag)
	if !ok {
		return WithSpan[ContainerAttr]{}, false
	}

	path, ok := expectEqualsPath(sc, key, kind, bag)
	if !ok {
		return WithSpan[ContainerAttr]{}, false
	}
	return WithSpan[ContainerAttr]{Value: ContainerAttr{Kind: kind, Path: path}, Span: key.Span}, true
}

func expectFieldKey(key annToken, bag *diag.Bag) (FieldKind, bool) {
	if key.Kind != tokIdent {
		bag.Add(diag.NewError(diag.AttUnexpectedToken, key.Span,
			fmt.Sprintf("expected attribute name, found %s", describe(key))))
		return 0, false
	}
	kind, ok := lookupFieldKind(key.Text)
	if !ok {
		bag.Add(diag.NewError(diag.AttUnknownKey, key.Span,
			fmt.Sprintf("unknown %s attribute: `%s`. Must be one of %s",
				Namespace, key.Text, quoteJoin(fieldKinds))))
		return 0, false
	}
	return kind, true
}

func expectContainerKey(key annToken, bag *diag.Bag) (ContainerKind, bool) {
	if key.Kind != tokIdent {
		bag.Add(diag.NewError(diag.AttUnexpectedToken, key.Span,
			fmt.Sprintf("expected attribute name, found %s", describe(key))))
		return 0, false
	}
	kind, ok := lookupContainerKind(key.Text)
	if !ok {
		bag.Add(diag.NewError(diag.AttUnknownKey, key.Span,
			fmt.Sprintf("unknown %s attribute: `%s`. Must be one of %s",
				Namespace, key.Text, quoteJoin(containerKinds))))
		return 0, false
	}
	return kind, true
}

func expectEqualsString[K fmt.Stringer](sc *scanner, key annToken, kind K, bag *diag.Bag) (string, bool) {
	if !expectEquals(sc, key, kind, bag) {
		return "", false
	}
	return expectString(sc, kind, bag)
}

func expectEqualsPath[K fmt.Stringer](sc *scanner, key annToken, kind K, bag *diag.Bag) (string, bool) {
	if !expectEquals(sc, key, kind, bag) {
		return "", false
	}
	return expectPath(sc, kind, bag)
}

func expectEquals[K fmt.Stringer](sc *scanner, key annToken, kind K, bag *diag.Bag) bool {
	tok := sc.next()
	if tok.Kind != tokEquals {
		bag.Add(diag.NewError(diag.AttExpectEquals, key.Span,
			fmt.Sprintf("`%s` requires a value: `%s = ...`", kind, kind)))
		return false
	}
	return true
}

func expectString[K fmt.Stringer](sc *scanner, kind K, bag *diag.Bag) (string, bool) {
	tok := sc.next()
	if tok.Kind != tokString {
		code := diag.AttExpectString
		if tok.Kind == tokInvalid && strings.HasPrefix(tok.Text, "\"") {
			code = diag.AttUnterminatedString
		}
		bag.Add(diag.NewError(code, tok.Span,
			fmt.Sprintf("`%s` expects a quoted string, found %s", kind, describe(tok))))
		return "", false
	}
	value, err := unquote(tok.Text)
	if err != nil {
		bag.Add(diag.NewError(diag.AttExpectString, tok.Span,
			fmt.Sprintf("`%s` has a malformed string value", kind)))
		return "", false
	}
	return value, true
}

// expectPath parses a function reference: ident (`.` ident)*.
func expectPath[K fmt.Stringer](sc *scanner, kind K, bag *diag.Bag) (string, bool) {
	tok := sc.next()
	if tok.Kind != tokIdent {
		bag.Add(diag.NewError(diag.AttExpectPath, tok.Span,
			fmt.Sprintf("`%s` expects a function path, found %s", kind, describe(tok))))
		return "", false
	}
	path := tok.Text
	for sc.peekDot() {
		sc.next() // consume `.`
		seg := sc.next()
		if seg.Kind != tokIdent {
			bag.Add(diag.NewError(diag.AttExpectPath, seg.Span,
				fmt.Sprintf("`%s` has a malformed function path: expected identifier after `.`", kind)))
			return "", false
		}
		path += "." + seg.Text
	}
	return path, true
}

func describe(tok annToken) string {
	switch tok.Kind {
	case tokIdent, tokInvalid:
		return fmt.Sprintf("`%s`", tok.Text)
	case tokString:
		return fmt.Sprintf("string %s", tok.Text)
	default:
		return tok.Kind.String()
	}
}
