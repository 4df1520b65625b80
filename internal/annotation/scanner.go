package annotation

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"

	"cachediff/internal/source"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokEquals
	tokComma
	tokDot
	tokInvalid
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of annotation"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokEquals:
		return "`=`"
	case tokComma:
		return "`,`"
	case tokDot:
		return "`.`"
	case tokInvalid:
		return "invalid token"
	}
	return "unknown"
}

type annToken struct {
	Kind tokenKind
	Text string // raw lexeme; for tokString still quoted
	Span source.Span
}

// scanner tokenizes one annotation block payload. Spans are file-absolute:
// the block's base offset is added to every in-payload offset up front.
type scanner struct {
	file source.FileID
	src  string
	base uint32
	off  uint32
	look *annToken // one-token lookahead buffer
}

func newScanner(block Block) *scanner {
	return &scanner{
		file: block.Span.File,
		src:  block.Text,
		base: block.Span.Start,
	}
}

func (s *scanner) eof() bool {
	return int(s.off) >= len(s.src)
}

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.off]
}

func (s *scanner) span(start uint32) source.Span {
	return source.At(s.file, start, s.off).ShiftRight(s.base)
}

func (s *scanner) skipSpaces() {
	for !s.eof() {
		switch s.peek() {
		case ' ', '\t':
			s.off++
		default:
			return
		}
	}
}

// next returns the next token, honouring the lookahead buffer.
func (s *scanner) next() annToken {
	if s.look != nil {
		tok := *s.look
		s.look = nil
		return tok
	}
	return s.scan()
}

func (s *scanner) peekToken() annToken {
	if s.look == nil {
		tok := s.scan()
		s.look = &tok
	}
	return *s.look
}

func (s *scanner) peekEquals() bool { return s.peekToken().Kind == tokEquals }

func (s *scanner) peekDot() bool { return s.peekToken().Kind == tokDot }

// scan produces the next raw token. Invalid input yields exactly one
// tokInvalid covering the offending byte; the scanner does not try to
// resynchronize because block parsing stops at the first syntax failure.
func (s *scanner) scan() annToken {
	s.skipSpaces()
	start := s.off
	if s.eof() {
		return annToken{Kind: tokEOF, Span: s.span(start)}
	}

	ch := s.peek()
	switch {
	case ch == '=':
		s.off++
		return annToken{Kind: tokEquals, Text: "=", Span: s.span(start)}
	case ch == ',':
		s.off++
		return annToken{Kind: tokComma, Text: ",", Span: s.span(start)}
	case ch == '.':
		s.off++
		return annToken{Kind: tokDot, Text: ".", Span: s.span(start)}
	case ch == '"':
		return s.scanString(start)
	case isIdentStart(ch):
		return s.scanIdent(start)
	default:
		s.off++
		return annToken{Kind: tokInvalid, Text: s.src[start:s.off], Span: s.span(start)}
	}
}

func (s *scanner) scanIdent(start uint32) annToken {
	for !s.eof() && isIdentContinue(s.peek()) {
		s.off++
	}
	return annToken{Kind: tokIdent, Text: s.src[start:s.off], Span: s.span(start)}
}

func (s *scanner) scanString(start uint32) annToken {
	s.off++ // opening quote
	for !s.eof() {
		switch s.peek() {
		case '\\':
			s.off++
			if !s.eof() {
				s.off++
			}
		case '"':
			s.off++
			return annToken{Kind: tokString, Text: s.src[start:s.off], Span: s.span(start)}
		default:
			s.off++
		}
	}
	// ran off the end of the block
	return annToken{Kind: tokInvalid, Text: s.src[start:s.off], Span: s.span(start)}
}

// unquote decodes a tokString lexeme into its value.
func unquote(raw string) (string, error) {
	return strconv.Unquote(raw)
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

// mustUint32 converts a non-negative int to uint32, panicking on overflow.
// Annotation payloads are single comment lines, so overflow means a bug.
func mustUint32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return v
}
