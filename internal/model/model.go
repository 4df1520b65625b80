// Package model builds the validated per-field and per-container models
// that codegen consumes. It resolves display names, ignore status and
// stringifier choices for every field of an annotated struct, and applies
// the container-wide checks (custom hook wiring, at least one active
// field). All validation accumulates into a diag.Bag; a declaration with a
// non-empty accumulator never reaches codegen.
package model

import (
	"go/ast"
	"go/token"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"

	"cachediff/internal/annotation"
	"cachediff/internal/source"
)

// DisplayKind selects how a field value is rendered in the diff output.
type DisplayKind uint8

const (
	// DisplayDefault renders through the universal `%v` formatting.
	DisplayDefault DisplayKind = iota
	// DisplayFunc renders through an author-supplied function path.
	DisplayFunc
	// DisplayBuiltin renders through the built-in method for a known
	// opaque type (see builtin.go).
	DisplayBuiltin
)

// Display is a field's resolved stringification strategy.
type Display struct {
	Kind   DisplayKind
	Path   string      // DisplayFunc: the function path
	Method string      // DisplayBuiltin: zero-argument method to call
	Span   source.Span // span of the `display` attribute, zero for defaults
}

// FieldModel is one declared field's resolved configuration.
type FieldModel struct {
	// Name is the Go identifier of the field.
	Name string
	// DisplayName is what the user sees when this field differs and
	// invalidates the cache; `RubyVersion` becomes "ruby version".
	DisplayName string
	// Ignore is nil when the field participates in the diff; otherwise
	// it holds the ignore reason ("default" unless the author supplied
	// one; "custom" is reserved, see ContainerModel).
	Ignore *string
	// Display is the resolved stringifier.
	Display Display
	// Span points at the field identifier for diagnostics.
	Span source.Span
}

// Ignored reports whether the field is excluded from the diff.
func (f *FieldModel) Ignored() bool { return f.Ignore != nil }

// TypeParams carries a declaration's generic parameters through to
// codegen unchanged.
type TypeParams struct {
	Decl string // raw source text including brackets, e.g. "[T comparable]"
	Use  string // bracketed parameter names for the receiver, e.g. "[T]"
}

// ContainerModel is the whole declaration's resolved configuration.
type ContainerModel struct {
	// Name is the struct type's identifier.
	Name string
	// TypeParams is empty for non-generic declarations.
	TypeParams TypeParams
	// Custom is the optional path of a two-argument (old, current) hook
	// returning change descriptions; "" when absent.
	Custom string
	// CustomSpan points at the `custom` attribute when present.
	CustomSpan source.Span
	// Fields holds the active fields only, in declaration order. Never
	// empty after validation succeeds.
	Fields []FieldModel
	// Span points at the type identifier for diagnostics.
	Span source.Span
}

// Builder resolves go/ast declarations from one parsed file into models.
type Builder struct {
	fset   *token.FileSet
	files  *source.FileSet
	fileID source.FileID
}

// NewBuilder wires a Builder to the token file set the file was parsed
// with and the source file set holding its content.
func NewBuilder(fset *token.FileSet, files *source.FileSet, fileID source.FileID) *Builder {
	return &Builder{fset: fset, files: files, fileID: fileID}
}

// span converts a node's token positions into a byte span.
func (b *Builder) span(n ast.Node) source.Span {
	start, err := safecast.Conv[uint32](b.fset.Position(n.Pos()).Offset)
	if err != nil {
		panic(err)
	}
	end, err := safecast.Conv[uint32](b.fset.Position(n.End()).Offset)
	if err != nil {
		panic(err)
	}
	return source.At(b.fileID, start, end)
}

// blocks collects cache_diff annotation blocks from the given comment
// groups, in source order. Nil groups and foreign comments are skipped.
func (b *Builder) blocks(groups ...*ast.CommentGroup) []annotation.Block {
	var out []annotation.Block
	for _, group := range groups {
		if group == nil {
			continue
		}
		for _, c := range group.List {
			if block, ok := annotation.ExtractBlock(c.Text, b.span(c)); ok {
				out = append(out, block)
			}
		}
	}
	return out
}

// HasAnnotations reports whether the declaration or any of its fields
// carries at least one cache_diff block. Used for target discovery when
// no explicit type list is given.
func (b *Builder) HasAnnotations(decl *ast.GenDecl, spec *ast.TypeSpec) bool {
	if len(b.blocks(decl.Doc, spec.Doc, spec.Comment)) > 0 {
		return true
	}
	st, ok := spec.Type.(*ast.StructType)
	if !ok || st.Fields == nil {
		return false
	}
	for _, field := range st.Fields.List {
		if len(b.blocks(field.Doc, field.Comment)) > 0 {
			return true
		}
	}
	return false
}

// displayNameFor derives the default display name from a Go identifier:
// word boundaries (camel case humps and underscores) become spaces and
// everything is lower-cased. `RubyVersion` -> "ruby version".
func displayNameFor(ident string) string {
	var words []string
	var word []rune
	flush := func() {
		if len(word) > 0 {
			words = append(words, strings.ToLower(string(word)))
			word = word[:0]
		}
	}

	runes := []rune(ident)
	for i, r := range runes {
		switch {
		case r == '_':
			flush()
		case isUpper(r) && i > 0 && (!isUpper(runes[i-1]) || (i+1 < len(runes) && isLower(runes[i+1]))):
			// lower->Upper boundary, or the last capital of an
			// acronym followed by a lower-case word (HTTPServer)
			flush()
			word = append(word, r)
		default:
			word = append(word, r)
		}
	}
	flush()
	return strings.Join(words, " ")
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }

// normalizeDisplayName brings author-supplied rename values into NFC so
// the generated output is byte-stable regardless of how the source file
// spelled combining characters.
func normalizeDisplayName(s string) string {
	return norm.NFC.String(s)
}
