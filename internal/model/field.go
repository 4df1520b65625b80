package model

import (
	"go/ast"

	"cachediff/internal/annotation"
	"cachediff/internal/diag"
)

// field resolves one ast.Field into models, one per declared name.
// Returns ok=false when any diagnostic was added; already-resolved models
// are still returned so callers can keep reporting container-level
// problems against them.
func (b *Builder) field(f *ast.Field, bag *diag.Bag) ([]FieldModel, bool) {
	local := diag.NewBag(int(bag.Cap()))
	defer bag.Merge(local)

	if len(f.Names) == 0 {
		local.Add(diag.NewError(diag.ShpUnnamedField, b.span(f),
			"cachediff can only be used on structs with named fields"))
		return nil, false
	}

	attrs := annotation.ParseFieldAttrs(b.blocks(f.Doc, f.Comment), local)
	annotation.CheckExclusive(annotation.FieldIgnore, attrs, local)
	annotation.Unique(attrs, local)

	var (
		ignore  *string
		rename  string
		renamed bool
		display Display
	)
	for _, attr := range attrs {
		switch attr.Value.Kind {
		case annotation.FieldIgnore:
			reason := attr.Value.Value
			ignore = &reason
		case annotation.FieldRename:
			rename = normalizeDisplayName(attr.Value.Value)
			renamed = true
		case annotation.FieldDisplay:
			display = Display{Kind: DisplayFunc, Path: attr.Value.Value, Span: attr.Span}
		}
	}
	if display.Kind == DisplayDefault {
		if bd, ok := builtinFor(f.Type); ok {
			display = Display{Kind: DisplayBuiltin, Method: bd.method}
		}
	}

	models := make([]FieldModel, 0, len(f.Names))
	for _, name := range f.Names {
		displayName := displayNameFor(name.Name)
		if renamed {
			displayName = rename
		}
		models = append(models, FieldModel{
			Name:        name.Name,
			DisplayName: displayName,
			Ignore:      ignore,
			Display:     display,
			Span:        b.span(name),
		})
	}
	return models, !local.HasErrors()
}
