package model

import (
	"fmt"
	"go/ast"
	"strings"

	"cachediff/internal/annotation"
	"cachediff/internal/diag"
)

// Container resolves a type declaration into a ContainerModel. All
// problems with the declaration accumulate into bag; ok is false when any
// were found. Container-level attribute errors do not stop field
// processing, so one run reports everything wrong with the declaration.
func (b *Builder) Container(decl *ast.GenDecl, spec *ast.TypeSpec, bag *diag.Bag) (ContainerModel, bool) {
	local := diag.NewBag(int(bag.Cap()))
	defer bag.Merge(local)

	model := ContainerModel{
		Name: spec.Name.Name,
		Span: b.span(spec.Name),
	}

	attrs := annotation.ParseContainerAttrs(b.blocks(decl.Doc, spec.Doc, spec.Comment), local)
	annotation.Unique(attrs, local)
	for _, attr := range attrs {
		switch attr.Value.Kind {
		case annotation.ContainerCustom:
			model.Custom = attr.Value.Path
			model.CustomSpan = attr.Span
		}
	}

	st, ok := spec.Type.(*ast.StructType)
	if !ok {
		local.Add(diag.NewError(diag.ShpNotNamedStruct, model.Span,
			"cachediff can only be used on named structs"))
		return model, false
	}
	model.TypeParams = b.typeParams(spec)

	if st.Fields != nil {
		for _, field := range st.Fields.List {
			fields, _ := b.field(field, local)
			for _, fm := range fields {
				if fm.Ignored() {
					if *fm.Ignore == annotation.IgnoreReasonCustom && model.Custom == "" {
						local.Add(diag.NewError(diag.ValCustomRequired, model.Span,
							fmt.Sprintf("field `%s` on %s marked ignored as custom, but missing `//%s:custom` on `%s`",
								fm.Name, model.Name, annotation.Namespace, model.Name)))
					}
					continue
				}
				model.Fields = append(model.Fields, fm)
			}
		}
	}

	if local.HasErrors() {
		return model, false
	}
	if len(model.Fields) == 0 {
		local.Add(diag.NewError(diag.ValNoComparableFields, model.Span,
			fmt.Sprintf("no fields to compare for cachediff, ensure struct has at least one named field that isn't `//%s:ignore`",
				annotation.Namespace)))
		return model, false
	}
	return model, true
}

// typeParams captures a generic declaration's parameter list verbatim for
// the generated method signature, plus the bare names for the receiver.
func (b *Builder) typeParams(spec *ast.TypeSpec) TypeParams {
	if spec.TypeParams == nil || len(spec.TypeParams.List) == 0 {
		return TypeParams{}
	}
	var names []string
	for _, param := range spec.TypeParams.List {
		for _, name := range param.Names {
			names = append(names, name.Name)
		}
	}
	return TypeParams{
		Decl: b.files.Slice(b.span(spec.TypeParams)),
		Use:  "[" + strings.Join(names, ", ") + "]",
	}
}
