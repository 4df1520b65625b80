// Package gen renders validated container models into Go source. Output
// is deterministic: fields are emitted in declaration order, imports are
// sorted, and the result is passed through go/format before it is
// returned.
package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"strconv"
	"strings"

	"cachediff/internal/diag"
	"cachediff/internal/model"
	"cachediff/internal/source"
)

// MethodName is the comparison method emitted on every target type.
const MethodName = "CacheDiff"

// File describes one generated output file.
type File struct {
	// PkgName is the package clause, copied from the source file.
	PkgName string
	// Imports maps qualifier to import path, built from the source
	// file's import table. Used to resolve qualified display and custom
	// hook paths.
	Imports map[string]string
	// Header holds extra comment lines placed under the generated-code
	// marker, e.g. a project-specific notice. May be empty.
	Header []string
	// Containers are the validated targets, in declaration order.
	Containers []model.ContainerModel
}

type generator struct {
	buf bytes.Buffer
}

func (g *generator) printf(format string, args ...any) {
	fmt.Fprintf(&g.buf, format, args...)
}

// Generate renders f into formatted Go source. Unresolvable hook imports
// accumulate into bag; ok is false when any diagnostic was added.
func Generate(f File, bag *diag.Bag) ([]byte, bool) {
	g := &generator{}
	imports, ok := collectImports(f, bag)

	g.printf("// Code generated by cachediff; DO NOT EDIT.\n")
	for _, line := range f.Header {
		g.printf("// %s\n", line)
	}
	g.printf("\npackage %s\n\n", f.PkgName)
	g.emitImports(imports)
	for _, c := range f.Containers {
		g.emitContainer(c)
	}

	if !ok {
		return nil, false
	}
	src, err := format.Source(g.buf.Bytes())
	if err != nil {
		bag.Add(diag.NewError(diag.GenFormatFailed, source.Span{},
			fmt.Sprintf("generated code does not format: %v", err)))
		return nil, false
	}
	return src, true
}

// collectImports resolves every qualified hook path against the source
// file's import table. "fmt" is always required by the emitted Sprintf
// calls.
func collectImports(f File, bag *diag.Bag) ([]string, bool) {
	paths := map[string]bool{"fmt": true}
	ok := true

	resolve := func(hook string, span source.Span) {
		qual, qualified := splitQualifier(hook)
		if !qualified {
			return
		}
		path, found := f.Imports[qual]
		if !found {
			bag.Add(diag.NewError(diag.GenUnknownImport, span,
				fmt.Sprintf("cannot resolve package `%s` for `%s`; import it in the source file", qual, hook)))
			ok = false
			return
		}
		paths[path] = true
	}

	for _, c := range f.Containers {
		if c.Custom != "" {
			resolve(c.Custom, c.CustomSpan)
		}
		for _, field := range c.Fields {
			if field.Display.Kind == model.DisplayFunc {
				resolve(field.Display.Path, field.Display.Span)
			}
		}
	}

	out := make([]string, 0, len(paths))
	for p := range paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, ok
}

// splitQualifier returns the package qualifier of a hook path, if any.
// "humanize.Bytes" -> ("humanize", true); a bare local name has none.
func splitQualifier(hook string) (string, bool) {
	idx := strings.IndexByte(hook, '.')
	if idx < 0 {
		return "", false
	}
	return hook[:idx], true
}

func (g *generator) emitImports(paths []string) {
	if len(paths) == 1 {
		g.printf("import %q\n\n", paths[0])
		return
	}
	g.printf("import (\n")
	for _, p := range paths {
		g.printf("\t%q\n", p)
	}
	g.printf(")\n\n")
}

func (g *generator) emitContainer(c model.ContainerModel) {
	recv := c.Name + c.TypeParams.Use

	g.printf("// %s reports the fields of current that differ from old, one\n", MethodName)
	g.printf("// human-readable change per entry. An empty result means the cached\n")
	g.printf("// value is still usable.\n")
	g.printf("func (current %s) %s(old %s) []string {\n", recv, MethodName, recv)
	g.printf("\tvar diff []string\n")
	if c.Custom != "" {
		g.printf("\tdiff = append(diff, %s(old, current)...)\n", c.Custom)
	}
	for _, field := range c.Fields {
		g.emitField(field)
	}
	g.printf("\treturn diff\n")
	g.printf("}\n\n")
}

func (g *generator) emitField(f model.FieldModel) {
	// The display name lands inside a Sprintf format string, so percent
	// signs are doubled and the whole literal is quoted.
	name := strings.ReplaceAll(f.DisplayName, "%", "%%")
	format := strconv.Quote(name + " (%v to %v)")
	g.printf("\tif current.%s != old.%s {\n", f.Name, f.Name)
	g.printf("\t\tdiff = append(diff, fmt.Sprintf(%s, %s, %s))\n",
		format, renderValue(f, "old"), renderValue(f, "current"))
	g.printf("\t}\n")
}

// renderValue is the expression passed to Sprintf for one side of the
// comparison, honouring the field's display strategy.
func renderValue(f model.FieldModel, recv string) string {
	expr := recv + "." + f.Name
	switch f.Display.Kind {
	case model.DisplayBuiltin:
		return expr + "." + f.Display.Method + "()"
	case model.DisplayFunc:
		return f.Display.Path + "(" + expr + ")"
	}
	return expr
}
