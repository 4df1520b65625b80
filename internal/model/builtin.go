package model

import "go/ast"

// builtinDisplay maps a well-known opaque type to the method that yields
// its text form. These types print unhelpfully through `%v`, so codegen
// calls the method instead unless the author overrides with `display`.
type builtinDisplay struct {
	typeKey string
	method  string
}

var builtinDisplays = map[string]builtinDisplay{
	"url.URL": {typeKey: "url.URL", method: "String"},
}

// builtinFor resolves a field's type expression against the built-in
// table. Pointer types stay on the `%v` default: the generated method
// must hold for any two instances, and calling a method on a possibly
// nil pointer would not.
func builtinFor(expr ast.Expr) (builtinDisplay, bool) {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return builtinDisplay{}, false
	}
	pkg, ok := sel.X.(*ast.Ident)
	if !ok {
		return builtinDisplay{}, false
	}
	bd, ok := builtinDisplays[pkg.Name+"."+sel.Sel.Name]
	return bd, ok
}
