package diag

import (
	"fmt"
	"path/filepath"
	"strings"

	"cachediff/internal/source"
)

type goldenDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatGoldenDiagnostics renders diagnostics into a stable, one-line-per-entry
// representation suitable for golden files and CLI short output. Entries keep
// their insertion order so paired reports (duplicate + "previously defined
// here") stay adjacent.
func FormatGoldenDiagnostics(bag *Bag, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || bag == nil || bag.Len() == 0 {
		return ""
	}

	rendered := make([]goldenDiagnostic, 0, bag.Len())
	for i := range bag.Items() {
		rendered = appendGolden(rendered, &bag.Items()[i], fs, includeNotes)
	}

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s", d.Severity, d.Code, d.Path, d.Line, d.Column, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendGolden(out []goldenDiagnostic, d *Diagnostic, fs *source.FileSet, includeNotes bool) []goldenDiagnostic {
	loc := resolveSpan(fs, d.Primary)
	out = append(out, goldenDiagnostic{
		Severity: strings.ToLower(d.Severity.String()),
		Code:     d.Code.ID(),
		Path:     loc.Path,
		Line:     loc.Line,
		Column:   loc.Column,
		Message:  d.Message,
	})

	if includeNotes {
		for _, note := range d.Notes {
			nloc := resolveSpan(fs, note.Span)
			out = append(out, goldenDiagnostic{
				Severity: "note",
				Code:     d.Code.ID(),
				Path:     nloc.Path,
				Line:     nloc.Line,
				Column:   nloc.Column,
				Message:  note.Msg,
			})
		}
	}

	return out
}

type resolvedSpan struct {
	Path   string
	Line   uint32
	Column uint32
}

// resolveSpan never fails: a span that does not name a stored file gets
// the "?:0:0" placeholder so the diagnostic still reaches the output.
func resolveSpan(fs *source.FileSet, span source.Span) resolvedSpan {
	file := fs.Get(span.File)
	if file == nil {
		return resolvedSpan{Path: "?"}
	}
	start, _ := fs.Resolve(span)
	return resolvedSpan{
		Path:   goldenPath(file.Path),
		Line:   start.Line,
		Column: start.Col,
	}
}

func goldenPath(path string) string {
	p := filepath.ToSlash(path)
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}
	return p
}
