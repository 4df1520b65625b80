package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"cachediff/internal/diag"
	"cachediff/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	noteColor    = color.New(color.FgCyan)
	caretColor   = color.New(color.FgGreen, color.Bold)
)

// Pretty renders the diagnostics of bag in a human-readable form:
//
//	<path>:<line>:<col>: <severity> <CODE>: <message>
//	    <source line>
//	      ^~~~~~
//
// followed by notes and fix titles when enabled.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		writeDiagnostic(w, d, fs, opts)
	}
}

func writeDiagnostic(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	head := fmt.Sprintf("%s %s", severityLabel(d.Severity, opts), paint(opts, severityStyle(d.Severity), d.Code.ID()))
	fmt.Fprintf(w, "%s: %s: %s\n", location(d.Primary, fs, opts), head, d.Message)
	writeSnippet(w, d.Primary, fs, opts)

	if opts.ShowNotes {
		for _, note := range d.Notes {
			fmt.Fprintf(w, "  %s: %s: %s\n", paint(opts, noteColor, "note"), location(note.Span, fs, opts), note.Msg)
			writeSnippet(w, note.Span, fs, opts)
		}
	}
	if opts.ShowFixes {
		for _, fix := range d.Fixes {
			fmt.Fprintf(w, "  %s: %s\n", paint(opts, noteColor, "fix"), fix.Title)
		}
	}
}

func location(span source.Span, fs *source.FileSet, opts PrettyOpts) string {
	f := fs.Get(span.File)
	if f == nil {
		// no source attached, e.g. an I/O failure before the file
		// made it into the set
		return "?:0:0"
	}
	var path string
	switch opts.PathMode {
	case PathModeAbsolute:
		path = f.FormatPath("absolute", "")
	case PathModeRelative:
		path = f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		path = f.FormatPath("basename", "")
	default:
		path = f.FormatPath("auto", "")
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
}

// writeSnippet prints the source line of the span with a caret underline
// aligned to the offending range.
func writeSnippet(w io.Writer, span source.Span, fs *source.FileSet, opts PrettyOpts) {
	f := fs.Get(span.File)
	if f == nil {
		return
	}
	start, _ := fs.Resolve(span)
	line := f.GetLine(start.Line)
	if line == "" {
		return
	}

	col := int(start.Col)
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}

	// Tabs are shown as four spaces so the caret line can align with
	// plain spaces.
	shown := strings.ReplaceAll(line, "\t", "    ")
	prefix := strings.ReplaceAll(line[:col-1], "\t", "    ")

	underline := int(span.Len())
	if rest := len(line) - (col - 1); underline > rest {
		underline = rest
	}
	if underline < 1 {
		underline = 1
	}

	if opts.Width > 0 {
		shown = runewidth.Truncate(shown, opts.Width, "…")
	}

	marker := "^" + strings.Repeat("~", underline-1)
	fmt.Fprintf(w, "    %s\n", shown)
	fmt.Fprintf(w, "    %s%s\n", strings.Repeat(" ", runewidth.StringWidth(prefix)), paint(opts, caretColor, marker))
}

func severityLabel(sev diag.Severity, opts PrettyOpts) string {
	return paint(opts, severityStyle(sev), strings.ToLower(sev.String()))
}

func severityStyle(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return infoColor
	}
}

func paint(opts PrettyOpts, c *color.Color, s string) string {
	if !opts.Color {
		return s
	}
	return c.Sprint(s)
}
