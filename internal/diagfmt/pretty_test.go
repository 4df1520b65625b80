package diagfmt

import (
	"strings"
	"testing"

	"cachediff/internal/diag"
	"cachediff/internal/source"
)

func testBag(t *testing.T, src string) (*diag.Bag, *source.FileSet, source.FileID) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("metadata.go", []byte(src))
	bag := diag.NewBag(16)
	return bag, fs, id
}

func TestPretty_PlainFormat(t *testing.T) {
	src := "type Metadata struct {\n\t//cache_diff:bogus\n\tVersion string\n}\n"
	bag, fs, id := testBag(t, src)

	// span of "bogus" on line 2
	start := uint32(strings.Index(src, "bogus"))
	bag.Add(diag.NewError(diag.AttUnknownKey, source.At(id, start, start+5),
		"unknown cache_diff attribute: `bogus`. Must be one of `rename`, `display`, `ignore`"))

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	out := sb.String()

	if !strings.Contains(out, "metadata.go:2:15: error ATT1001: unknown cache_diff attribute: `bogus`.") {
		t.Errorf("header line missing or wrong:\n%s", out)
	}
	if !strings.Contains(out, "//cache_diff:bogus") {
		t.Errorf("source line missing:\n%s", out)
	}
	if !strings.Contains(out, "^~~~~") {
		t.Errorf("caret underline missing:\n%s", out)
	}
}

func TestPretty_CaretAlignment(t *testing.T) {
	src := "//cache_diff:ignore, ignore\n"
	bag, fs, id := testBag(t, src)

	start := uint32(strings.LastIndex(src, "ignore"))
	bag.Add(diag.NewError(diag.ValDuplicate, source.At(id, start, start+6),
		"duplicate attribute: `ignore`"))

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	lines := strings.Split(sb.String(), "\n")
	if len(lines) < 3 {
		t.Fatalf("output too short:\n%s", sb.String())
	}
	caretLine := lines[2]
	if got := strings.Index(caretLine, "^"); got != 4+int(start) {
		t.Errorf("caret at column %d, want %d:\n%s", got, 4+int(start), sb.String())
	}
	if !strings.HasSuffix(caretLine, "^~~~~~") {
		t.Errorf("underline length wrong: %q", caretLine)
	}
}

func TestPretty_NotesAndFixes(t *testing.T) {
	src := "//cache_diff:rename = \"a\"\n//cache_diff:rename = \"b\"\n"
	bag, fs, id := testBag(t, src)

	dup := source.At(id, 39, 45)
	first := source.At(id, 13, 19)
	bag.Add(diag.NewError(diag.ValDuplicate, dup, "duplicate attribute: `rename`").
		WithNote(first, "previously `rename` defined here").
		WithFix("remove the duplicate"))

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true, ShowFixes: true})
	out := sb.String()

	if !strings.Contains(out, "note: metadata.go:1:14: previously `rename` defined here") {
		t.Errorf("note missing:\n%s", out)
	}
	if !strings.Contains(out, "fix: remove the duplicate") {
		t.Errorf("fix title missing:\n%s", out)
	}
}

func TestPretty_NoColorByDefault(t *testing.T) {
	bag, fs, id := testBag(t, "//cache_diff:bogus\n")
	bag.Add(diag.NewError(diag.AttUnknownKey, source.At(id, 13, 18), "unknown attribute"))

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if strings.Contains(sb.String(), "\x1b[") {
		t.Errorf("escape sequences in uncolored output: %q", sb.String())
	}
}

func TestPretty_UnlocatedDiagnostic(t *testing.T) {
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file `gone.go`: no such file"))

	var sb strings.Builder
	Pretty(&sb, bag, source.NewFileSet(), PrettyOpts{})
	out := sb.String()

	if !strings.HasPrefix(out, "?:0:0: error IOE4001: failed to load file `gone.go`") {
		t.Errorf("unlocated diagnostic header = %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("expected no snippet lines:\n%s", out)
	}
}
