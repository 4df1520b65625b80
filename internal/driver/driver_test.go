package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cachediff/internal/diag"
	"cachediff/internal/source"
)

const sampleSrc = `package meta

// Metadata records the inputs a cached layer was built from.
type Metadata struct {
	RubyVersion string
	//cache_diff:ignore
	Checksum string
}
`

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testOptions() Options {
	return Options{Suffix: "_cachediff", MaxDiagnostics: 64}
}

func TestGenerateFile_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "metadata.go", sampleSrc)

	res := GenerateFile(source.NewFileSet(), path, testOptions())
	if res.Failed() {
		t.Fatalf("diagnostics: %v", res.Bag.Items())
	}
	if !res.Written {
		t.Fatalf("output not written: %+v", res)
	}
	if want := filepath.Join(dir, "metadata_cachediff.go"); res.OutPath != want {
		t.Errorf("out path = %q, want %q", res.OutPath, want)
	}
	out, err := os.ReadFile(res.OutPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	src := string(out)
	if !strings.Contains(src, "func (current Metadata) CacheDiff(old Metadata) []string") {
		t.Errorf("method missing:\n%s", src)
	}
	if strings.Contains(src, "Checksum") {
		t.Errorf("ignored field leaked into output:\n%s", src)
	}

	// A second run finds the output current and leaves it alone.
	res = GenerateFile(source.NewFileSet(), path, testOptions())
	if !res.UpToDate || res.Written {
		t.Errorf("second run: up-to-date=%v written=%v", res.UpToDate, res.Written)
	}
}

func TestGenerateFile_CheckMode(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "metadata.go", sampleSrc)

	opts := testOptions()
	opts.Check = true
	res := GenerateFile(source.NewFileSet(), path, opts)
	if res.Failed() {
		t.Fatalf("diagnostics: %v", res.Bag.Items())
	}
	if res.UpToDate || res.Written {
		t.Errorf("stale output reported current: %+v", res)
	}
	if _, err := os.Stat(res.OutPath); !os.IsNotExist(err) {
		t.Errorf("check mode wrote output")
	}
}

func TestGenerateFile_NoTargets(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "plain.go", "package meta\n\ntype Plain struct {\n\tA int\n}\n")

	res := GenerateFile(source.NewFileSet(), path, testOptions())
	if res.Failed() || !res.NoTargets {
		t.Fatalf("result = %+v, diagnostics = %v", res, res.Bag.Items())
	}
}

func TestGenerateFile_ExplicitTypes(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "plain.go", "package meta\n\ntype Plain struct {\n\tA int\n}\n")

	opts := testOptions()
	opts.Types = []string{"Plain", "Missing"}
	res := GenerateFile(source.NewFileSet(), path, opts)
	if !res.Failed() {
		t.Fatalf("expected target-not-found, got %+v", res)
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.ShpTargetNotFound {
		t.Fatalf("diagnostics = %v", items)
	}
	if items[0].Message != "type `Missing` not found in meta" {
		t.Errorf("message = %q", items[0].Message)
	}
}

func TestGenerateFile_SyntaxError(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "broken.go", "package meta\n\ntype Broken struct {\n")

	res := GenerateFile(source.NewFileSet(), path, testOptions())
	if !res.Failed() {
		t.Fatalf("expected syntax diagnostics")
	}
	for _, d := range res.Bag.Items() {
		if d.Code != diag.ShpGoSyntax {
			t.Errorf("unexpected code %v", d.Code)
		}
	}
}

func TestGenerateFile_MissingFile(t *testing.T) {
	res := GenerateFile(source.NewFileSet(), filepath.Join(t.TempDir(), "gone.go"), testOptions())
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.IOLoadFileError {
		t.Fatalf("diagnostics = %v", items)
	}
}

func TestGenerateFile_FileIDTracksLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "metadata.go", sampleSrc)
	fs := source.NewFileSet()

	res := GenerateFile(fs, path, testOptions())
	if res.FileID == source.NoFile {
		t.Fatalf("loaded file has no ID: %+v", res)
	}
	if f := fs.Get(res.FileID); f == nil || f.Path != path {
		t.Errorf("FileID %d does not resolve to %q", res.FileID, path)
	}

	missing := GenerateFile(fs, filepath.Join(dir, "gone.go"), testOptions())
	if missing.FileID != source.NoFile {
		t.Errorf("unloaded file carries ID %d", missing.FileID)
	}
}

func TestGenerateFile_CacheWriteFailureWarns(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "metadata.go", sampleSrc)

	cacheDir := filepath.Join(dir, "cache")
	cache, err := OpenDiskCacheAt(cacheDir)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	// A regular file where the entry directory belongs makes every Put
	// fail while leaving the cache openable.
	if err := os.WriteFile(filepath.Join(cacheDir, "gen"), []byte("x"), 0o644); err != nil {
		t.Fatalf("block cache dir: %v", err)
	}
	opts := testOptions()
	opts.Cache = cache

	res := GenerateFile(source.NewFileSet(), path, opts)
	if res.Failed() || !res.Written {
		t.Fatalf("cache trouble should not fail the run: %+v, diagnostics = %v", res, res.Bag.Items())
	}
	var warned bool
	for _, d := range res.Bag.Items() {
		if d.Code == diag.IOCacheWrite && d.Severity == diag.SevWarning {
			warned = true
		}
	}
	if !warned {
		t.Errorf("no cache-write warning in %v", res.Bag.Items())
	}
}

func TestGenerateFile_CacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "metadata.go", sampleSrc)

	cache, err := OpenDiskCacheAt(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	opts := testOptions()
	opts.Cache = cache

	res := GenerateFile(source.NewFileSet(), path, opts)
	if res.Failed() || res.FromCache {
		t.Fatalf("first run: %+v", res)
	}

	// Remove the output; the second run restores it from cache.
	if err := os.Remove(res.OutPath); err != nil {
		t.Fatalf("remove: %v", err)
	}
	res = GenerateFile(source.NewFileSet(), path, opts)
	if !res.FromCache || !res.Written {
		t.Fatalf("second run: from-cache=%v written=%v", res.FromCache, res.Written)
	}
	if _, err := os.Stat(res.OutPath); err != nil {
		t.Errorf("output missing after cached run: %v", err)
	}

	// Edited content misses the cache.
	writeSource(t, dir, "metadata.go", sampleSrc+"\n// trailing comment\n")
	res = GenerateFile(source.NewFileSet(), path, opts)
	if res.FromCache {
		t.Errorf("stale cache hit after edit")
	}
}

func TestGenerateDir(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "metadata.go", sampleSrc)
	writeSource(t, dir, "plain.go", "package meta\n\ntype Plain struct {\n\tA int\n}\n")
	writeSource(t, dir, "metadata_test.go", "package meta\n")
	writeSource(t, dir, "old_cachediff.go", "package meta\n")
	sub := filepath.Join(dir, "vendor")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeSource(t, sub, "dep.go", "package dep\n")

	events := make(chan Event, 64)
	opts := testOptions()
	opts.Sink = ChannelSink{Ch: events}

	_, results, err := GenerateDir(context.Background(), dir, 2, opts)
	if err != nil {
		t.Fatalf("generate dir: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 (tests, generated and vendored files skipped)", len(results))
	}
	if filepath.Base(results[0].Path) != "metadata.go" || filepath.Base(results[1].Path) != "plain.go" {
		t.Errorf("result order: %q, %q", results[0].Path, results[1].Path)
	}
	if !results[0].Written {
		t.Errorf("annotated file not generated: %+v", results[0])
	}
	if !results[1].NoTargets {
		t.Errorf("plain file should have no targets: %+v", results[1])
	}

	close(events)
	var sawDone bool
	for evt := range events {
		if evt.Stage == StageWrite && evt.Status == StatusDone {
			sawDone = true
		}
	}
	if !sawDone {
		t.Errorf("no write-done event observed")
	}
}

func TestGenerateDir_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "metadata.go", sampleSrc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := GenerateDir(ctx, dir, 1, testOptions()); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestOutPathFor(t *testing.T) {
	if got := OutPathFor("pkg/metadata.go", "_cachediff"); got != "pkg/metadata_cachediff.go" {
		t.Errorf("OutPathFor = %q", got)
	}
}

func TestPathQualifier(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"fmt", "fmt"},
		{"net/url", "url"},
		{"github.com/dustin/go-humanize", "go-humanize"},
		{"github.com/vmihailenco/msgpack/v5", "msgpack"},
	}
	for _, tt := range tests {
		if got := pathQualifier(tt.path); got != tt.want {
			t.Errorf("pathQualifier(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
