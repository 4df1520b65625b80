// Package driver runs the generation pipeline: load a Go source file,
// collect annotated struct declarations, validate them into models, and
// render the comparison method next to the source. Directory runs fan
// out over a worker pool; results carry their own diagnostic bags so a
// broken file never hides findings from its neighbours.
package driver

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fortio.org/safecast"

	"cachediff/internal/diag"
	"cachediff/internal/gen"
	"cachediff/internal/model"
	"cachediff/internal/source"
	"cachediff/internal/version"
)

// Options configures a generation run.
type Options struct {
	// Types restricts generation to the named structs. Empty means any
	// annotated struct in the file.
	Types []string
	// Suffix is appended to the source base name for the output file.
	Suffix string
	// Header lines are added under the generated-code marker.
	Header []string
	// MaxDiagnostics caps accumulated diagnostics per file.
	MaxDiagnostics int
	// Check verifies outputs are current instead of writing them.
	Check bool
	// Cache, when non-nil, skips generation for unchanged inputs.
	Cache *DiskCache
	// Sink receives progress events; nil means no reporting.
	Sink ProgressSink
}

// fingerprint captures every option that influences output bytes, for
// cache keying.
func (o Options) fingerprint() string {
	return strings.Join([]string{
		version.Version,
		o.Suffix,
		strings.Join(o.Header, "\n"),
		strings.Join(o.Types, ","),
	}, "\x00")
}

// FileResult is the outcome of processing one source file.
type FileResult struct {
	Path      string
	FileID    source.FileID
	OutPath   string
	Output    []byte
	Targets   []string
	Bag       *diag.Bag
	NoTargets bool
	UpToDate  bool
	FromCache bool
	Written   bool
}

// Failed reports whether the file produced any error diagnostics.
func (r *FileResult) Failed() bool { return r.Bag.HasErrors() }

// OutPathFor builds the generated file path for a source path.
func OutPathFor(path, suffix string) string {
	return strings.TrimSuffix(path, ".go") + suffix + ".go"
}

// GenerateFile runs the pipeline for a single source file. All problems
// land in the result's bag; the error return is reserved for the caller
// misusing the API, never for bad input.
func GenerateFile(fileSet *source.FileSet, path string, opts Options) FileResult {
	sink := sinkOrNop(opts.Sink)
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 100
	}
	res := FileResult{Path: path, Bag: diag.NewBag(opts.MaxDiagnostics)}

	started := time.Now()
	sink.OnEvent(Event{File: path, Stage: StageParse, Status: StatusWorking})

	fileID, err := loadFile(fileSet, path)
	if err != nil {
		res.Bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{},
			"failed to load file: "+err.Error()))
		sink.OnEvent(Event{File: path, Stage: StageParse, Status: StatusError, Err: err, Elapsed: time.Since(started)})
		return res
	}
	res.FileID = fileID
	file := fileSet.Get(fileID)

	key := cacheKey(file.Content, opts.fingerprint())
	if opts.Cache != nil {
		var payload CachePayload
		if hit, err := opts.Cache.Get(key, &payload); err == nil && hit {
			res.Output = payload.Output
			res.OutPath = OutPathFor(path, opts.Suffix)
			res.Targets = payload.Targets
			res.FromCache = true
			res.NoTargets = len(payload.Targets) == 0
			sink.OnEvent(Event{File: path, Stage: StageParse, Status: StatusDone, Elapsed: time.Since(started)})
			if res.NoTargets {
				return res
			}
			writeOutput(&res, opts, sink)
			return res
		}
	}

	tf := token.NewFileSet()
	astFile, err := parser.ParseFile(tf, path, file.Content, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		addSyntaxErrors(res.Bag, fileID, err)
		sink.OnEvent(Event{File: path, Stage: StageParse, Status: StatusError, Err: err, Elapsed: time.Since(started)})
		return res
	}
	sink.OnEvent(Event{File: path, Stage: StageParse, Status: StatusDone, Elapsed: time.Since(started)})

	started = time.Now()
	sink.OnEvent(Event{File: path, Stage: StageAnalyze, Status: StatusWorking})

	containers := collectContainers(tf, fileSet, fileID, astFile, opts.Types, res.Bag)
	if res.Bag.HasErrors() {
		sink.OnEvent(Event{File: path, Stage: StageAnalyze, Status: StatusError, Elapsed: time.Since(started)})
		return res
	}
	if len(containers) == 0 {
		res.NoTargets = true
		if opts.Cache != nil {
			cachePut(&res, opts.Cache, key, &CachePayload{Schema: diskCacheSchemaVersion, SourcePath: path})
		}
		sink.OnEvent(Event{File: path, Stage: StageAnalyze, Status: StatusDone, Elapsed: time.Since(started)})
		return res
	}
	sink.OnEvent(Event{File: path, Stage: StageAnalyze, Status: StatusDone, Elapsed: time.Since(started)})

	started = time.Now()
	sink.OnEvent(Event{File: path, Stage: StageGenerate, Status: StatusWorking})

	out, ok := gen.Generate(gen.File{
		PkgName:    astFile.Name.Name,
		Imports:    importTable(astFile),
		Header:     opts.Header,
		Containers: containers,
	}, res.Bag)
	if !ok {
		sink.OnEvent(Event{File: path, Stage: StageGenerate, Status: StatusError, Elapsed: time.Since(started)})
		return res
	}
	res.Output = out
	res.OutPath = OutPathFor(path, opts.Suffix)
	for _, c := range containers {
		res.Targets = append(res.Targets, c.Name)
	}
	sink.OnEvent(Event{File: path, Stage: StageGenerate, Status: StatusDone, Elapsed: time.Since(started)})

	if opts.Cache != nil {
		cachePut(&res, opts.Cache, key, &CachePayload{
			Schema:     diskCacheSchemaVersion,
			SourcePath: path,
			OutPath:    res.OutPath,
			Output:     res.Output,
			Targets:    res.Targets,
		})
	}

	writeOutput(&res, opts, sink)
	return res
}

// cachePut stores a payload and downgrades a failed write to a warning.
// A cold cache slows the next run down but never invalidates the output.
func cachePut(res *FileResult, cache *DiskCache, key Digest, payload *CachePayload) {
	if err := cache.Put(key, payload); err != nil {
		res.Bag.Add(diag.New(diag.SevWarning, diag.IOCacheWrite, source.Span{},
			"failed to update disk cache: "+err.Error()))
	}
}

// loadFile reuses a preloaded file when present. GenerateDir loads every
// candidate up front so worker goroutines never mutate the FileSet.
func loadFile(fileSet *source.FileSet, path string) (source.FileID, error) {
	if f, ok := fileSet.GetByPath(path); ok {
		return f.ID, nil
	}
	return fileSet.Load(path)
}

// writeOutput writes (or, in check mode, verifies) the generated file.
func writeOutput(res *FileResult, opts Options, sink ProgressSink) {
	started := time.Now()
	sink.OnEvent(Event{File: res.Path, Stage: StageWrite, Status: StatusWorking})

	existing, err := os.ReadFile(res.OutPath)
	current := err == nil && bytes.Equal(existing, res.Output)
	if current {
		res.UpToDate = true
		sink.OnEvent(Event{File: res.Path, Stage: StageWrite, Status: StatusDone, Elapsed: time.Since(started)})
		return
	}
	if opts.Check {
		sink.OnEvent(Event{File: res.Path, Stage: StageWrite, Status: StatusDone, Elapsed: time.Since(started)})
		return
	}
	if err := os.WriteFile(res.OutPath, res.Output, 0o644); err != nil {
		res.Bag.Add(diag.NewError(diag.IOWriteError, source.Span{},
			"failed to write "+res.OutPath+": "+err.Error()))
		sink.OnEvent(Event{File: res.Path, Stage: StageWrite, Status: StatusError, Err: err, Elapsed: time.Since(started)})
		return
	}
	res.Written = true
	sink.OnEvent(Event{File: res.Path, Stage: StageWrite, Status: StatusDone, Elapsed: time.Since(started)})
}

// collectContainers resolves the file's target declarations into models.
// With an explicit type list every named type must exist; otherwise any
// declaration carrying annotations is a target.
func collectContainers(tf *token.FileSet, fileSet *source.FileSet, fileID source.FileID, astFile *ast.File, types []string, bag *diag.Bag) []model.ContainerModel {
	builder := model.NewBuilder(tf, fileSet, fileID)

	requested := make(map[string]bool, len(types))
	for _, name := range types {
		requested[name] = false
	}

	var containers []model.ContainerModel
	for _, d := range astFile.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, s := range gd.Specs {
			ts, ok := s.(*ast.TypeSpec)
			if !ok {
				continue
			}
			if len(types) > 0 {
				if _, want := requested[ts.Name.Name]; !want {
					continue
				}
				requested[ts.Name.Name] = true
			} else if !builder.HasAnnotations(gd, ts) {
				continue
			}
			if m, ok := builder.Container(gd, ts, bag); ok {
				containers = append(containers, m)
			}
		}
	}

	for _, name := range types {
		if !requested[name] {
			bag.Add(diag.NewError(diag.ShpTargetNotFound, source.At(fileID, 0, 0),
				fmt.Sprintf("type `%s` not found in %s", name, astFile.Name.Name)))
		}
	}
	return containers
}

// addSyntaxErrors converts go/parser failures into diagnostics so they
// render through the same pipeline as annotation problems.
func addSyntaxErrors(bag *diag.Bag, fileID source.FileID, err error) {
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		bag.Add(diag.NewError(diag.ShpGoSyntax, source.At(fileID, 0, 0), err.Error()))
		return
	}
	for _, e := range list {
		off, convErr := safecast.Conv[uint32](e.Pos.Offset)
		if convErr != nil {
			off = 0
		}
		bag.Add(diag.NewError(diag.ShpGoSyntax, source.At(fileID, off, off+1), e.Msg))
	}
}

var versionSegment = regexp.MustCompile(`^v[0-9]+$`)

// importTable maps package qualifiers to import paths for the file.
// Blank and dot imports cannot qualify a call and are skipped.
func importTable(f *ast.File) map[string]string {
	out := make(map[string]string, len(f.Imports))
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := pathQualifier(path)
		if imp.Name != nil {
			if imp.Name.Name == "_" || imp.Name.Name == "." {
				continue
			}
			name = imp.Name.Name
		}
		out[name] = path
	}
	return out
}

// pathQualifier guesses the package name from an import path, skipping
// gopkg-style major-version suffixes ("msgpack/v5" -> "msgpack").
func pathQualifier(path string) string {
	segments := strings.Split(path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if !versionSegment.MatchString(segments[i]) {
			return segments[i]
		}
	}
	return segments[len(segments)-1]
}
