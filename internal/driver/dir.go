package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"cachediff/internal/diag"
	"cachediff/internal/source"
)

// ListGoFiles returns a sorted list of candidate *.go files under dir.
// Generated outputs, tests, and hidden or vendored trees are skipped.
func ListGoFiles(dir, suffix string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path == dir {
				return nil
			}
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
				name == "vendor" || name == "testdata" {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".go") {
			return nil
		}
		if strings.HasSuffix(name, "_test.go") || strings.HasSuffix(name, suffix+".go") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// GenerateDir processes every candidate file under dir in parallel.
// Results come back in file order regardless of completion order. The
// error return covers walking and cancellation only; per-file problems
// stay in each result's bag.
func GenerateDir(ctx context.Context, dir string, jobs int, opts Options) (*source.FileSet, []FileResult, error) {
	files, err := ListGoFiles(dir, opts.Suffix)
	if err != nil {
		return nil, nil, err
	}

	fileSet := source.NewFileSetWithBase(dir)
	sink := sinkOrNop(opts.Sink)
	for _, path := range files {
		sink.OnEvent(Event{File: path, Stage: StageParse, Status: StatusQueued})
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	// Load everything up front; the FileSet is not safe for concurrent
	// mutation, so workers must only read from it.
	loadErrors := make(map[string]error)
	for _, path := range files {
		if _, err := fileSet.Load(path); err != nil {
			loadErrors[path] = err
		}
	}

	// Per-file slots; index i is owned by exactly one goroutine.
	results := make([]FileResult, len(files))

	fileOpts := opts
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func(i int, path string) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				if loadErr, hadError := loadErrors[path]; hadError {
					bag := diag.NewBag(max(fileOpts.MaxDiagnostics, 1))
					bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{},
						"failed to load file: "+loadErr.Error()))
					results[i] = FileResult{Path: path, Bag: bag}
					sink.OnEvent(Event{File: path, Stage: StageParse, Status: StatusError, Err: loadErr})
					return nil
				}

				results[i] = GenerateFile(fileSet, path, fileOpts)
				return nil
			}
		}(i, path))
	}

	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}
