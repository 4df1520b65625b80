package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cachediff/internal/diag"
	"cachediff/internal/diagfmt"
	"cachediff/internal/driver"
	"cachediff/internal/project"
	"cachediff/internal/source"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] [file.go|directory]",
	Short: "Generate CacheDiff methods for annotated structs",
	Long:  `Generate scans Go source files for //cache_diff: annotations and writes a CacheDiff comparison method for each annotated struct`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, args, false)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [flags] [file.go|directory]",
	Short: "Verify generated CacheDiff methods are up to date",
	Long:  `Check runs the generator without writing files and fails when any generated output is missing or stale`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, args, true)
	},
}

func init() {
	addGenerateFlags(generateCmd)
	addGenerateFlags(checkCmd)
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("type", nil, "restrict generation to the named struct types")
	cmd.Flags().String("suffix", "", "output file suffix (default from cachediff.toml)")
	cmd.Flags().StringArray("header", nil, "extra header lines for generated files")
	cmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	cmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	cmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	cmd.Flags().Bool("no-cache", false, "disable the on-disk generation cache")
	cmd.Flags().String("ui", "auto", "progress UI mode for directories (auto|on|off)")
}

func runGenerate(cmd *cobra.Command, args []string, check bool) error {
	path := "."
	if len(args) > 0 && args[0] != "" {
		path = args[0]
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	types, err := cmd.Flags().GetStringSlice("type")
	if err != nil {
		return fmt.Errorf("failed to get type flag: %w", err)
	}
	suffixFlag, err := cmd.Flags().GetString("suffix")
	if err != nil {
		return fmt.Errorf("failed to get suffix flag: %w", err)
	}
	headerFlag, err := cmd.Flags().GetStringArray("header")
	if err != nil {
		return fmt.Errorf("failed to get header flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	switch format {
	case "pretty", "json", "short":
		// supported
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	wantUI, err := progressUIEnabled(uiFlag)
	if err != nil {
		return err
	}

	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", path, err)
	}
	baseDir := path
	if !st.IsDir() {
		baseDir = filepath.Dir(path)
	}

	manifest, err := project.Discover(baseDir)
	if err != nil {
		return err
	}

	opts := driver.Options{
		Types:          manifest.Generate.Types,
		Suffix:         manifest.Generate.Suffix,
		Header:         manifest.Generate.Header,
		MaxDiagnostics: manifest.Generate.MaxDiagnostics,
		Check:          check,
	}
	if len(types) > 0 {
		opts.Types = types
	}
	if suffixFlag != "" {
		opts.Suffix = suffixFlag
	}
	if len(headerFlag) > 0 {
		opts.Header = headerFlag
	}
	if maxDiagnostics > 0 {
		opts.MaxDiagnostics = maxDiagnostics
	}

	if manifest.Generate.Cache && !noCache {
		cache, cacheErr := openCache()
		if cacheErr != nil {
			if !quiet {
				fmt.Fprintf(os.Stderr, "warning: disk cache unavailable: %v\n", cacheErr)
			}
		} else {
			opts.Cache = cache
		}
	}

	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))
	useTUI := st.IsDir() && format == "pretty" && !quiet && wantUI

	var fs *source.FileSet
	var results []driver.FileResult
	if st.IsDir() {
		if useTUI {
			title := "cachediff generate"
			if check {
				title = "cachediff check"
			}
			files, listErr := driver.ListGoFiles(path, opts.Suffix)
			if listErr != nil {
				return listErr
			}
			fs, results, err = runGenerateDirWithUI(cmd.Context(), title, path, files, jobs, opts)
		} else {
			fs, results, err = driver.GenerateDir(cmd.Context(), path, jobs, opts)
		}
		if err != nil {
			return err
		}
	} else {
		fs = source.NewFileSetWithBase(baseDir)
		results = []driver.FileResult{driver.GenerateFile(fs, path, opts)}
	}

	if err := printResults(os.Stdout, fs, results, printOpts{
		format:    format,
		color:     useColor,
		fullPath:  fullPath,
		withNotes: withNotes,
		suggest:   suggest,
		max:       opts.MaxDiagnostics,
		multi:     st.IsDir(),
	}); err != nil {
		return err
	}

	failed, stale := 0, 0
	for i := range results {
		if results[i].Failed() {
			failed++
		} else if check && !results[i].NoTargets && !results[i].UpToDate {
			stale++
		}
	}
	if !quiet && format == "pretty" {
		printSummary(os.Stdout, results, check)
	}

	if failed > 0 || stale > 0 {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // diagnostics already printed
	}
	return nil
}

func openCache() (*driver.DiskCache, error) {
	if dir := os.Getenv("CACHEDIFF_CACHE_DIR"); dir != "" {
		return driver.OpenDiskCacheAt(dir)
	}
	return driver.OpenDiskCache("cachediff")
}

type printOpts struct {
	format    string
	color     bool
	fullPath  bool
	withNotes bool
	suggest   bool
	max       int
	multi     bool
}

func printResults(out *os.File, fs *source.FileSet, results []driver.FileResult, opts printOpts) error {
	pathMode := diagfmt.PathModeAuto
	formatMode := "auto"
	if opts.fullPath {
		pathMode = diagfmt.PathModeAbsolute
		formatMode = "absolute"
	}
	prettyOpts := diagfmt.PrettyOpts{
		Color:     opts.color,
		PathMode:  pathMode,
		ShowNotes: opts.withNotes,
		ShowFixes: opts.suggest,
	}
	jsonOpts := diagfmt.JSONOpts{
		IncludePositions: true,
		PathMode:         pathMode,
		Max:              opts.max,
		IncludeNotes:     opts.withNotes,
		IncludeFixes:     opts.suggest,
	}

	displayPath := func(r *driver.FileResult) string {
		if r.FileID != 0 {
			return fs.Get(r.FileID).FormatPath(formatMode, fs.BaseDir())
		}
		if opts.fullPath {
			if abs, err := source.AbsolutePath(r.Path); err == nil {
				return abs
			}
		}
		return r.Path
	}

	switch opts.format {
	case "short":
		for i := range results {
			output := diag.FormatGoldenDiagnostics(results[i].Bag, fs, opts.withNotes)
			if output != "" {
				fmt.Fprintln(out, output)
			}
		}
	case "pretty":
		for i := range results {
			r := &results[i]
			if r.Bag.Len() == 0 {
				continue
			}
			if opts.multi {
				fmt.Fprintf(out, "== %s ==\n", displayPath(r))
			}
			diagfmt.Pretty(out, r.Bag, fs, prettyOpts)
		}
	case "json":
		output := make(map[string]diagfmt.DiagnosticsOutput, len(results))
		for i := range results {
			r := &results[i]
			output[displayPath(r)] = diagfmt.BuildDiagnosticsOutput(r.Bag, fs, jsonOpts)
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(output); err != nil {
			return fmt.Errorf("failed to encode diagnostics output: %w", err)
		}
	}
	return nil
}

func printSummary(out *os.File, results []driver.FileResult, check bool) {
	var written, upToDate, cached, skipped, failed, stale int
	for i := range results {
		r := &results[i]
		switch {
		case r.Failed():
			failed++
		case r.NoTargets:
			skipped++
		case r.UpToDate:
			upToDate++
		case check:
			stale++
			fmt.Fprintf(out, "stale: %s\n", r.OutPath)
		default:
			written++
			if r.FromCache {
				cached++
			}
		}
	}
	switch {
	case check && stale > 0:
		fmt.Fprintf(out, "%d file(s) out of date\n", stale)
	case check:
		fmt.Fprintln(out, "all generated files up to date")
	default:
		fmt.Fprintf(out, "generated %d file(s), %d up to date", written, upToDate)
		if cached > 0 {
			fmt.Fprintf(out, ", %d from cache", cached)
		}
		fmt.Fprintln(out)
	}
	if failed > 0 {
		fmt.Fprintf(out, "%d file(s) failed\n", failed)
	}
}
