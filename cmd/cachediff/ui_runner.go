package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"cachediff/internal/driver"
	"cachediff/internal/source"
	"cachediff/internal/ui"
)

// progressUIEnabled interprets the --ui flag. "auto" turns the
// progress display on only when stdout is a terminal.
func progressUIEnabled(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return isTerminal(os.Stdout), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid --ui value %q (expected auto, on or off)", value)
}

type generateOutcome struct {
	fs      *source.FileSet
	results []driver.FileResult
	err     error
}

func runGenerateDirWithUI(ctx context.Context, title, dir string, files []string, jobs int, opts driver.Options) (*source.FileSet, []driver.FileResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan generateOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Sink = driver.ChannelSink{Ch: events}
		fs, results, err := driver.GenerateDir(ctx, dir, jobs, optsCopy)
		outcomeCh <- generateOutcome{fs: fs, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.fs, outcome.results, uiErr
	}
	return outcome.fs, outcome.results, outcome.err
}
