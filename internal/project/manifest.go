// Package project locates and parses cachediff.toml, the optional
// per-project manifest. Settings from the manifest seed the defaults for
// CLI flags; an absent manifest is not an error.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file looked up from the working directory upward.
const ManifestName = "cachediff.toml"

const (
	// DefaultSuffix is appended to a source file's base name to form
	// the generated file name.
	DefaultSuffix = "_cachediff"
	// DefaultMaxDiagnostics caps accumulated diagnostics per run.
	DefaultMaxDiagnostics = 100
)

// Manifest is the parsed cachediff.toml.
type Manifest struct {
	// Path is where the manifest was found; "" for DefaultManifest.
	Path string
	// Root is the directory containing the manifest.
	Root string

	Generate GenerateConfig
}

// GenerateConfig is the [generate] section.
type GenerateConfig struct {
	// Suffix replaces DefaultSuffix in output file names.
	Suffix string `toml:"suffix"`
	// Header lines are added under the generated-code marker.
	Header []string `toml:"header"`
	// Types restricts generation to the named structs. Empty means any
	// annotated struct.
	Types []string `toml:"types"`
	// Cache toggles the on-disk generation cache.
	Cache bool `toml:"cache"`
	// MaxDiagnostics caps accumulated diagnostics per run.
	MaxDiagnostics int `toml:"max_diagnostics"`
}

// DefaultManifest is used when no cachediff.toml exists.
func DefaultManifest() Manifest {
	return Manifest{
		Generate: GenerateConfig{
			Suffix:         DefaultSuffix,
			Cache:          true,
			MaxDiagnostics: DefaultMaxDiagnostics,
		},
	}
}

// FindManifest walks up from startDir to locate cachediff.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest parses the manifest at path. Absent keys keep their
// defaults; unknown keys are rejected so typos do not silently change
// behavior.
func LoadManifest(path string) (Manifest, error) {
	m := DefaultManifest()
	meta, err := toml.DecodeFile(path, &struct {
		Generate *GenerateConfig `toml:"generate"`
	}{Generate: &m.Generate})
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Manifest{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if strings.TrimSpace(m.Generate.Suffix) == "" {
		m.Generate.Suffix = DefaultSuffix
	}
	if m.Generate.MaxDiagnostics <= 0 {
		m.Generate.MaxDiagnostics = DefaultMaxDiagnostics
	}
	m.Path = path
	m.Root = filepath.Dir(path)
	return m, nil
}

// Discover finds and loads the manifest governing startDir, falling back
// to DefaultManifest when none exists.
func Discover(startDir string) (Manifest, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return Manifest{}, err
	}
	if !ok {
		return DefaultManifest(), nil
	}
	return LoadManifest(path)
}
