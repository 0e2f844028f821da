package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultPreferredFormat = FormatZip
	defaultZipLevel        = 6
	defaultSevenZipLevel   = 7
	defaultNamePrefix      = "backup"

	outputDirPerm os.FileMode = 0o750
)

const (
	FormatZip      = "zip"
	FormatSevenZip = "7z"
)

// Config describes one backup run. It is constructed once, finalized,
// and then treated as read-only by every downstream component.
//
// Overlapping or duplicate source roots are a documented limitation:
// they are walked independently and their contents archived once per
// root, without validation or de-duplication.
type Config struct {
	Sources         []string `yaml:"sources"`
	OutputDir       string   `yaml:"output_dir"`
	ExcludedDirs    []string `yaml:"excluded_dirs"`
	PreferredFormat string   `yaml:"preferred_format"`
	ZipLevel        int      `yaml:"zip_level"`
	SevenZipLevel   int      `yaml:"seven_zip_level"`
	NamePrefix      string   `yaml:"name_prefix"`

	// Threads is a hint forwarded to the manifest and, conceptually, to
	// the external compressor: available CPUs minus one, never below
	// one. Derived in Finalize, not configurable.
	Threads int `yaml:"-"`
}

// Default returns the baseline configuration before any file or flag
// overrides. Level 6 Deflate balances speed and ratio; level 7 LZMA2
// leans compact without crawling.
func Default() Config {
	return Config{
		PreferredFormat: defaultPreferredFormat,
		ZipLevel:        defaultZipLevel,
		SevenZipLevel:   defaultSevenZipLevel,
		NamePrefix:      defaultNamePrefix,
	}
}

// Load reads YAML config from the provided path. A missing or empty
// file yields defaults with no error; callers layer flag overrides on
// top and then call Finalize.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, errors.New("empty config path")
	}
	fileData, err := os.ReadFile(path) //nolint:gosec // config path is user-provided on purpose
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if len(fileData) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(fileData, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

// Finalize validates the configuration and resolves it into its
// immutable runtime form: absolute paths, existing sources, an output
// directory created if absent, clamped compression levels, and the
// thread hint. Returns a new value; the receiver is not modified.
func (c Config) Finalize() (Config, error) {
	if len(c.Sources) == 0 {
		return c, errors.New("no source paths configured")
	}
	if c.OutputDir == "" {
		return c, errors.New("no output directory configured")
	}

	resolvedSources := make([]string, 0, len(c.Sources))
	for _, source := range c.Sources {
		absSource, err := filepath.Abs(source)
		if err != nil {
			return c, fmt.Errorf("resolve source %s: %w", source, err)
		}
		if _, err := os.Stat(absSource); err != nil {
			return c, fmt.Errorf("source path does not exist: %s", absSource)
		}
		resolvedSources = append(resolvedSources, absSource)
	}
	c.Sources = resolvedSources

	absOutput, err := filepath.Abs(c.OutputDir)
	if err != nil {
		return c, fmt.Errorf("resolve output dir %s: %w", c.OutputDir, err)
	}
	if err := os.MkdirAll(absOutput, outputDirPerm); err != nil { //nolint:gosec // app-owned output dir
		return c, fmt.Errorf("ensure output dir: %w", err)
	}
	c.OutputDir = absOutput

	resolvedExcluded := make([]string, 0, len(c.ExcludedDirs))
	for _, excluded := range c.ExcludedDirs {
		absExcluded, err := filepath.Abs(excluded)
		if err != nil {
			return c, fmt.Errorf("resolve excluded dir %s: %w", excluded, err)
		}
		resolvedExcluded = append(resolvedExcluded, absExcluded)
	}
	c.ExcludedDirs = resolvedExcluded

	c.PreferredFormat = strings.ToLower(strings.TrimSpace(c.PreferredFormat))
	if c.PreferredFormat == "" {
		c.PreferredFormat = defaultPreferredFormat
	}
	if c.PreferredFormat != FormatZip && c.PreferredFormat != FormatSevenZip {
		return c, fmt.Errorf("invalid preferred_format: %q (must be %q or %q)", c.PreferredFormat, FormatZip, FormatSevenZip)
	}

	c.ZipLevel = clampLevel(c.ZipLevel)
	c.SevenZipLevel = clampLevel(c.SevenZipLevel)

	if c.NamePrefix == "" {
		c.NamePrefix = defaultNamePrefix
	}

	// Leave one CPU free for the rest of the machine.
	c.Threads = max(1, runtime.NumCPU()-1)

	return c, nil
}

func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > 9 {
		return 9
	}
	return level
}
