package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"zipvault/internal/backup"
	"zipvault/internal/config"
	"zipvault/internal/progress"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	flags := parseFlags()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg = flags.overlay(cfg)
	cfg, err = cfg.Finalize()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	executor := backup.New(cfg, progress.LogObserver{})
	outPath, err := executor.Run()
	if err != nil {
		log.Error().Err(err).Msg("backup failed")
		os.Exit(2)
	}
	log.Info().Str("archive", outPath).Msg("backup complete")
}

type cliFlags struct {
	configPath    string
	sources       []string
	outputDir     string
	excludedDirs  []string
	format        string
	zipLevel      int
	sevenZipLevel int
	namePrefix    string
}

func parseFlags() cliFlags {
	var flags cliFlags
	pflag.StringVar(&flags.configPath, "config", "config.yml", "path to YAML configuration file")
	pflag.StringArrayVar(&flags.sources, "source", nil, "source directory to back up (repeatable)")
	pflag.StringVar(&flags.outputDir, "output", "", "directory receiving the archive and its manifest")
	pflag.StringArrayVar(&flags.excludedDirs, "exclude", nil, "directory subtree to exclude (repeatable)")
	pflag.StringVar(&flags.format, "format", "", "preferred archive format: zip or 7z")
	pflag.IntVar(&flags.zipLevel, "zip-level", 0, "zip Deflate level 0-9")
	pflag.IntVar(&flags.sevenZipLevel, "7z-level", 0, "7z LZMA2 level 0-9")
	pflag.StringVar(&flags.namePrefix, "prefix", "", "archive file name prefix")
	pflag.Parse()
	return flags
}

// overlay applies explicitly set flags on top of the file-loaded
// configuration. Unset flags leave the file values alone.
func (f cliFlags) overlay(cfg config.Config) config.Config {
	changed := pflag.CommandLine.Changed
	if changed("source") {
		cfg.Sources = f.sources
	}
	if changed("output") {
		cfg.OutputDir = f.outputDir
	}
	if changed("exclude") {
		cfg.ExcludedDirs = f.excludedDirs
	}
	if changed("format") {
		cfg.PreferredFormat = f.format
	}
	if changed("zip-level") {
		cfg.ZipLevel = f.zipLevel
	}
	if changed("7z-level") {
		cfg.SevenZipLevel = f.sevenZipLevel
	}
	if changed("prefix") {
		cfg.NamePrefix = f.namePrefix
	}
	return cfg
}
