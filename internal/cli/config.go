package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds driver defaults that can be overridden by CLI flags.
// The core engine never reads this type directly - reduce.go resolves it
// into already-built dd.Splitter/dd.OutcomeCache/dd.CombinedIterator
// values before constructing the engine.
type Config struct {
	Cache               string
	Split               string
	Granularity         int
	SubsetIterator      string
	ComplementIterator  string
	ComplementFirst     bool
	Parallel            bool
	Jobs                int
	MaxUtilization      float64
	CacheFail           bool
	CacheEvictAfterFail bool
	DDStar              bool
	Atom                string
	Cleanup             bool
}

// configOverlay is the JSON-facing shape of a config file. Fields that
// default to true (CacheEvictAfterFail, DDStar, Cleanup) use *bool so
// mergeInto can tell "absent from this file" from "explicitly set to
// false" - a plain bool would make the two indistinguishable and a
// config file could never turn one of those off.
type configOverlay struct {
	Cache               string  `json:"cache,omitempty"`
	Split               string  `json:"split,omitempty"`
	Granularity         int     `json:"granularity,omitempty"`
	SubsetIterator      string  `json:"subset_iterator,omitempty"`     //nolint:tagliatelle
	ComplementIterator  string  `json:"complement_iterator,omitempty"` //nolint:tagliatelle
	ComplementFirst     bool    `json:"complement_first,omitempty"`    //nolint:tagliatelle
	Parallel            bool    `json:"parallel,omitempty"`
	Jobs                int     `json:"jobs,omitempty"`
	MaxUtilization      float64 `json:"max_utilization,omitempty"` //nolint:tagliatelle
	CacheFail           bool    `json:"cache_fail,omitempty"`      //nolint:tagliatelle
	CacheEvictAfterFail *bool   `json:"cache_evict_after_fail,omitempty"` //nolint:tagliatelle
	DDStar              *bool   `json:"dd_star,omitempty"`                //nolint:tagliatelle
	Atom                string  `json:"atom,omitempty"`
	Cleanup             *bool   `json:"cleanup,omitempty"`
}

// DefaultConfig returns the driver's built-in defaults, equivalent to
// the reference CLI's argparse defaults.
func DefaultConfig() Config {
	return Config{
		Cache:               "config",
		Split:               "zeller",
		Granularity:         2,
		SubsetIterator:      "forward",
		ComplementIterator:  "forward",
		Jobs:                1,
		CacheEvictAfterFail: true,
		DDStar:              true,
		Atom:                "line",
		Cleanup:             true,
	}
}

// ConfigFileName is the project-local config file name, checked in
// the working directory when no explicit --config path is given.
const ConfigFileName = ".ddreduce.json"

// LoadConfig layers the global user config, the project config (or an
// explicit file in its place), and the built-in defaults, following the
// same global -> project-or-explicit precedence the teacher's ticket driver
// uses for its own JSONC config file.
func LoadConfig(workDir, configPath string, env []string) (Config, error) {
	cfg := DefaultConfig()

	if globalPath := globalConfigPath(env); globalPath != "" {
		if err := mergeConfigFile(&cfg, globalPath, false); err != nil {
			return Config{}, err
		}
	}

	projectPath := configPath
	mustExist := configPath != ""

	if projectPath == "" {
		projectPath = filepath.Join(workDir, ConfigFileName)
	} else if !filepath.IsAbs(projectPath) {
		projectPath = filepath.Join(workDir, projectPath)
	}

	if err := mergeConfigFile(&cfg, projectPath, mustExist); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func globalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := cutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "ddreduce", "config.json")
		}
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ddreduce", "config.json")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "ddreduce", "config.json")
}

func cutPrefix(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || s[:len(prefix)] != prefix {
		return "", false
	}

	return s[len(prefix):], true
}

// mergeConfigFile reads a JSONC config file at path and overlays its
// fields onto cfg. A missing file is tolerated unless mustExist.
func mergeConfigFile(cfg *Config, path string, mustExist bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return nil
		}

		return fmt.Errorf("reading config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	var overlay configOverlay
	if err := json.Unmarshal(standardized, &overlay); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	mergeInto(cfg, overlay)

	return nil
}

// mergeInto overlays any field overlay sets onto cfg. String/int/float
// fields overlay when non-zero; the boolean fields that default to
// false (ComplementFirst, Parallel, CacheFail) overlay only when true,
// since a config file has no way to "explicitly" request the zero
// value for those and the built-in default already covers it. The
// three booleans that default to true use *bool so they can be
// explicitly turned off.
func mergeInto(cfg *Config, overlay configOverlay) {
	if overlay.Cache != "" {
		cfg.Cache = overlay.Cache
	}

	if overlay.Split != "" {
		cfg.Split = overlay.Split
	}

	if overlay.Granularity != 0 {
		cfg.Granularity = overlay.Granularity
	}

	if overlay.SubsetIterator != "" {
		cfg.SubsetIterator = overlay.SubsetIterator
	}

	if overlay.ComplementIterator != "" {
		cfg.ComplementIterator = overlay.ComplementIterator
	}

	if overlay.ComplementFirst {
		cfg.ComplementFirst = true
	}

	if overlay.Parallel {
		cfg.Parallel = true
	}

	if overlay.Jobs != 0 {
		cfg.Jobs = overlay.Jobs
	}

	if overlay.MaxUtilization != 0 {
		cfg.MaxUtilization = overlay.MaxUtilization
	}

	if overlay.CacheFail {
		cfg.CacheFail = true
	}

	if overlay.CacheEvictAfterFail != nil {
		cfg.CacheEvictAfterFail = *overlay.CacheEvictAfterFail
	}

	if overlay.DDStar != nil {
		cfg.DDStar = *overlay.DDStar
	}

	if overlay.Atom != "" {
		cfg.Atom = overlay.Atom
	}

	if overlay.Cleanup != nil {
		cfg.Cleanup = *overlay.Cleanup
	}
}
