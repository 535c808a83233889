package repair

import (
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Config holds every tunable knob: resolver binary, iteration budget,
// timeouts, and the extractor endpoint. Precedence, highest first, is CLI
// flag > environment variable > .conflictrepair.toml > built-in default;
// LoadConfig applies the file and environment tiers, leaving the CLI flag
// tier to cmd/conflictrepair to apply on top.
type Config struct {
	ResolverBin         string
	MaxIterations       int
	ResolverTimeout     time.Duration
	ResolverTimeoutSec  int
	ExtractorURL        string
	ExtractorTimeout    time.Duration
	ExtractorTimeoutSec int
	UseExtractor        bool
	Verbose             bool
	CatalogTable        map[string][]string
}

// DefaultConfig returns the built-in defaults, before file or
// environment overrides are applied.
func DefaultConfig() Config {
	return Config{
		ResolverBin:         "pip-compile",
		MaxIterations:       DefaultMaxIterations,
		ResolverTimeout:     60 * time.Second,
		ResolverTimeoutSec:  60,
		ExtractorTimeout:    10 * time.Second,
		ExtractorTimeoutSec: 10,
		UseExtractor:        false,
		CatalogTable:        map[string][]string{},
	}
}

// rawConfig is the TOML file shape, kept separate from Config so
// that absent keys don't clobber defaults already set by the caller.
type rawConfig struct {
	ResolverBin         string              `toml:"resolver_bin"`
	MaxIterations       int                 `toml:"max_iterations"`
	ResolverTimeoutSec  int                 `toml:"resolver_timeout_sec"`
	ExtractorURL        string              `toml:"extractor_url"`
	ExtractorTimeoutSec int                 `toml:"extractor_timeout_sec"`
	UseExtractor        bool                `toml:"use_extractor"`
	Verbose             bool                `toml:"verbose"`
	Catalog             map[string][]string `toml:"catalog"`
}

// LoadConfig builds a Config starting from DefaultConfig, applying
// path (a .conflictrepair.toml file, skipped silently if it does not
// exist), then environment variables: RESOLVER_BIN, EXTRACTOR_*,
// MAX_ITERATIONS, and RESOLVER_TIMEOUT_SEC.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var raw rawConfig
			if uerr := toml.Unmarshal(data, &raw); uerr != nil {
				return Config{}, errors.Wrapf(uerr, "parsing config file %q", path)
			}
			applyRaw(&cfg, raw)
		case os.IsNotExist(err):
			// no config file: defaults stand.
		default:
			return Config{}, errors.Wrapf(err, "reading config file %q", path)
		}
	}

	applyEnv(&cfg)
	cfg.ResolverTimeout = time.Duration(cfg.ResolverTimeoutSec) * time.Second
	cfg.ExtractorTimeout = time.Duration(cfg.ExtractorTimeoutSec) * time.Second
	return cfg, nil
}

func applyRaw(cfg *Config, raw rawConfig) {
	if raw.ResolverBin != "" {
		cfg.ResolverBin = raw.ResolverBin
	}
	if raw.MaxIterations != 0 {
		cfg.MaxIterations = raw.MaxIterations
	}
	if raw.ResolverTimeoutSec != 0 {
		cfg.ResolverTimeoutSec = raw.ResolverTimeoutSec
	}
	if raw.ExtractorTimeoutSec != 0 {
		cfg.ExtractorTimeoutSec = raw.ExtractorTimeoutSec
	}
	if raw.ExtractorURL != "" {
		cfg.ExtractorURL = raw.ExtractorURL
	}
	for name, versions := range raw.Catalog {
		cfg.CatalogTable[name] = versions
	}
	cfg.UseExtractor = cfg.UseExtractor || raw.UseExtractor
	cfg.Verbose = cfg.Verbose || raw.Verbose
}

// applyEnv overrides cfg from environment variables: RESOLVER_BIN,
// EXTRACTOR_URL, EXTRACTOR_TIMEOUT_SEC, MAX_ITERATIONS, and
// RESOLVER_TIMEOUT_SEC.
func applyEnv(cfg *Config) {
	if v := os.Getenv("RESOLVER_BIN"); v != "" {
		cfg.ResolverBin = v
	}
	if v := os.Getenv("MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxIterations = n
		}
	}
	if v := os.Getenv("RESOLVER_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ResolverTimeoutSec = n
		}
	}
	if v := os.Getenv("EXTRACTOR_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ExtractorTimeoutSec = n
		}
	}
	if v := os.Getenv("EXTRACTOR_URL"); v != "" {
		cfg.ExtractorURL = v
		cfg.UseExtractor = true
	}
}
