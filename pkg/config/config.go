// Package config loads the settings of the dashboard from a TOML file and the
// environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

const appName = "f1visualizer"

// Duration reads TOML strings such as "24h" or "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "config: invalid duration %q", text)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Addr         string   `toml:"addr"`
	APIURL       string   `toml:"api_url"`
	CacheDir     string   `toml:"cache_dir"`
	ResourcesDir string   `toml:"resources_dir"`
	CacheTTL     Duration `toml:"cache_ttl"`
	CachePurge   Duration `toml:"cache_purge_interval"`
	FirstSeason  int      `toml:"first_season"`
	LogLevel     string   `toml:"log_level"`
	HTTPTimeout  Duration `toml:"http_timeout"`
	// Offline serves the bundled sample season instead of calling the API.
	Offline bool `toml:"offline"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:         ":8080",
		APIURL:       "https://api.openf1.org/v1",
		CacheDir:     filepath.Join(XDGCacheHome(), appName),
		ResourcesDir: filepath.Join(XDGCacheHome(), appName, "resources"),
		CacheTTL:     Duration{7 * 24 * time.Hour},
		CachePurge:   Duration{time.Hour},
		FirstSeason:  2023,
		LogLevel:     "info",
		HTTPTimeout:  Duration{30 * time.Second},
	}
}

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGCacheHome returns the XDG cache home or a default fallback.
func XDGCacheHome() string {
	if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".cache")
}

// DefaultPath returns the default TOML config path.
func DefaultPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// Load reads the TOML file at path over the defaults, then applies the
// environment. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "config: decoding %s", path)
		}
	} else if !os.IsNotExist(err) {
		return cfg, errors.Wrapf(err, "config: reading %s", path)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("WEBSERVER_ADDRESS"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("OPENF1_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("F1VIZ_CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv("F1VIZ_OFFLINE"); v != "" {
		offline, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "config: F1VIZ_OFFLINE=%q", v)
		}
		c.Offline = offline
	}
	return nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("config: addr is empty")
	}
	if c.CacheDir == "" {
		return errors.New("config: cache_dir is empty")
	}
	if c.FirstSeason < 1950 {
		return errors.Errorf("config: first_season %d is before the first championship", c.FirstSeason)
	}
	if c.CacheTTL.Duration < 0 || c.HTTPTimeout.Duration < 0 {
		return errors.New("config: durations cannot be negative")
	}
	return nil
}
