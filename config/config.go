// Package config loads gtleap settings from a YAML file and GTLEAP_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/karasz/gtleap/clock"
	"github.com/karasz/gtleap/source"
)

// Default values applied by Load.
const (
	DefaultFormat   = "ietf"
	DefaultClock    = "system"
	DefaultLogLevel = "info"
	DefaultRefresh  = 24 * time.Hour
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GTLEAP_"

// Config holds the settings of the gtleap tools. Dates are YYYY-MM-DD.
type Config struct {
	// Bulletin is a leap second file to load instead of the builtin table.
	Bulletin string `yaml:"bulletin"`
	// Format of Bulletin: ietf, tzdb or dated.
	Format     string `yaml:"format"`
	VerifyHash bool   `yaml:"verify_hash"`

	// Registry is a file holding a raw registry leap second blob that
	// extends the table.
	Registry        string `yaml:"registry"`
	RegistryExpires string `yaml:"registry_expires"`

	// Epoch moves the start of table coverage before its first entry.
	Epoch string `yaml:"epoch"`

	Refresh  time.Duration `yaml:"refresh"`
	Clock    string        `yaml:"clock"`
	LogLevel string        `yaml:"log_level"`
}

// Load reads the YAML file at path, if any, applies environment overrides
// and fills in defaults. Unknown keys in the file are an error.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	setConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"BULLETIN":         &c.Bulletin,
		"FORMAT":           &c.Format,
		"REGISTRY":         &c.Registry,
		"REGISTRY_EXPIRES": &c.RegistryExpires,
		"EPOCH":            &c.Epoch,
		"CLOCK":            &c.Clock,
		"LOG_LEVEL":        &c.LogLevel,
	}
	for key, dst := range strs {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	if v := getenv(EnvPrefix + "VERIFY_HASH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %sVERIFY_HASH: %w", EnvPrefix, err)
		}
		c.VerifyHash = b
	}
	if v := getenv(EnvPrefix + "REFRESH"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %sREFRESH: %w", EnvPrefix, err)
		}
		c.Refresh = d
	}
	return nil
}

// setConfigDefaults fills zero fields with default values.
func setConfigDefaults(c *Config) {
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.Clock == "" {
		c.Clock = DefaultClock
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Refresh <= 0 {
		c.Refresh = DefaultRefresh
	}
}

// Validate checks that every setting parses.
func (c Config) Validate() error {
	if _, err := source.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("config: format: %w", err)
	}
	if _, err := parseDate(c.RegistryExpires); err != nil {
		return fmt.Errorf("config: registry_expires: %w", err)
	}
	if _, err := parseDate(c.Epoch); err != nil {
		return fmt.Errorf("config: epoch: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := clock.New(c.Clock); err != nil {
		return fmt.Errorf("config: clock: %w", err)
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log_level: %w", err)
	}
	return l, nil
}

// ClockSource returns the configured clock.
func (c Config) ClockSource() (clock.Source, error) {
	return clock.New(c.Clock)
}

// Source returns the leap second source the settings describe: the builtin
// table or a bulletin file, optionally extended by a registry blob. Files
// are read again on every call to Records so a refresh sees new data.
func (c Config) Source() (source.Source, error) {
	var src source.Source = source.Builtin()
	if c.Bulletin != "" {
		format, err := source.ParseFormat(c.Format)
		if err != nil {
			return nil, err
		}
		src = bulletinFile{path: c.Bulletin, format: format, verifyHash: c.VerifyHash}
	}
	if c.Registry != "" {
		expires, err := parseDate(c.RegistryExpires)
		if err != nil {
			return nil, err
		}
		src = registryFile{path: c.Registry, base: src, expires: expires}
	}
	if c.Epoch != "" {
		epoch, err := parseDate(c.Epoch)
		if err != nil {
			return nil, err
		}
		src = withEpoch{Source: src, epoch: epoch}
	}
	return src, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}

type bulletinFile struct {
	path       string
	format     source.Format
	verifyHash bool
}

func (b bulletinFile) Records() (source.Raw, error) {
	f, err := os.Open(b.path)
	if err != nil {
		return source.Raw{}, err
	}
	defer f.Close()
	return source.Bulletin{R: f, Format: b.format, VerifyHash: b.verifyHash}.Records()
}

type registryFile struct {
	path    string
	base    source.Source
	expires time.Time
}

func (r registryFile) Records() (source.Raw, error) {
	blob, err := os.ReadFile(r.path)
	if err != nil {
		return source.Raw{}, err
	}
	recs, err := source.DecodeRegistry(blob, source.RegistryBaseOffset)
	if err != nil {
		return source.Raw{}, fmt.Errorf("%s: %w", r.path, err)
	}
	return source.Incremental{Base: r.base, Added: recs, Expires: r.expires}.Records()
}

type withEpoch struct {
	source.Source
	epoch time.Time
}

func (w withEpoch) Records() (source.Raw, error) {
	raw, err := w.Source.Records()
	if err != nil {
		return source.Raw{}, err
	}
	raw.Epoch = w.epoch
	return raw, nil
}
