// Package config loads artgit settings from YAML files and the environment.
//
// Values are layered: built-in defaults, then ~/.artgit.yaml, then
// .artgit.yaml in the working directory, then environment variables.
// Keys absent from a file leave the lower layer untouched.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/javanhut/artgit/internal/errs"
	"github.com/javanhut/artgit/internal/graphlayout"
	"github.com/javanhut/artgit/internal/imagegen"
)

// FileName is the config file name, both global and local.
const FileName = ".artgit.yaml"

// Environment overrides
const (
	EnvAPIKey       = "ARTGIT_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvBaseURL      = "ARTGIT_BASE_URL"
)

// ErrUnknownKey is returned by GetValue and SetValue for keys outside the
// known sections.
var ErrUnknownKey = fmt.Errorf("%w: unknown config key", errs.ErrValidation)

// Config represents artgit configuration
type Config struct {
	Image    ImageConfig    `yaml:"image"`
	Layout   LayoutConfig   `yaml:"layout"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Log      LogConfig      `yaml:"log"`
	Color    ColorConfig    `yaml:"color"`
}

// ImageConfig holds the image API connection.
type ImageConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key,omitempty"`
	Model   string        `yaml:"model"`
	Size    string        `yaml:"size"`
	Quality string        `yaml:"quality"`
	Timeout time.Duration `yaml:"timeout"`
}

// LayoutConfig holds the graph simulation constants.
type LayoutConfig struct {
	SpringLen float64       `yaml:"spring_len"`
	SpringK   float64       `yaml:"spring_k"`
	ChargeK   float64       `yaml:"charge_k"`
	Damping   float64       `yaml:"damping"`
	SpeedEps  float64       `yaml:"speed_eps"`
	MinSteps  int           `yaml:"min_steps"`
	Step      time.Duration `yaml:"step"`
}

// SnapshotConfig holds commit settings.
type SnapshotConfig struct {
	ThumbnailSize int `yaml:"thumbnail_size"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// ColorConfig holds color settings
type ColorConfig struct {
	UI bool `yaml:"ui"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	img := imagegen.DefaultConfig()
	lay := graphlayout.DefaultParams()
	return &Config{
		Image: ImageConfig{
			BaseURL: img.BaseURL,
			Model:   img.Model,
			Size:    img.Size,
			Quality: img.Quality,
			Timeout: img.Timeout,
		},
		Layout: LayoutConfig{
			SpringLen: lay.SpringLen,
			SpringK:   lay.SpringK,
			ChargeK:   lay.ChargeK,
			Damping:   lay.Damping,
			SpeedEps:  lay.SpeedEps,
			MinSteps:  lay.MinSteps,
			Step:      lay.Step,
		},
		Snapshot: SnapshotConfig{ThumbnailSize: 256},
		Log:      LogConfig{Level: "warn", Format: "text"},
		Color:    ColorConfig{UI: true},
	}
}

// GlobalPath returns the path to the global config file
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, FileName), nil
}

// LoadConfig loads the global and local config files and applies the
// environment. Missing files are skipped; malformed ones are errors.
func LoadConfig() (*Config, error) {
	var paths []string
	if global, err := GlobalPath(); err == nil {
		paths = append(paths, global)
	}
	paths = append(paths, FileName)
	cfg, err := Load(paths...)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// Load layers the given files over the defaults, later files winning.
func Load(paths ...string) (*Config, error) {
	cfg := DefaultConfig()
	for _, p := range paths {
		if err := mergeFile(cfg, p); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: config %s: %v", errs.ErrValidation, path, err)
	}
	return nil
}

// ApplyEnv overrides file values with environment variables.
func (c *Config) ApplyEnv() {
	if key := os.Getenv(EnvAPIKey); key != "" {
		c.Image.APIKey = key
	} else if key := os.Getenv(EnvOpenAIAPIKey); key != "" && c.Image.APIKey == "" {
		c.Image.APIKey = key
	}
	if u := os.Getenv(EnvBaseURL); u != "" {
		c.Image.BaseURL = u
	}
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0600)
}

// ImageClientConfig converts the image section for imagegen.NewClient.
func (c *Config) ImageClientConfig() imagegen.Config {
	return imagegen.Config{
		BaseURL: c.Image.BaseURL,
		APIKey:  c.Image.APIKey,
		Model:   c.Image.Model,
		Size:    c.Image.Size,
		Quality: c.Image.Quality,
		Timeout: c.Image.Timeout,
	}
}

// LayoutParams converts the layout section, keeping stock values for the
// constants it does not expose.
func (c *Config) LayoutParams() graphlayout.Params {
	p := graphlayout.DefaultParams()
	p.SpringLen = c.Layout.SpringLen
	p.SpringK = c.Layout.SpringK
	p.ChargeK = c.Layout.ChargeK
	p.Damping = c.Layout.Damping
	p.SpeedEps = c.Layout.SpeedEps
	p.MinSteps = c.Layout.MinSteps
	if c.Layout.Step > 0 {
		p.Step = c.Layout.Step
	}
	return p
}

type field struct {
	get func(*Config) string
	set func(*Config, string) error
}

func stringField(ptr func(*Config) *string) field {
	return field{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error { *ptr(c) = v; return nil },
	}
}

func floatField(ptr func(*Config) *float64) field {
	return field{
		get: func(c *Config) string { return strconv.FormatFloat(*ptr(c), 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			*ptr(c) = f
			return nil
		},
	}
}

func intField(ptr func(*Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*ptr(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*ptr(c) = n
			return nil
		},
	}
}

func boolField(ptr func(*Config) *bool) field {
	return field{
		get: func(c *Config) string { return strconv.FormatBool(*ptr(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			*ptr(c) = b
			return nil
		},
	}
}

func durationField(ptr func(*Config) *time.Duration) field {
	return field{
		get: func(c *Config) string { return ptr(c).String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			*ptr(c) = d
			return nil
		},
	}
}

var fields = map[string]field{
	"image.base_url": stringField(func(c *Config) *string { return &c.Image.BaseURL }),
	"image.model":    stringField(func(c *Config) *string { return &c.Image.Model }),
	"image.size":     stringField(func(c *Config) *string { return &c.Image.Size }),
	"image.quality":  stringField(func(c *Config) *string { return &c.Image.Quality }),
	"image.timeout":  durationField(func(c *Config) *time.Duration { return &c.Image.Timeout }),

	"layout.spring_len": floatField(func(c *Config) *float64 { return &c.Layout.SpringLen }),
	"layout.spring_k":   floatField(func(c *Config) *float64 { return &c.Layout.SpringK }),
	"layout.charge_k":   floatField(func(c *Config) *float64 { return &c.Layout.ChargeK }),
	"layout.damping":    floatField(func(c *Config) *float64 { return &c.Layout.Damping }),
	"layout.speed_eps":  floatField(func(c *Config) *float64 { return &c.Layout.SpeedEps }),
	"layout.min_steps":  intField(func(c *Config) *int { return &c.Layout.MinSteps }),
	"layout.step":       durationField(func(c *Config) *time.Duration { return &c.Layout.Step }),

	"snapshot.thumbnail_size": intField(func(c *Config) *int { return &c.Snapshot.ThumbnailSize }),

	"log.level":  stringField(func(c *Config) *string { return &c.Log.Level }),
	"log.format": stringField(func(c *Config) *string { return &c.Log.Format }),

	"color.ui": boolField(func(c *Config) *bool { return &c.Color.UI }),
}

// Keys returns every settable key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lookup(key string) (field, error) {
	if len(strings.Split(key, ".")) != 2 {
		return field{}, fmt.Errorf("%w: %s (expected format: section.key)", ErrUnknownKey, key)
	}
	f, ok := fields[key]
	if !ok {
		return field{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return f, nil
}

// GetValue retrieves a configuration value by key (e.g., "image.model")
func (c *Config) GetValue(key string) (string, error) {
	f, err := lookup(key)
	if err != nil {
		return "", err
	}
	return f.get(c), nil
}

// SetValue sets a configuration value by key (e.g., "layout.damping", "0.9")
func (c *Config) SetValue(key, value string) error {
	f, err := lookup(key)
	if err != nil {
		return err
	}
	if err := f.set(c, value); err != nil {
		return fmt.Errorf("%w: %s: %v", errs.ErrValidation, key, err)
	}
	return nil
}

// SetFileValue updates one key in the file at path. Keys the file did not
// set are written out with their defaults.
func SetFileValue(path, key, value string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	if err := cfg.SetValue(key, value); err != nil {
		return err
	}
	return Save(path, cfg)
}
