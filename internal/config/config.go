package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Environment variables overriding file values.
const (
	EnvChannelCapacity = "REACTOR_CHANNEL_CAPACITY"
	EnvJournal         = "REACTOR_JOURNAL"
)

// ErrUnsupportedFormat is returned for config files with an unknown
// extension.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config holds all reactor settings.
type Config struct {
	Channel ChannelConfig `yaml:"channel" toml:"channel" json:"channel"`
	Log     LogConfig     `yaml:"log" toml:"log" json:"log"`
	Journal JournalConfig `yaml:"journal" toml:"journal" json:"journal"`
	Counter CounterConfig `yaml:"counter" toml:"counter" json:"counter"`
}

// ChannelConfig configures the message channel.
type ChannelConfig struct {
	Capacity int `yaml:"capacity" toml:"capacity" json:"capacity"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"`
}

// JournalConfig configures the SQLite journal.
type JournalConfig struct {
	Path string `yaml:"path" toml:"path" json:"path"`
}

// CounterConfig configures the counter model.
type CounterConfig struct {
	// AutoSaveEvery requests a save once the value drifted this far from
	// the saved value. 0 disables automatic saves.
	AutoSaveEvery int64 `yaml:"auto_save_every" toml:"auto_save_every" json:"auto_save_every"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Channel: ChannelConfig{Capacity: 64},
		Log:     LogConfig{Level: "info", Format: "text"},
		Journal: JournalConfig{Path: "reactor.db"},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Channel.Capacity < 1 {
		return fmt.Errorf("channel.capacity must be positive, got %d", c.Channel.Capacity)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Counter.AutoSaveEvery < 0 {
		return fmt.Errorf("counter.auto_save_every must not be negative, got %d", c.Counter.AutoSaveEvery)
	}
	return nil
}

// Load reads the file at path, applies environment overrides and validates
// the result. An empty path yields the defaults with overrides applied.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		cfg, err = Parse(data, filepath.Ext(path))
		if err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext (".yaml", ".toml", ...)
// over the defaults. The result is not validated.
func Parse(data []byte, ext string) (Config, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".toml":
		return parseTOML(data)
	case ".cue":
		return parseCUE(data)
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func parseYAML(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

func parseTOML(data []byte) (Config, error) {
	cfg := Default()
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

func parseCUE(data []byte) (Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("schema: %w", err)
	}

	value := ctx.CompileBytes(data)
	if err := value.Err(); err != nil {
		return Config{}, err
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables looked up with
// lookup (os.LookupEnv in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvChannelCapacity); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvChannelCapacity, err)
		}
		c.Channel.Capacity = n
	}
	if v, ok := lookup(EnvJournal); ok {
		c.Journal.Path = strings.TrimSpace(v)
	}
	return nil
}
