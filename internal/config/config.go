// Package config loads idl2json's configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/danderson/idl"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the idl2json configuration.
type Config struct {
	Gateway   GatewayConfig `yaml:"gateway"`
	Output    OutputConfig  `yaml:"output"`
	Schema    SchemaConfig  `yaml:"schema"`
	EmptyArgs string        `yaml:"empty_args"` // zero, error
	Logging   LoggingConfig `yaml:"logging"`
}

// GatewayConfig configures remote calls.
type GatewayConfig struct {
	URL     string `yaml:"url"`
	Budget  uint64 `yaml:"budget"`
	Timeout string `yaml:"timeout"`
}

// OutputConfig configures JSON rendering.
type OutputConfig struct {
	Bytes     string           `yaml:"bytes"` // numbers, hex, sha256
	LongBytes *LongBytesConfig `yaml:"long_bytes,omitempty"`
	Compact   bool             `yaml:"compact"`
}

// LongBytesConfig overrides the byte format for long blobs.
type LongBytesConfig struct {
	MinLen int    `yaml:"min_len"`
	Format string `yaml:"format"`
}

// SchemaConfig configures where type information comes from.
type SchemaConfig struct {
	// Files are schema documents to load, in priority order.
	Files []string `yaml:"files,omitempty"`
	// Fetch asks call targets for their schema.
	Fetch bool `yaml:"fetch"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Timeout: "30s",
		},
		Output: OutputConfig{
			Bytes: "numbers",
		},
		Schema: SchemaConfig{
			Fetch: true,
		},
		EmptyArgs: "zero",
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load loads configuration from a YAML file. Settings absent from the
// file keep their default value. If the file does not exist, Load
// returns the default configuration.
//
// The IDL2JSON_GATEWAY_URL environment variable, if set, overrides
// the configured gateway URL.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		// defaults
	} else if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if u := os.Getenv("IDL2JSON_GATEWAY_URL"); u != "" {
		cfg.Gateway.URL = u
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports all the invalid settings in c.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Timeout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.bytesFormat(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.longBytes(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.EmptyArgsPolicy(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Timeout returns the gateway call timeout. Zero means no timeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.Gateway.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Gateway.Timeout)
	if err != nil {
		return 0, fmt.Errorf("gateway.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("gateway.timeout: negative duration %s", d)
	}
	return d, nil
}

// EmptyArgsPolicy returns the configured policy for calls with no
// arguments.
func (c *Config) EmptyArgsPolicy() (idl.EmptyArgs, error) {
	var ret idl.EmptyArgs
	if c.EmptyArgs == "" {
		return ret, nil
	}
	if err := ret.UnmarshalText([]byte(c.EmptyArgs)); err != nil {
		return 0, fmt.Errorf("empty_args: %w", err)
	}
	return ret, nil
}

// LogLevel returns the configured minimum logging level.
func (c *Config) LogLevel() (zapcore.Level, error) {
	if c.Logging.Level == "" {
		return zapcore.WarnLevel, nil
	}
	l, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return l, nil
}

func (c *Config) bytesFormat() (idl.BytesFormat, error) {
	var ret idl.BytesFormat
	if c.Output.Bytes == "" {
		return ret, nil
	}
	if err := ret.UnmarshalText([]byte(c.Output.Bytes)); err != nil {
		return 0, fmt.Errorf("output.bytes: %w", err)
	}
	return ret, nil
}

func (c *Config) longBytes() (*idl.LongBytes, error) {
	lb := c.Output.LongBytes
	if lb == nil {
		return nil, nil
	}
	if lb.MinLen < 0 {
		return nil, fmt.Errorf("output.long_bytes.min_len: negative length %d", lb.MinLen)
	}
	ret := &idl.LongBytes{MinLen: lb.MinLen}
	if err := ret.Format.UnmarshalText([]byte(lb.Format)); err != nil {
		return nil, fmt.Errorf("output.long_bytes.format: %w", err)
	}
	return ret, nil
}

// Options returns the conversion options described by c, loading and
// parsing the configured schema files.
func (c *Config) Options() (*idl.Options, error) {
	bf, err := c.bytesFormat()
	if err != nil {
		return nil, err
	}
	lb, err := c.longBytes()
	if err != nil {
		return nil, err
	}
	schema, err := LoadSchema(c.Schema.Files)
	if err != nil {
		return nil, err
	}
	return &idl.Options{
		BytesAs:   bf,
		LongBytes: lb,
		Schema:    schema,
		Compact:   c.Output.Compact,
	}, nil
}

// LoadSchema reads and parses the given schema documents, in order.
func LoadSchema(paths []string) (idl.Schema, error) {
	var ret idl.Schema
	for _, path := range paths {
		bs, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading schema: %w", err)
		}
		doc, err := idl.ParseDocument(string(bs))
		if err != nil {
			return nil, fmt.Errorf("parsing schema %s: %w", path, err)
		}
		ret = append(ret, doc)
	}
	return ret, nil
}

// Save writes c to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
