package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/creachadair/mds/slice"
	"github.com/danderson/idl"
	"github.com/danderson/idl/internal/config"
	"go.uber.org/zap"
)

// setup loads the configuration and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	path := globalArgs.Config
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, nil, fmt.Errorf("finding config directory: %w", err)
		}
		path = filepath.Join(dir, "idl2json", "config.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return nil, nil, err
	}
	if globalArgs.Verbose {
		level = zap.DebugLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	log, err := zc.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	log.Debug("loaded config", zap.String("path", path))
	return cfg, log, nil
}

// splitList splits a comma-separated flag value, dropping empty
// elements.
func splitList(s string) []string {
	return slices.Collect(slice.Select(strings.Split(s, ","), func(s string) bool {
		return strings.TrimSpace(s) != ""
	}))
}

// loadSchema loads the schema files named in the flag value, followed
// by the configured ones.
func loadSchema(flagFiles string, cfg *config.Config) (idl.Schema, error) {
	return config.LoadSchema(slices.Concat(splitList(flagFiles), cfg.Schema.Files))
}

// outputOptions returns the configured conversion options, with flag
// overrides applied.
func outputOptions(cfg *config.Config, schemaFiles, bytes, longBytes string, compact bool) (*idl.Options, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	if extra := splitList(schemaFiles); len(extra) > 0 {
		s, err := config.LoadSchema(extra)
		if err != nil {
			return nil, err
		}
		opts.Schema = slices.Concat(s, opts.Schema)
	}
	if bytes != "" {
		if err := opts.BytesAs.UnmarshalText([]byte(bytes)); err != nil {
			return nil, fmt.Errorf("--bytes: %w", err)
		}
	}
	if longBytes != "" {
		if opts.LongBytes, err = idl.ParseLongBytes(longBytes); err != nil {
			return nil, fmt.Errorf("--long-bytes: %w", err)
		}
	}
	if compact {
		opts.Compact = true
	}
	return opts, nil
}

func emptyPolicy(flagVal string, cfg *config.Config) (idl.EmptyArgs, error) {
	if flagVal == "" {
		return cfg.EmptyArgsPolicy()
	}
	var ret idl.EmptyArgs
	if err := ret.UnmarshalText([]byte(flagVal)); err != nil {
		return 0, fmt.Errorf("--empty: %w", err)
	}
	return ret, nil
}

// callContext returns ctx bounded by the configured gateway timeout.
func callContext(ctx context.Context, cfg *config.Config) (context.Context, context.CancelFunc, error) {
	d, err := cfg.Timeout()
	if err != nil {
		return nil, nil, err
	}
	if d == 0 {
		ctx, cancel := context.WithCancel(ctx)
		return ctx, cancel, nil
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	return ctx, cancel, nil
}

// readInput returns the hex message from args, or from stdin if args
// is empty, without whitespace or a leading 0x.
func readInput(args []string) (string, error) {
	var in string
	if len(args) > 0 {
		in = args[0]
	} else {
		bs, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		in = string(bs)
	}
	in = strings.Join(strings.Fields(in), "")
	in = strings.TrimPrefix(in, "0x")
	return in, nil
}

func printJSON(j any, opts *idl.Options) error {
	bs, err := idl.Marshal(j, opts)
	if err != nil {
		return err
	}
	bs = append(bs, '\n')
	_, err = os.Stdout.Write(bs)
	return err
}
