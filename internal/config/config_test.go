package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danderson/idl"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zapcore"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissing(t *testing.T) {
	t.Setenv("IDL2JSON_GATEWAY_URL", "")
	got, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load of missing file failed: %v", err)
	}
	if diff := cmp.Diff(got, Default()); diff != "" {
		t.Errorf("missing file did not give defaults (-got+want):\n%s", diff)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("IDL2JSON_GATEWAY_URL", "")
	schema := writeFile(t, "svc.did", `type T = record { name : text }; service : { get : () -> (T) query; }`)
	path := writeFile(t, "config.yaml", `
gateway:
  url: http://localhost:4943/call
  budget: 5000
  timeout: 2s
output:
  bytes: hex
  long_bytes:
    min_len: 64
    format: sha256
  compact: true
schema:
  files: [`+schema+`]
  fetch: false
empty_args: error
logging:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := &Config{
		Gateway: GatewayConfig{URL: "http://localhost:4943/call", Budget: 5000, Timeout: "2s"},
		Output: OutputConfig{
			Bytes:     "hex",
			LongBytes: &LongBytesConfig{MinLen: 64, Format: "sha256"},
			Compact:   true,
		},
		Schema:    SchemaConfig{Files: []string{schema}, Fetch: false},
		EmptyArgs: "error",
		Logging:   LoggingConfig{Level: "debug"},
	}
	if diff := cmp.Diff(cfg, want); diff != "" {
		t.Fatalf("wrong config (-got+want):\n%s", diff)
	}

	if d, err := cfg.Timeout(); err != nil || d != 2*time.Second {
		t.Errorf("Timeout() = %v, %v, want 2s", d, err)
	}
	if p, err := cfg.EmptyArgsPolicy(); err != nil || p != idl.EmptyIsError {
		t.Errorf("EmptyArgsPolicy() = %v, %v, want error", p, err)
	}
	if l, err := cfg.LogLevel(); err != nil || l != zapcore.DebugLevel {
		t.Errorf("LogLevel() = %v, %v, want debug", l, err)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}
	if opts.BytesAs != idl.BytesHex || !opts.Compact {
		t.Errorf("wrong options %+v", opts)
	}
	if diff := cmp.Diff(opts.LongBytes, &idl.LongBytes{MinLen: 64, Format: idl.BytesSHA256}); diff != "" {
		t.Errorf("wrong long bytes (-got+want):\n%s", diff)
	}
	if len(opts.Schema) != 1 {
		t.Fatalf("got %d schema documents, want 1", len(opts.Schema))
	}
	if _, ok := opts.Schema.Method("get"); !ok {
		t.Errorf("schema has no get method")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("IDL2JSON_GATEWAY_URL", "http://override/")
	path := writeFile(t, "config.yaml", "gateway:\n  url: http://file/\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gateway.URL != "http://override/" {
		t.Errorf("gateway URL = %q, want env override", cfg.Gateway.URL)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("IDL2JSON_GATEWAY_URL", "")
	tests := []struct {
		name, config, wantErr string
	}{
		{"yaml", "gateway: [", "parsing config"},
		{"timeout", "gateway:\n  timeout: soon\n", "gateway.timeout"},
		{"bytes", "output:\n  bytes: base64\n", "output.bytes"},
		{"long bytes", "output:\n  long_bytes:\n    min_len: 4\n    format: nope\n", "output.long_bytes.format"},
		{"empty args", "empty_args: maybe\n", "empty_args"},
		{"level", "logging:\n  level: loud\n", "logging.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", tc.config))
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Load error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestOptionsBadSchema(t *testing.T) {
	cfg := Default()
	cfg.Schema.Files = []string{writeFile(t, "bad.did", "service : {")}
	if _, err := cfg.Options(); err == nil {
		t.Error("Options with unparseable schema succeeded")
	}
	cfg.Schema.Files = []string{filepath.Join(t.TempDir(), "missing.did")}
	if _, err := cfg.Options(); err == nil {
		t.Error("Options with missing schema succeeded")
	}
}

func TestSaveLoad(t *testing.T) {
	t.Setenv("IDL2JSON_GATEWAY_URL", "")
	cfg := Default()
	cfg.Gateway.URL = "http://example/"
	cfg.Output.LongBytes = &LongBytesConfig{MinLen: 10, Format: "hex"}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(got, cfg); diff != "" {
		t.Errorf("config changed in round trip (-got+want):\n%s", diff)
	}
}
