package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
	if cfg.Listen != "127.0.0.1:3491" {
		t.Errorf("default listen = %q", cfg.Listen)
	}
	if cfg.Printer.ChunkSize != 512 {
		t.Errorf("default chunk size = %d, want 512", cfg.Printer.ChunkSize)
	}
	if cfg.IdentityPath != DefaultIdentityPath() {
		t.Errorf("default identity path = %q, want %q", cfg.IdentityPath, DefaultIdentityPath())
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("identity_path: ~/printers/pos.yaml\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := filepath.Join(home, "printers", "pos.yaml")
	if cfg.IdentityPath != want {
		t.Errorf("identity path = %q, want %q", cfg.IdentityPath, want)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("listen: \"0.0.0.0:8080\"\nprinter:\n  name_hint: RPP\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != "0.0.0.0:8080" {
		t.Errorf("listen = %q, want override", cfg.Listen)
	}
	if cfg.Printer.NameHint != "RPP" {
		t.Errorf("name hint = %q, want RPP", cfg.Printer.NameHint)
	}
	// Unset fields keep their defaults.
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want default info", cfg.LogLevel)
	}
	if cfg.Printer.InterChunkDelayMS != 30 {
		t.Errorf("inter-chunk delay = %d, want default 30", cfg.Printer.InterChunkDelayMS)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() of malformed YAML should fail")
	}
}

func TestValidate(t *testing.T) {
	mutate := func(f func(*Config)) *Config {
		cfg := Default()
		f(cfg)
		return cfg
	}

	cases := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{"default is valid", Default(), false},
		{"empty listen", mutate(func(c *Config) { c.Listen = "" }), true},
		{"listen without port", mutate(func(c *Config) { c.Listen = "localhost" }), true},
		{"zero chunk size", mutate(func(c *Config) { c.Printer.ChunkSize = 0 }), true},
		{"negative delay", mutate(func(c *Config) { c.Printer.InterChunkDelayMS = -1 }), true},
		{"negative retries", mutate(func(c *Config) { c.Printer.MaxRetries = -1 }), true},
		{"zero scan timeout", mutate(func(c *Config) { c.Printer.ScanTimeoutS = 0 }), true},
		{"empty identity path", mutate(func(c *Config) { c.IdentityPath = "" }), true},
		{"bad log level", mutate(func(c *Config) { c.LogLevel = "verbose" }), true},
		{"debug log level", mutate(func(c *Config) { c.LogLevel = "debug" }), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
