package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParse_defaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store != "file" || cfg.WebAddr != "0.0.0.0:1235" || cfg.TicketTTL != 24*time.Hour {
		t.Errorf("bad defaults: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("bad origins: %v", cfg.AllowedOrigins)
	}
	if cfg.Level() != zerolog.InfoLevel {
		t.Errorf("bad level: %v", cfg.Level())
	}
}

func TestParse_env(t *testing.T) {
	t.Setenv("BANKER_STORE", "sqlite")
	t.Setenv("BANKER_ALLOWED_ORIGINS", "a.example,b.example")
	t.Setenv("BANKER_LOG_LEVEL", "debug")
	cfg, err := Parse()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store != "sqlite" || len(cfg.AllowedOrigins) != 2 || cfg.Level() != zerolog.DebugLevel {
		t.Errorf("env ignored: %+v", cfg)
	}
}

func TestParse_badStore(t *testing.T) {
	t.Setenv("BANKER_STORE", "floppy")
	if _, err := Parse(); err == nil {
		t.Errorf("bad store accepted")
	}
}

func TestLoad_file(t *testing.T) {
	name := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(name, []byte("BANKER_TICKET_SECRET=sssh\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BANKER_TICKET_SECRET", "")
	os.Unsetenv("BANKER_TICKET_SECRET")
	cfg, err := Load(name)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TicketSecret != "sssh" {
		t.Errorf("env file ignored: %q", cfg.TicketSecret)
	}
}

func TestLoad_noFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file is fatal: %v", err)
	}
}
