package config

import "testing"

type envTestConfig struct {
	Addr   string `env:"CONFIG_TEST_ADDR" envDefault:":8080"`
	DBPath string `env:"CONFIG_TEST_DB_PATH"`
}

func TestParseEnvAppliesDefaults(t *testing.T) {
	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr = %q, want :8080", cfg.Addr)
	}
	if cfg.DBPath != "" {
		t.Fatalf("db path = %q, want empty", cfg.DBPath)
	}
}

func TestParseEnvReadsVariables(t *testing.T) {
	t.Setenv("CONFIG_TEST_ADDR", ":9999")
	t.Setenv("CONFIG_TEST_DB_PATH", "/tmp/feed.db")

	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("addr = %q, want :9999", cfg.Addr)
	}
	if cfg.DBPath != "/tmp/feed.db" {
		t.Fatalf("db path = %q, want /tmp/feed.db", cfg.DBPath)
	}
}
