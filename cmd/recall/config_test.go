package main

import (
	"os"
	"testing"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DB != "recall.db" {
		t.Fatalf("want default db recall.db, got %s", cfg.DB)
	}
	if cfg.Model != "gpt-5-nano" {
		t.Fatalf("want default model gpt-5-nano, got %s", cfg.Model)
	}
}

func TestParseFlagsOverridesDefaults(t *testing.T) {
	cfg, err := parseFlags([]string{"--db", ":memory:", "--model", "gpt-4o", "--openai-key", "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DB != ":memory:" {
		t.Fatalf("want :memory:, got %s", cfg.DB)
	}
	if cfg.Model != "gpt-4o" {
		t.Fatalf("want gpt-4o, got %s", cfg.Model)
	}
	if cfg.OpenAIKey != "sk-test" {
		t.Fatalf("want sk-test, got %s", cfg.OpenAIKey)
	}
}

func TestEnvOverrideWinsOverFlagDefault(t *testing.T) {
	t.Setenv("RECALL_DB", "/tmp/env-recall.db")
	cfg, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DB != "/tmp/env-recall.db" {
		t.Fatalf("want env override, got %s", cfg.DB)
	}
}

func TestValidateRequiresOpenAIKey(t *testing.T) {
	os.Unsetenv("OPENAI_API_KEY")
	cfg, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected validate to require an OpenAI key")
	}
}

func TestValidatePassesWithKey(t *testing.T) {
	cfg, err := parseFlags([]string{"--openai-key", "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
}
