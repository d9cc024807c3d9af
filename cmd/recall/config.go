package main

import (
	"os"
	"strconv"

	flag "github.com/spf13/pflag"
)

// Config is the CLI's resolved configuration: flags, then environment
// overrides.
type Config struct {
	DB             string
	OpenAIKey      string
	Model          string
	EmbeddingModel string
	UserID         string
	Verbose        bool
}

func defaultConfig() *Config {
	return &Config{
		DB:             "recall.db",
		Model:          "gpt-5-nano",
		EmbeddingModel: "text-embedding-3-small",
	}
}

// parseFlags reads CLI flags over the defaults. Layering, lowest to
// highest precedence: built-in defaults, an optional .recall/config.yaml
// (or --config/RECALL_CONFIG override), explicit flags, then environment
// variables.
func parseFlags(args []string) (*Config, error) {
	cfg := defaultConfig()

	configPath := os.Getenv("RECALL_CONFIG")
	prescan := flag.NewFlagSet("recall-prescan", flag.ContinueOnError)
	prescan.ParseErrorsWhitelist.UnknownFlags = true
	prescan.Usage = func() {}
	prescanPath := prescan.String("config", "", "")
	_ = prescan.Parse(args)
	if *prescanPath != "" {
		configPath = *prescanPath
	}
	if err := cfg.applyFile(configPath); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("recall", flag.ContinueOnError)
	fs.String("config", configPath, "path to an optional YAML config file")
	fs.StringVar(&cfg.DB, "db", cfg.DB, `database path, or ":memory:"`)
	fs.StringVar(&cfg.OpenAIKey, "openai-key", cfg.OpenAIKey, "OpenAI API key")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "chat completion model")
	fs.StringVar(&cfg.EmbeddingModel, "embedding", cfg.EmbeddingModel, "embedding model")
	fs.StringVar(&cfg.UserID, "user-id", cfg.UserID, "default tenant id used when a tool call omits userId")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIKey = v
	}
	if v := os.Getenv("RECALL_DB"); v != "" {
		c.DB = v
	}
	if v := os.Getenv("RECALL_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("RECALL_EMBEDDING_MODEL"); v != "" {
		c.EmbeddingModel = v
	}
	if v := os.Getenv("RECALL_USER_ID"); v != "" {
		c.UserID = v
	}
	if v := os.Getenv("RECALL_VERBOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Verbose = b
		}
	}
}

func (c *Config) validate() error {
	if c.OpenAIKey == "" {
		return errConfigf("--openai-key or OPENAI_API_KEY is required")
	}
	return nil
}
