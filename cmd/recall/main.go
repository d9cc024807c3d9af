// Command recall launches the recall MCP server: the unstructured
// memory pipeline's stdio tool surface (§6).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	openai "github.com/sashabaranov/go-openai"

	"github.com/recallmem/recall/pkg/embeddings"
	"github.com/recallmem/recall/pkg/facts"
	"github.com/recallmem/recall/pkg/llm"
	"github.com/recallmem/recall/pkg/mcpserver"
	"github.com/recallmem/recall/pkg/memory"
	"github.com/recallmem/recall/pkg/recallerrs"
	"github.com/recallmem/recall/pkg/vectorstore"
)

const version = "0.1.0"

// exit codes: 0 on clean shutdown, 1 on config or startup failure (§6).
const (
	exitOK     = 0
	exitFailed = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	// Bootstrap logger: text to stderr until flags are parsed and we know
	// whether --verbose/RECALL_VERBOSE asked for the JSON handler instead.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		logger.Error("recall", "err", err)
		return exitFailed
	}
	if err := cfg.validate(); err != nil {
		logger.Error("recall", "err", err)
		return exitFailed
	}

	logger = newLogger(cfg.Verbose)
	if cfg.Verbose {
		logger.Info("starting", "db", cfg.DB, "model", cfg.Model, "embedding", cfg.EmbeddingModel)
	}

	dim := embeddingDimensions(cfg.EmbeddingModel)
	store, err := vectorstore.NewSQLiteStore(cfg.DB, dim)
	if err != nil {
		logger.Error("open store", "err", err)
		return exitFailed
	}
	defer store.Close()

	embedder := embeddings.NewOpenAIProvider(cfg.OpenAIKey, openai.EmbeddingModel(cfg.EmbeddingModel), dim, "")
	llmClient := llm.NewClient(cfg.OpenAIKey, cfg.Model, "")
	factService := facts.NewService(llmClient)
	memClient := memory.New(store, embedder, factService)

	server := mcpserver.New(memClient, cfg.UserID, version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "err", err)
		return exitFailed
	}

	if cfg.Verbose {
		logger.Info("shut down cleanly")
	}
	return exitOK
}

// newLogger builds the process logger: text to stderr by default, JSON
// under --verbose/RECALL_VERBOSE for machine-readable operational detail.
func newLogger(verbose bool) *slog.Logger {
	if verbose {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// embeddingDimensions returns the fixed output width of well-known
// OpenAI embedding models. An unrecognised model falls back to the
// text-embedding-3-small width rather than failing startup — the
// dimension only matters for the store's fixed-d invariant (§4.A), and a
// genuinely mismatched model surfaces as a dimension error on first use.
func embeddingDimensions(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-ada-002", "text-embedding-3-small":
		return 1536
	default:
		return 1536
	}
}

func errConfigf(format string, args ...any) error {
	return &recallerrs.ConfigError{Field: "startup", Message: fmt.Sprintf(format, args...)}
}
