// Package app wires configuration into a runnable service graph.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/solacebot/solace/internal/chat"
	"github.com/solacebot/solace/internal/config"
	"github.com/solacebot/solace/internal/corpus"
	"github.com/solacebot/solace/internal/embed"
	"github.com/solacebot/solace/internal/httpapi"
	"github.com/solacebot/solace/internal/llm"
	"github.com/solacebot/solace/internal/memory"
	"github.com/solacebot/solace/internal/observability"
	"github.com/solacebot/solace/internal/session"
	"github.com/solacebot/solace/internal/store"
)

type BuildResult struct {
	Config   config.Config
	API      *httpapi.Server
	Sessions *session.Manager
	Chat     *chat.Service
	Metrics  *observability.Metrics

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

// Build constructs the full service graph. A missing or mismatched corpus
// artifact is a startup failure; the service never runs without retrieval.
func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	docStore, err := store.NewStore(ctx, cfg.MongoURI, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("store init failed: %w", err)
	}

	embedder, err := embed.NewEmbedder(embed.Config{
		Provider: cfg.EmbedProvider,
		BaseURL:  cfg.EmbedBaseURL,
		Model:    cfg.EmbedModel,
		APIKey:   cfg.LLMAPIKey,
		Dim:      cfg.EmbedDim,
	})
	if err != nil {
		_ = docStore.Close()
		return nil, fmt.Errorf("embedder init failed: %w", err)
	}

	knowledge, err := corpus.Load(cfg.CorpusPath, cfg.IndexPath, cfg.EmbedDim)
	if err != nil {
		_ = docStore.Close()
		return nil, fmt.Errorf("corpus load failed: %w", err)
	}
	log.Printf("app: corpus loaded, %d entries (dim %d)", knowledge.Len(), cfg.EmbedDim)

	generator, err := llm.NewClient(llm.Config{
		Mode:    cfg.LLMProvider,
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Timeout: cfg.GenerateTimeout,
		Retries: cfg.GenerateRetries,
	})
	if err != nil {
		_ = docStore.Close()
		return nil, fmt.Errorf("llm client init failed: %w", err)
	}

	transcripts := memory.NewTranscripts(cfg.MemoryTTL, cfg.MemoryMaxBytes)

	chatSvc := chat.NewService(chat.Config{
		Corpus:              knowledge,
		Embedder:            embedder,
		Generator:           generator,
		Store:               docStore,
		Transcripts:         transcripts,
		Metrics:             metrics,
		SimilarityThreshold: cfg.SimilarityThreshold,
		HistoryLimit:        cfg.HistoryLimit,
	})

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	api := httpapi.New(cfg, sessions, chatSvc, metrics)

	cleanup := func() error {
		return docStore.Close()
	}

	return &BuildResult{
		Config:   cfg,
		API:      api,
		Sessions: sessions,
		Chat:     chatSvc,
		Metrics:  metrics,
		Cleanup:  cleanup,
	}, nil
}
