// Package chat orchestrates one message end to end: embed the query with
// its rolling context, look up the nearest corpus entry, decide between the
// canonical response and a generated one, and record the exchange.
package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/solacebot/solace/internal/corpus"
	"github.com/solacebot/solace/internal/embed"
	"github.com/solacebot/solace/internal/extract"
	"github.com/solacebot/solace/internal/llm"
	"github.com/solacebot/solace/internal/memory"
	"github.com/solacebot/solace/internal/observability"
	"github.com/solacebot/solace/internal/policy"
	"github.com/solacebot/solace/internal/store"
)

// ApologyReply is returned whenever the generative path fails. Fixed text;
// the caller never sees the underlying error.
const ApologyReply = "I'm having trouble forming a proper response right now. Please try again later."

// noContextReply stands in for retrieved text when the corpus is empty.
const noContextReply = "I couldn't find helpful context right now. Let's focus on how you're feeling."

// ErrEmptyMessage rejects blank input. Surfaced to the HTTP layer as a 400.
var ErrEmptyMessage = errors.New("message is required")

// Service is the retrieval orchestrator.
type Service struct {
	corpus      *corpus.Corpus
	embedder    embed.Embedder
	generator   llm.Client
	store       store.Store
	transcripts *memory.Transcripts
	metrics     *observability.Metrics

	threshold    float64
	historyLimit int
}

// Config collects the orchestrator's dependencies.
type Config struct {
	Corpus      *corpus.Corpus
	Embedder    embed.Embedder
	Generator   llm.Client
	Store       store.Store
	Transcripts *memory.Transcripts
	Metrics     *observability.Metrics

	SimilarityThreshold float64
	HistoryLimit        int
}

func NewService(cfg Config) *Service {
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = 0.7
	}
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 5
	}
	return &Service{
		corpus:       cfg.Corpus,
		embedder:     cfg.Embedder,
		generator:    cfg.Generator,
		store:        cfg.Store,
		transcripts:  cfg.Transcripts,
		metrics:      cfg.Metrics,
		threshold:    threshold,
		historyLimit: historyLimit,
	}
}

// HandleMessage runs the full pipeline for one user message. The returned
// error is only ErrEmptyMessage; every other failure resolves to a
// user-facing reply (canonical, generated, or the apology).
func (s *Service) HandleMessage(ctx context.Context, userID, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		s.metrics.CountMessage(observability.OutcomeInvalid)
		return "", ErrEmptyMessage
	}

	screen := policy.ScreenMessage(text)

	previous := s.transcripts.Get(userID)
	combined := previous + "\nUser: " + text

	embedStart := time.Now()
	queryVec, err := s.embedder.Embed(ctx, combined)
	s.metrics.ObserveStage("embed", time.Since(embedStart))
	if err != nil {
		log.Printf("chat: embed failed for %s: %v", userID, err)
		s.metrics.CountPipelineError("embed")
		s.metrics.CountMessage(observability.OutcomeApology)
		return withSafetyNote(screen, ApologyReply), nil
	}

	retrieved := noContextReply
	searchStart := time.Now()
	hits := s.corpus.Search(queryVec, 1)
	s.metrics.ObserveStage("search", time.Since(searchStart))

	if len(hits) > 0 {
		entry, ok := s.corpus.Entry(hits[0].Index)
		if ok {
			s.metrics.ObserveRetrievalScore(float64(hits[0].Score))
			retrieved = strings.TrimSpace(entry.Response)

			// Second, independent similarity check: the index found a
			// candidate from the context-laden query; the gate compares the
			// bare message against the candidate's original question before
			// trusting the canonical response verbatim.
			gateStart := time.Now()
			passed, sim, err := s.gate(ctx, text, entry.Question)
			s.metrics.ObserveStage("gate", time.Since(gateStart))
			if err != nil {
				log.Printf("chat: gate embed failed for %s: %v", userID, err)
				s.metrics.CountPipelineError("gate")
			} else {
				s.metrics.ObserveGateSimilarity(sim)
				if passed {
					// Canonical responses are not persisted and do not grow
					// the rolling transcript, matching the FAQ-style
					// short-circuit semantics.
					s.metrics.CountMessage(observability.OutcomeRetrieval)
					return withSafetyNote(screen, retrieved), nil
				}
			}
		}
	}

	prompt := s.buildPrompt(ctx, userID, text, retrieved)

	genStart := time.Now()
	raw, err := s.generator.Generate(ctx, prompt)
	genElapsed := time.Since(genStart)
	s.metrics.ObserveStage("generate", genElapsed)
	s.metrics.ObserveGenerationLatency(genElapsed)
	if err != nil {
		log.Printf("chat: generation failed for %s: %v", userID, err)
		s.metrics.CountPipelineError("generate")
		s.metrics.CountMessage(observability.OutcomeApology)
		return withSafetyNote(screen, ApologyReply), nil
	}

	answer := strings.TrimSpace(extract.Answer(raw))

	persistStart := time.Now()
	s.persistExchange(ctx, userID, text, answer)
	s.metrics.ObserveStage("persist", time.Since(persistStart))

	s.transcripts.Append(userID, text, answer)

	s.metrics.CountMessage(observability.OutcomeGenerated)
	return withSafetyNote(screen, answer), nil
}

// gate re-embeds the raw input and the retrieved question independently and
// compares their cosine similarity to the threshold.
func (s *Service) gate(ctx context.Context, input, question string) (bool, float64, error) {
	inputVec, err := s.embedder.Embed(ctx, input)
	if err != nil {
		return false, 0, err
	}
	questionVec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return false, 0, err
	}
	sim := embed.CosineSimilarity(inputVec, questionVec)
	return sim > s.threshold, sim, nil
}

// persistExchange writes both turns to the document store with PII masked.
// Persistence failures are logged and do not block the reply.
func (s *Service) persistExchange(ctx context.Context, userID, userText, botText string) {
	now := time.Now().UTC()
	redactedUser, _ := policy.RedactPII(userText)
	redactedBot, _ := policy.RedactPII(botText)

	record := store.ConversationRecord{
		UserID: userID,
		Date:   now,
		Messages: []store.Turn{
			{Sender: store.SenderUser, Text: redactedUser, Timestamp: now},
			{Sender: store.SenderBot, Text: redactedBot, Timestamp: now},
		},
	}
	if _, err := s.store.InsertConversation(ctx, record); err != nil {
		log.Printf("chat: persist failed for %s: %v", userID, err)
		s.metrics.CountPipelineError("persist")
	}
}

func withSafetyNote(screen policy.CrisisAssessment, reply string) string {
	if !screen.Crisis {
		return reply
	}
	return policy.SafetyNote + "\n\n" + reply
}
