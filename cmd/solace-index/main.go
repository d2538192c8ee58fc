// Command solace-index embeds every corpus question and writes the vector
// index artifact the service loads at startup. Run it whenever the corpus
// file or the embedding model changes.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/solacebot/solace/internal/config"
	"github.com/solacebot/solace/internal/corpus"
	"github.com/solacebot/solace/internal/embed"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	corpusPath := flag.String("corpus", cfg.CorpusPath, "path to the corpus JSON file")
	indexPath := flag.String("out", cfg.IndexPath, "path to write the index artifact")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall embedding deadline")
	flag.Parse()

	entries, err := corpus.ReadCorpusFile(*corpusPath)
	if err != nil {
		log.Fatalf("read corpus: %v", err)
	}
	if len(entries) == 0 {
		log.Fatalf("corpus %s has no entries", *corpusPath)
	}

	embedder, err := embed.NewEmbedder(embed.Config{
		Provider: cfg.EmbedProvider,
		BaseURL:  cfg.EmbedBaseURL,
		Model:    cfg.EmbedModel,
		APIKey:   cfg.LLMAPIKey,
		Dim:      cfg.EmbedDim,
	})
	if err != nil {
		log.Fatalf("embedder init: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	vectors := make([]embed.Vector, len(entries))
	for i, entry := range entries {
		v, err := embedder.Embed(ctx, entry.Question)
		if err != nil {
			log.Fatalf("embed entry %d (%q): %v", i, entry.Question, err)
		}
		vectors[i] = v
		if (i+1)%100 == 0 {
			log.Printf("embedded %d/%d questions", i+1, len(entries))
		}
	}

	if err := corpus.WriteIndex(*indexPath, cfg.EmbedDim, vectors); err != nil {
		log.Fatalf("write index: %v", err)
	}
	log.Printf("wrote %s: %d vectors, dim %d", *indexPath, len(vectors), cfg.EmbedDim)
}
