// Package corpus owns the fixed question/response retrieval corpus and its
// nearest-neighbor index as one paired structure, so the "row i of the index
// is entry i of the corpus" invariant is enforced by construction instead of
// by load-order convention.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/solacebot/solace/internal/embed"
)

// Entry is one immutable question/response pair.
type Entry struct {
	ID       int    `json:"-"`
	Question string `json:"question"`
	Response string `json:"response"`
}

// Corpus pairs the reference entries with their vector index. Immutable
// after Load; safe for concurrent readers.
type Corpus struct {
	entries []Entry
	index   *FlatIndex
}

// Load reads the corpus file and the persisted index artifact together and
// verifies they line up. Any failure here is fatal to service startup.
func Load(corpusPath, indexPath string, dim int) (*Corpus, error) {
	raw, err := os.ReadFile(corpusPath)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse corpus file %s: %w", corpusPath, err)
	}
	for i := range entries {
		entries[i].ID = i
	}

	index, err := ReadIndex(indexPath, dim)
	if err != nil {
		return nil, err
	}
	if index.Len() != len(entries) {
		return nil, fmt.Errorf("index artifact has %d rows but corpus has %d entries", index.Len(), len(entries))
	}

	return &Corpus{entries: entries, index: index}, nil
}

// New builds a corpus directly from entries and vectors. Used by tests and
// by the offline index builder.
func New(entries []Entry, dim int, vectors []embed.Vector) (*Corpus, error) {
	if len(entries) != len(vectors) {
		return nil, fmt.Errorf("%d entries but %d vectors", len(entries), len(vectors))
	}
	index, err := NewFlatIndex(dim, vectors)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	for i := range out {
		out[i].ID = i
	}
	return &Corpus{entries: out, index: index}, nil
}

func (c *Corpus) Len() int { return len(c.entries) }

func (c *Corpus) Entry(i int) (Entry, bool) {
	if i < 0 || i >= len(c.entries) {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Search returns the nearest entries to the query vector, best-first.
func (c *Corpus) Search(query embed.Vector, k int) []Hit {
	return c.index.Search(query, k)
}

// ReadCorpusFile parses just the corpus entries, without an index. Used by
// the offline index builder.
func ReadCorpusFile(path string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse corpus file %s: %w", path, err)
	}
	for i := range entries {
		entries[i].ID = i
	}
	return entries, nil
}
