package corpus

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/solacebot/solace/internal/embed"
)

// Artifact header: magic, then uint32 dim, uint32 count, then count*dim
// little-endian float32 rows.
var indexMagic = [5]byte{'S', 'V', 'I', 'X', '1'}

// Hit is a single nearest-neighbor result.
type Hit struct {
	Index int
	Score float32
}

// FlatIndex is an exhaustive in-memory nearest-neighbor index. Rows are
// normalized at load time so the inner product equals cosine similarity.
// Read-only after construction; safe for unsynchronized concurrent reads.
type FlatIndex struct {
	dim     int
	vectors []embed.Vector
}

func NewFlatIndex(dim int, vectors []embed.Vector) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dim must be positive, got %d", dim)
	}
	rows := make([]embed.Vector, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("row %d has dim %d, want %d", i, len(v), dim)
		}
		row := make(embed.Vector, dim)
		copy(row, v)
		rows[i] = embed.Normalize(row)
	}
	return &FlatIndex{dim: dim, vectors: rows}, nil
}

func (ix *FlatIndex) Len() int { return len(ix.vectors) }
func (ix *FlatIndex) Dim() int { return ix.dim }

// Search returns up to k hits ordered best-first by cosine similarity.
func (ix *FlatIndex) Search(query embed.Vector, k int) []Hit {
	if k <= 0 || len(ix.vectors) == 0 || len(query) != ix.dim {
		return nil
	}

	q := make(embed.Vector, ix.dim)
	copy(q, query)
	embed.Normalize(q)

	if k > len(ix.vectors) {
		k = len(ix.vectors)
	}

	// Exhaustive scan with a small best-first insertion; k is 1 in practice.
	best := make([]Hit, 0, k)
	for i, row := range ix.vectors {
		var dot float32
		for j := range row {
			dot += row[j] * q[j]
		}
		pos := len(best)
		for pos > 0 && best[pos-1].Score < dot {
			pos--
		}
		if pos >= k {
			continue
		}
		if len(best) < k {
			best = append(best, Hit{})
		}
		copy(best[pos+1:], best[pos:])
		best[pos] = Hit{Index: i, Score: dot}
	}
	return best
}

// ReadIndex loads a persisted index artifact. The embedder dimension must
// match the artifact exactly; a mismatch is a startup failure.
func ReadIndex(path string, wantDim int) (*FlatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index artifact: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var magic [5]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read index header: %w", err)
	}
	if magic != indexMagic {
		return nil, fmt.Errorf("index artifact %s: bad magic %q", path, magic[:])
	}

	var dim, count uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read index dim: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read index count: %w", err)
	}
	if wantDim > 0 && int(dim) != wantDim {
		return nil, fmt.Errorf("index artifact dim %d does not match embedder dim %d", dim, wantDim)
	}

	vectors := make([]embed.Vector, count)
	for i := range vectors {
		row := make(embed.Vector, dim)
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("read index row %d: %w", i, err)
		}
		vectors[i] = row
	}

	return NewFlatIndex(int(dim), vectors)
}

// WriteIndex persists vectors in the artifact format read by ReadIndex.
func WriteIndex(path string, dim int, vectors []embed.Vector) error {
	if dim <= 0 {
		return fmt.Errorf("index dim must be positive, got %d", dim)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("row %d has dim %d, want %d", i, len(v), dim)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index artifact: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.Write(indexMagic[:]); err != nil {
		return fmt.Errorf("write index header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(dim)); err != nil {
		return fmt.Errorf("write index dim: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(vectors))); err != nil {
		return fmt.Errorf("write index count: %w", err)
	}
	for i, v := range vectors {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write index row %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush index artifact: %w", err)
	}
	return nil
}
