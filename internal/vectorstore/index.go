// Package vectorstore implements the per-domain vector indexes: building
// from embedded documents, nearest-k retrieval, disk persistence and the
// registry that owns the domain-to-index mapping.
package vectorstore

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"domain-chat-go/internal/model"
	"domain-chat-go/pkg/embedding"
	"domain-chat-go/pkg/log"
)

const indexFileName = "index.gob"

var (
	// ErrEmptyDomain is returned when an index build receives no documents.
	ErrEmptyDomain = errors.New("vectorstore: no documents for domain")
	// ErrNotFound is returned when no persisted index exists for a domain.
	ErrNotFound = errors.New("vectorstore: index not found")
	// ErrCorruptIndex is returned when a persisted index is unreadable.
	ErrCorruptIndex = errors.New("vectorstore: corrupt index")
)

// entry is one stored (vector, document) pair. Insertion order is preserved
// and breaks retrieval-score ties.
type entry struct {
	Vector []float32
	Doc    model.Document
}

// Index holds the embedded documents of one domain. It is built in one
// batch and never mutated afterwards, so concurrent searches are safe.
type Index struct {
	Domain    string
	Dimension int
	Entries   []entry

	embedder embedding.Client
}

// BuildIndex embeds every document's text and stores the (vector, document)
// pairs. Fails with ErrEmptyDomain when docs is empty.
func BuildIndex(ctx context.Context, domain string, docs []model.Document, embedder embedding.Client) (*Index, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyDomain, domain)
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}
	vectors, err := embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents for domain %q: %w", domain, err)
	}

	idx := &Index{
		Domain:    domain,
		Dimension: len(vectors[0]),
		Entries:   make([]entry, len(docs)),
		embedder:  embedder,
	}
	for i := range docs {
		if len(vectors[i]) != idx.Dimension {
			return nil, fmt.Errorf("vectorstore: embedding dimension mismatch for domain %q: got %d, want %d",
				domain, len(vectors[i]), idx.Dimension)
		}
		idx.Entries[i] = entry{Vector: vectors[i], Doc: docs[i]}
	}
	log.Infof("[VectorStore] built index for domain %q with %d entries, dimension %d",
		domain, len(idx.Entries), idx.Dimension)
	return idx, nil
}

// Search embeds the query text and returns the k most similar documents by
// cosine similarity, highest first. Ties keep insertion order. When the
// index holds fewer than k entries all of them are returned.
func (idx *Index) Search(ctx context.Context, text string, k int) ([]model.ScoredDocument, error) {
	if k < 1 {
		return nil, fmt.Errorf("vectorstore: k must be >= 1, got %d", k)
	}

	queryVec, err := idx.embedder.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	order := make([]int, len(idx.Entries))
	scores := make([]float64, len(idx.Entries))
	for i := range idx.Entries {
		order[i] = i
		scores[i] = cosine(queryVec, idx.Entries[i].Vector)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	results := make([]model.ScoredDocument, 0, k)
	for _, i := range order[:k] {
		results = append(results, model.ScoredDocument{Doc: idx.Entries[i].Doc, Score: scores[i]})
	}
	return results, nil
}

// Save persists the index under root in a directory named by the domain.
func (idx *Index) Save(root string) error {
	dir := filepath.Join(root, idx.Domain)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	path := filepath.Join(dir, indexFileName)
	tmp, err := os.CreateTemp(dir, indexFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}

	if err := gob.NewEncoder(tmp).Encode(idx); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to encode index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close index file: %w", err)
	}

	// Rename swaps the file in atomically, so a crash mid-write never
	// leaves a half-encoded index behind.
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	log.Infof("[VectorStore] saved index for domain %q at %s", idx.Domain, path)
	return nil
}

// LoadIndex reads the persisted index of a domain from root. Fails with
// ErrNotFound when no index exists and ErrCorruptIndex when the stored data
// cannot be decoded or is structurally invalid.
func LoadIndex(root, domain string, embedder embedding.Client) (*Index, error) {
	path := filepath.Join(root, domain, indexFileName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, domain)
		}
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer f.Close()

	var idx Index
	if err := gob.NewDecoder(f).Decode(&idx); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrCorruptIndex, domain, err)
	}
	if idx.Domain == "" || len(idx.Entries) == 0 {
		return nil, fmt.Errorf("%w: %q: empty payload", ErrCorruptIndex, domain)
	}
	for _, e := range idx.Entries {
		if len(e.Vector) != idx.Dimension {
			return nil, fmt.Errorf("%w: %q: dimension mismatch", ErrCorruptIndex, domain)
		}
	}

	idx.embedder = embedder
	log.Infof("[VectorStore] loaded index for domain %q from %s", domain, path)
	return &idx, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
