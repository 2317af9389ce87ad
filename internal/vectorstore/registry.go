package vectorstore

import (
	"context"
	"errors"
	"sync"

	"domain-chat-go/internal/model"
	"domain-chat-go/pkg/embedding"
	"domain-chat-go/pkg/log"
)

// Store is the retrieval surface of one domain's index.
type Store interface {
	Search(ctx context.Context, text string, k int) ([]model.ScoredDocument, error)
}

// Provider owns the domain-to-store mapping for one backend. Load reports a
// missing store through the bool result rather than an error, so callers
// branch on Found/Missing explicitly; failures of an existing store still
// surface as errors.
type Provider interface {
	Load(ctx context.Context, domain string) (Store, bool, error)
	BuildAndSaveAll(ctx context.Context, byDomain map[string][]model.Document) (map[string]Store, map[string]error)
}

// Registry is the local-disk Provider: one gob index per domain under a
// fixed root directory. A mutex serializes build-and-save so concurrent
// rebuilds cannot corrupt the persisted store.
type Registry struct {
	root     string
	embedder embedding.Client

	mu sync.Mutex
}

// NewRegistry creates a Registry persisting under root.
func NewRegistry(root string, embedder embedding.Client) *Registry {
	return &Registry{root: root, embedder: embedder}
}

// Load reads a single domain's persisted index. The second result is false
// when no index exists for the domain.
func (r *Registry) Load(ctx context.Context, domain string) (Store, bool, error) {
	idx, err := LoadIndex(r.root, domain, r.embedder)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return idx, true, nil
}

// BuildAndSaveAll builds and persists an index for every domain. A failure
// in one domain is logged and collected; the remaining domains still build.
// Returns the successfully built stores and the per-domain errors.
func (r *Registry) BuildAndSaveAll(ctx context.Context, byDomain map[string][]model.Document) (map[string]Store, map[string]error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	built := make(map[string]Store, len(byDomain))
	failed := make(map[string]error)
	for domain, docs := range byDomain {
		log.Infof("[VectorStore] building index for domain %q with %d docs", domain, len(docs))
		idx, err := BuildIndex(ctx, domain, docs, r.embedder)
		if err != nil {
			log.Errorf("[VectorStore] failed to build index for domain %q: %v", domain, err)
			failed[domain] = err
			continue
		}
		if err := idx.Save(r.root); err != nil {
			log.Errorf("[VectorStore] failed to save index for domain %q: %v", domain, err)
			failed[domain] = err
			continue
		}
		built[domain] = idx
	}
	log.Infof("[VectorStore] batch build finished, built: %d, failed: %d", len(built), len(failed))
	return built, failed
}
