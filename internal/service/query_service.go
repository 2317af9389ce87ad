// Package service contains the application's business logic layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"domain-chat-go/internal/classifier"
	"domain-chat-go/internal/corpus"
	"domain-chat-go/internal/model"
	"domain-chat-go/internal/vectorstore"
	"domain-chat-go/pkg/kafka"
	"domain-chat-go/pkg/llm"
	"domain-chat-go/pkg/log"
)

// promptTemplate grounds the generation in the retrieved context. The
// wording is fixed; only context and question vary.
const promptTemplate = `You are a helpful assistant.

Use the context below to answer the question. Only use the information from the context.
If the context does not provide enough info, say you don't know.

Context:
%s

Question:
%s

Answer clearly and concisely:`

// noStoreAnswer is the degraded response when no index exists for the
// predicted domain even after a rebuild.
const noStoreAnswer = "No vectorstore available for this domain."

// DomainClassifier is the classifier surface the router depends on.
type DomainClassifier interface {
	Predict(query string) (string, error)
	Fit(records []model.Record) error
	Reload() error
	Trained() bool
}

// QueryService routes a query to its domain, retrieves grounding context
// from that domain's index and delegates answer generation.
type QueryService interface {
	// Init moves the service into a servable state: it reloads the
	// persisted classifier or, when none exists, trains one from the
	// corpus. Must succeed before Route is called.
	Init(ctx context.Context) error
	Route(ctx context.Context, query string) (domain, answer string, err error)
	// Retrain refits the classifier on the current corpus.
	Retrain(ctx context.Context) error
	// Rebuild rebuilds and persists every domain index from the corpus.
	Rebuild(ctx context.Context) (built []string, failed map[string]string, err error)
}

// Options tune the router's retrieval and rebuild behavior.
type Options struct {
	TopK int
	// RebuildPolicy is "all" (rebuild every domain on a miss, the default)
	// or "missing" (rebuild only the missed domain).
	RebuildPolicy string
	LogQueries    bool
}

type queryService struct {
	classifier DomainClassifier
	loader     corpus.Loader
	provider   vectorstore.Provider
	llmClient  llm.Client
	producer   *kafka.Producer
	opts       Options

	// rebuildMu serializes lazy rebuilds so concurrent misses on the same
	// domain cause at most one effective build.
	rebuildMu sync.Mutex

	// storeMu guards the per-domain store cache. Once a store is resolved,
	// repeated queries for its domain never go back to the provider.
	storeMu sync.RWMutex
	stores  map[string]vectorstore.Store
}

// NewQueryService creates the router. producer may be nil.
func NewQueryService(
	domainClassifier DomainClassifier,
	loader corpus.Loader,
	provider vectorstore.Provider,
	llmClient llm.Client,
	producer *kafka.Producer,
	opts Options,
) QueryService {
	if opts.TopK < 1 {
		opts.TopK = 3
	}
	if opts.RebuildPolicy == "" {
		opts.RebuildPolicy = "all"
	}
	return &queryService{
		classifier: domainClassifier,
		loader:     loader,
		provider:   provider,
		llmClient:  llmClient,
		producer:   producer,
		opts:       opts,
		stores:     make(map[string]vectorstore.Store),
	}
}

// Init loads the persisted classifier, training a fresh one when no
// artifact exists yet. Any other failure is fatal for this service: it
// cannot route a single query without a trained classifier.
func (s *queryService) Init(ctx context.Context) error {
	err := s.classifier.Reload()
	if err == nil {
		log.Info("[QueryService] classifier loaded successfully")
		return nil
	}
	if !errors.Is(err, classifier.ErrModelNotFound) {
		return fmt.Errorf("failed to load classifier: %w", err)
	}

	log.Warnf("[QueryService] no classifier pipeline found, training a new one")
	records, err := s.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load corpus for training: %w", err)
	}
	if err := s.classifier.Fit(records); err != nil {
		return fmt.Errorf("failed to train classifier: %w", err)
	}
	log.Info("[QueryService] classifier trained and saved successfully")
	return nil
}

// Route classifies the query, resolves the domain's index (building it on
// demand when missing), retrieves the top-k context and delegates to the
// generation collaborator.
func (s *queryService) Route(ctx context.Context, query string) (string, string, error) {
	start := time.Now()

	domain, err := s.classifier.Predict(query)
	if err != nil {
		return "", "", fmt.Errorf("failed to classify query: %w", err)
	}
	log.Infof("[QueryService] predicted domain: %s, query: %s", domain, s.queryForLog(query))

	store, cached := s.cachedStore(domain)
	if !cached {
		var found bool
		store, found, err = s.provider.Load(ctx, domain)
		if err != nil {
			return "", "", fmt.Errorf("failed to load index for domain %q: %w", domain, err)
		}
		if found {
			s.cacheStore(domain, store)
		} else {
			log.Warnf("[QueryService] no vectorstore found for domain %q, building now", domain)
			store = s.rebuildFor(ctx, domain)
		}
	}
	if store == nil {
		log.Errorf("[QueryService] no vectorstore available for domain %q after rebuild", domain)
		s.publish(ctx, domain, query, start, true)
		return domain, noStoreAnswer, nil
	}

	results, err := store.Search(ctx, query, s.opts.TopK)
	if err != nil {
		return "", "", fmt.Errorf("failed to retrieve context for domain %q: %w", domain, err)
	}
	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Doc.Text
	}
	contextText := strings.Join(texts, "\n\n")

	prompt := fmt.Sprintf(promptTemplate, contextText, query)
	answer, err := s.llmClient.Complete(ctx, prompt)
	if err != nil {
		return "", "", fmt.Errorf("generation failed for domain %q: %w", domain, err)
	}

	s.publish(ctx, domain, query, start, false)
	log.Infof("[QueryService] routed query successfully, domain: %s, context chunks: %d, took: %s",
		domain, len(results), time.Since(start))
	return domain, answer, nil
}

// rebuildFor performs the serialized lazy rebuild and returns the store for
// domain, or nil when the domain still has no index afterwards. Waiters
// behind the lock re-attempt the load first, so a rebuild finished by
// another request is never repeated.
func (s *queryService) rebuildFor(ctx context.Context, domain string) vectorstore.Store {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	if store, ok := s.cachedStore(domain); ok {
		return store
	}
	if store, found, err := s.provider.Load(ctx, domain); err == nil && found {
		s.cacheStore(domain, store)
		return store
	}

	records, err := s.loader.Load(ctx)
	if err != nil {
		log.Errorf("[QueryService] failed to load corpus for rebuild: %v", err)
		return nil
	}
	byDomain, _ := corpus.ChunkByDomain(records)

	if s.opts.RebuildPolicy == "missing" {
		docs, ok := byDomain[domain]
		if !ok {
			log.Warnf("[QueryService] corpus holds no rows for domain %q", domain)
			return nil
		}
		byDomain = map[string][]model.Document{domain: docs}
	}

	built, failed := s.provider.BuildAndSaveAll(ctx, byDomain)
	for failedDomain, buildErr := range failed {
		log.Errorf("[QueryService] rebuild failed for domain %q: %v", failedDomain, buildErr)
	}
	for builtDomain, store := range built {
		s.cacheStore(builtDomain, store)
	}
	if store, ok := built[domain]; ok {
		log.Infof("[QueryService] vectorstore built and loaded for domain %q", domain)
		return store
	}
	return nil
}

// Retrain refits the classifier from the current corpus and persists it.
func (s *queryService) Retrain(ctx context.Context) error {
	records, err := s.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load corpus for retraining: %w", err)
	}
	if err := s.classifier.Fit(records); err != nil {
		return fmt.Errorf("failed to retrain classifier: %w", err)
	}
	log.Info("[QueryService] classifier retrained successfully")
	return nil
}

// Rebuild rebuilds every domain index wholesale, serialized with the lazy
// rebuild path.
func (s *queryService) Rebuild(ctx context.Context) ([]string, map[string]string, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	records, err := s.loader.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load corpus for rebuild: %w", err)
	}
	byDomain, _ := corpus.ChunkByDomain(records)

	builtStores, failedErrs := s.provider.BuildAndSaveAll(ctx, byDomain)
	// The wholesale rebuild supersedes everything previously resolved, so
	// the cache is replaced rather than merged.
	s.resetStores(builtStores)
	built := make([]string, 0, len(builtStores))
	for domain := range builtStores {
		built = append(built, domain)
	}
	sort.Strings(built)
	failed := make(map[string]string, len(failedErrs))
	for domain, buildErr := range failedErrs {
		failed[domain] = buildErr.Error()
	}
	return built, failed, nil
}

func (s *queryService) cachedStore(domain string) (vectorstore.Store, bool) {
	s.storeMu.RLock()
	defer s.storeMu.RUnlock()
	store, ok := s.stores[domain]
	return store, ok
}

func (s *queryService) cacheStore(domain string, store vectorstore.Store) {
	s.storeMu.Lock()
	s.stores[domain] = store
	s.storeMu.Unlock()
}

func (s *queryService) resetStores(stores map[string]vectorstore.Store) {
	if stores == nil {
		stores = make(map[string]vectorstore.Store)
	}
	s.storeMu.Lock()
	s.stores = stores
	s.storeMu.Unlock()
}

func (s *queryService) publish(ctx context.Context, domain, query string, start time.Time, degraded bool) {
	s.producer.Publish(ctx, kafka.PredictionEvent{
		Domain:     domain,
		QueryChars: len(query),
		DurationMS: time.Since(start).Milliseconds(),
		Degraded:   degraded,
		Timestamp:  time.Now(),
	})
}

// queryForLog hides query content unless query logging is enabled.
func (s *queryService) queryForLog(query string) string {
	if s.opts.LogQueries {
		return fmt.Sprintf("%q", query)
	}
	return fmt.Sprintf("(%d chars)", len(query))
}
