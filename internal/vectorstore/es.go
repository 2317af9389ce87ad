package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"domain-chat-go/internal/model"
	"domain-chat-go/pkg/embedding"
	"domain-chat-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// esDocument is the per-chunk payload stored in Elasticsearch.
type esDocument struct {
	Text   string    `json:"text"`
	Domain string    `json:"domain"`
	Intent string    `json:"intent"`
	Vector []float32 `json:"vector"`
}

// ESProvider is the Elasticsearch-backed Provider: one ES index per domain,
// named <prefix>-<domain>, searched with dense_vector cosine kNN. Unlike the
// local Registry it never materializes an index in memory; stores query the
// cluster directly.
type ESProvider struct {
	client   *elasticsearch.Client
	prefix   string
	embedder embedding.Client
}

// NewESProvider creates a Provider over the given Elasticsearch client.
func NewESProvider(client *elasticsearch.Client, prefix string, embedder embedding.Client) *ESProvider {
	if prefix == "" {
		prefix = "domain-chat"
	}
	return &ESProvider{client: client, prefix: prefix, embedder: embedder}
}

func (p *ESProvider) indexName(domain string) string {
	return p.prefix + "-" + strings.ToLower(domain)
}

// Load checks whether the domain's ES index exists and returns a store
// bound to it.
func (p *ESProvider) Load(ctx context.Context, domain string) (Store, bool, error) {
	name := p.indexName(domain)
	res, err := p.client.Indices.Exists([]string{name}, p.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return nil, false, fmt.Errorf("failed to check index %q: %w", name, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return &esStore{provider: p, index: name}, true, nil
	case http.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("unexpected status checking index %q: %d", name, res.StatusCode)
	}
}

// BuildAndSaveAll recreates the ES index of every domain and bulk-indexes
// the embedded documents. Per-domain failures are collected, not fatal to
// the batch.
func (p *ESProvider) BuildAndSaveAll(ctx context.Context, byDomain map[string][]model.Document) (map[string]Store, map[string]error) {
	built := make(map[string]Store, len(byDomain))
	failed := make(map[string]error)
	for domain, docs := range byDomain {
		store, err := p.buildDomain(ctx, domain, docs)
		if err != nil {
			log.Errorf("[VectorStore] failed to build ES index for domain %q: %v", domain, err)
			failed[domain] = err
			continue
		}
		built[domain] = store
	}
	log.Infof("[VectorStore] ES batch build finished, built: %d, failed: %d", len(built), len(failed))
	return built, failed
}

func (p *ESProvider) buildDomain(ctx context.Context, domain string, docs []model.Document) (Store, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyDomain, domain)
	}
	name := p.indexName(domain)

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}
	vectors, err := p.embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents for domain %q: %w", domain, err)
	}

	// Rebuilds are wholesale: drop any previous index before recreating it.
	if res, err := p.client.Indices.Delete([]string{name},
		p.client.Indices.Delete.WithContext(ctx),
		p.client.Indices.Delete.WithIgnoreUnavailable(true)); err == nil {
		res.Body.Close()
	}

	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"text":   { "type": "text" },
				"domain": { "type": "keyword" },
				"intent": { "type": "keyword" },
				"vector": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				}
			}
		}
	}`, len(vectors[0]))

	res, err := p.client.Indices.Create(name,
		p.client.Indices.Create.WithContext(ctx),
		p.client.Indices.Create.WithBody(strings.NewReader(mapping)))
	if err != nil {
		return nil, fmt.Errorf("failed to create index %q: %w", name, err)
	}
	res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned an error creating index %q: %s", name, res.String())
	}

	for i, doc := range docs {
		esDoc := esDocument{
			Text:   doc.Text,
			Domain: doc.Metadata.Domain,
			Intent: doc.Metadata.Intent,
			Vector: vectors[i],
		}
		docBytes, err := json.Marshal(esDoc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal document: %w", err)
		}
		req := esapi.IndexRequest{
			Index:      name,
			DocumentID: fmt.Sprintf("%s_%d", domain, i),
			Body:       bytes.NewReader(docBytes),
			Refresh:    "true",
		}
		idxRes, err := req.Do(ctx, p.client)
		if err != nil {
			return nil, fmt.Errorf("failed to index document %d: %w", i, err)
		}
		idxRes.Body.Close()
		if idxRes.IsError() {
			return nil, fmt.Errorf("elasticsearch returned an error indexing document %d: %s", i, idxRes.String())
		}
	}
	log.Infof("[VectorStore] indexed %d documents into %q", len(docs), name)
	return &esStore{provider: p, index: name}, nil
}

// esStore queries one domain's ES index with dense_vector kNN.
type esStore struct {
	provider *ESProvider
	index    string
}

// Search embeds the query and runs a cosine kNN search over the index.
func (s *esStore) Search(ctx context.Context, text string, k int) ([]model.ScoredDocument, error) {
	if k < 1 {
		return nil, fmt.Errorf("vectorstore: k must be >= 1, got %d", k)
	}

	queryVec, err := s.provider.embedder.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	esQuery := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   queryVec,
			"k":              k,
			"num_candidates": k * 10,
		},
		"size": k,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := s.provider.client.Search(
		s.provider.client.Search.WithContext(ctx),
		s.provider.client.Search.WithIndex(s.index),
		s.provider.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		if res.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.index)
		}
		log.Errorf("[VectorStore] elasticsearch error, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, errors.New("elasticsearch returned an error")
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source esDocument `json:"_source"`
				Score  float64    `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	results := make([]model.ScoredDocument, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		results = append(results, model.ScoredDocument{
			Doc: model.Document{
				Text:     hit.Source.Text,
				Metadata: model.Metadata{Domain: hit.Source.Domain, Intent: hit.Source.Intent},
			},
			Score: hit.Score,
		})
	}
	return results, nil
}
