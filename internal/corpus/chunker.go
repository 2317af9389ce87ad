package corpus

import (
	"domain-chat-go/internal/model"
	"domain-chat-go/pkg/log"
)

// ChunkAll converts every record into a Document, one per record.
func ChunkAll(records []model.Record) []model.Document {
	docs := make([]model.Document, 0, len(records))
	for _, rec := range records {
		docs = append(docs, model.NewDocument(rec))
	}
	log.Infof("[Chunker] converted %d records into documents", len(docs))
	return docs
}

// ChunkByDomain groups the documents of each domain. The returned slice lists
// the domains in first-seen order; grouping, not order, is what callers rely on.
func ChunkByDomain(records []model.Record) (map[string][]model.Document, []string) {
	byDomain := make(map[string][]model.Document)
	var domains []string
	for _, rec := range records {
		if _, ok := byDomain[rec.Domain]; !ok {
			domains = append(domains, rec.Domain)
		}
		byDomain[rec.Domain] = append(byDomain[rec.Domain], model.NewDocument(rec))
	}
	for _, domain := range domains {
		log.Infof("[Chunker] created %d documents for domain %q", len(byDomain[domain]), domain)
	}
	return byDomain, domains
}
