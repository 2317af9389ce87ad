package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domain-chat-go/internal/model"
)

func sampleRecords() []model.Record {
	return []model.Record{
		{
			Query:    "What are the side effects of the COVID-19 vaccine?",
			Response: "Common side effects include soreness and fatigue.",
			Intent:   "side effects inquiry",
			Domain:   "healthcare",
		},
		{
			Query:    "How can I check my account balance?",
			Response: "Log into your online banking portal.",
			Intent:   "balance inquiry",
			Domain:   "finance",
		},
		{
			Query:    "How do I book a doctor appointment?",
			Response: "Call the clinic or use the patient portal.",
			Intent:   "appointment booking",
			Domain:   "healthcare",
		},
	}
}

func TestChunkAll(t *testing.T) {
	docs := ChunkAll(sampleRecords())
	require.Len(t, docs, 3)

	want := "Query: What are the side effects of the COVID-19 vaccine?\n" +
		"Response: Common side effects include soreness and fatigue.\n" +
		"Intent: side effects inquiry"
	assert.Equal(t, want, docs[0].Text)
	assert.Equal(t, "healthcare", docs[0].Metadata.Domain)
	assert.Equal(t, "side effects inquiry", docs[0].Metadata.Intent)
}

func TestChunkByDomain(t *testing.T) {
	byDomain, domains := ChunkByDomain(sampleRecords())

	require.Len(t, byDomain, 2)
	assert.Len(t, byDomain["healthcare"], 2)
	assert.Len(t, byDomain["finance"], 1)

	// Domains come back in first-seen order.
	assert.Equal(t, []string{"healthcare", "finance"}, domains)

	for domain, docs := range byDomain {
		for _, doc := range docs {
			assert.Equal(t, domain, doc.Metadata.Domain)
		}
	}
}

func TestChunkByDomain_Empty(t *testing.T) {
	byDomain, domains := ChunkByDomain(nil)
	assert.Empty(t, byDomain)
	assert.Empty(t, domains)
}
