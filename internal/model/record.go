// Package model defines the data structures shared across the application.
package model

import "fmt"

// Record is one row of the source corpus. Immutable once loaded.
type Record struct {
	Query    string
	Response string
	Intent   string
	Domain   string
}

// Document is a retrievable unit produced from one Record. The text is a
// fixed synthesis of the record fields; Metadata carries domain and intent.
type Document struct {
	Text     string
	Metadata Metadata
}

// Metadata holds the structured attributes of a Document.
type Metadata struct {
	Domain string
	Intent string
}

// ScoredDocument pairs a retrieved Document with its similarity score.
type ScoredDocument struct {
	Doc   Document
	Score float64
}

// NewDocument builds the Document for a Record using the fixed text format.
func NewDocument(r Record) Document {
	return Document{
		Text:     fmt.Sprintf("Query: %s\nResponse: %s\nIntent: %s", r.Query, r.Response, r.Intent),
		Metadata: Metadata{Domain: r.Domain, Intent: r.Intent},
	}
}
