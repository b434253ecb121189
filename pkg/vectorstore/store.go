// Package vectorstore provides document stores with similarity search over
// embedding vectors.
package vectorstore

import "context"

// Document is a unit of text with optional metadata.
type Document struct {
	ID          string         `json:"id"`
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ScoredDocument pairs a document with its similarity to a query, higher is
// more similar.
type ScoredDocument struct {
	Document
	Score float64 `json:"score"`
}

// Store indexes documents and retrieves the ones most similar to a query.
type Store interface {
	// AddDocuments embeds and indexes the given documents, returning their
	// assigned IDs.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// SimilaritySearch returns up to k documents ranked by similarity to
	// the query.
	SimilaritySearch(ctx context.Context, query string, k int) ([]ScoredDocument, error)
}
