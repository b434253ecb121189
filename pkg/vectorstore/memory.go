package vectorstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/inercia/go-llm-lessons/pkg/embeddings"
)

type memoryEntry struct {
	doc    Document
	vector []float32
}

// MemoryStore is an in-memory Store using brute-force cosine ranking. It is
// suitable for small corpora and tests.
type MemoryStore struct {
	embedder embeddings.Embedder

	mu      sync.RWMutex
	entries []memoryEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(embedder embeddings.Embedder) *MemoryStore {
	return &MemoryStore{embedder: embedder}
}

// AddDocuments embeds and indexes the given documents. Documents without an
// ID get a generated one.
func (s *MemoryStore) AddDocuments(ctx context.Context, docs []Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		ids[i] = doc.ID
		s.entries = append(s.entries, memoryEntry{doc: doc, vector: vectors[i]})
	}
	return ids, nil
}

// SimilaritySearch returns up to k documents ranked by cosine similarity.
func (s *MemoryStore) SimilaritySearch(ctx context.Context, query string, k int) ([]ScoredDocument, error) {
	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]ScoredDocument, 0, len(s.entries))
	for _, entry := range s.entries {
		scored = append(scored, ScoredDocument{
			Document: entry.doc,
			Score:    embeddings.CosineSimilarity(queryVector, entry.vector),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > 0 && k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// Len returns the number of indexed documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
