package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	chromaembed "github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/google/uuid"

	"github.com/inercia/go-llm-lessons/pkg/embeddings"
)

// ChromaStore is a Store backed by a ChromaDB collection. Embeddings are
// computed client-side so the same embedder serves queries and documents.
type ChromaStore struct {
	client     chromago.Client
	collection chromago.Collection
	embedder   embeddings.Embedder
}

// NewChromaStore connects to a ChromaDB server and gets or creates the named
// collection. An empty baseURL uses the client's default (localhost:8000).
func NewChromaStore(ctx context.Context, baseURL, collectionName string, embedder embeddings.Embedder) (*ChromaStore, error) {
	var opts []chromago.ClientOption
	if baseURL != "" {
		opts = append(opts, chromago.WithBaseURL(baseURL))
	}

	client, err := chromago.NewHTTPClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(
		ctx,
		collectionName,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("created_by", "go-llm-lessons"),
			),
		),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("getting collection %q: %w", collectionName, err)
	}

	return &ChromaStore{client: client, collection: collection, embedder: embedder}, nil
}

// AddDocuments embeds and indexes the given documents.
func (s *ChromaStore) AddDocuments(ctx context.Context, docs []Document) ([]string, error) {
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

	ids := make([]string, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		ids[i] = doc.ID

		addOpts := []chromago.CollectionAddOption{
			chromago.WithIDs(chromago.DocumentID(doc.ID)),
			chromago.WithTexts(doc.PageContent),
			chromago.WithEmbeddings(chromaembed.NewEmbeddingFromFloat32(vectors[i])),
		}
		if metadata := metadataAttributes(doc.Metadata); metadata != nil {
			addOpts = append(addOpts, chromago.WithMetadatas(metadata))
		}
		if err := s.collection.Add(ctx, addOpts...); err != nil {
			return nil, fmt.Errorf("adding document %q: %w", doc.ID, err)
		}
	}
	return ids, nil
}

// SimilaritySearch returns up to k documents ranked by similarity. ChromaDB
// reports cosine distance, so the score is 1 - distance.
func (s *ChromaStore) SimilaritySearch(ctx context.Context, query string, k int) ([]ScoredDocument, error) {
	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := s.collection.Query(
		ctx,
		chromago.WithQueryEmbeddings(chromaembed.NewEmbeddingFromFloat32(queryVector)),
		chromago.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	var docs []ScoredDocument
	idGroups := results.GetIDGroups()
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(documentGroups) == 0 {
		return docs, nil
	}

	for i, doc := range documentGroups[0] {
		scored := ScoredDocument{
			Document: Document{PageContent: doc.ContentString()},
		}
		if len(idGroups) > 0 && i < len(idGroups[0]) {
			scored.ID = string(idGroups[0][i])
		}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			scored.Metadata = metadataToMap(metadataGroups[0][i])
		}
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			scored.Score = 1 - float64(distanceGroups[0][i])
		}
		docs = append(docs, scored)
	}
	return docs, nil
}

// Count returns the number of documents in the collection.
func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	return s.collection.Count(ctx)
}

// Close releases the underlying client.
func (s *ChromaStore) Close() error {
	return s.client.Close()
}

func metadataAttributes(metadata map[string]any) chromago.DocumentMetadata {
	if len(metadata) == 0 {
		return nil
	}
	attrs := make([]*chromago.MetaAttribute, 0, len(metadata))
	for key, value := range metadata {
		switch v := value.(type) {
		case string:
			attrs = append(attrs, chromago.NewStringAttribute(key, v))
		case int:
			attrs = append(attrs, chromago.NewIntAttribute(key, int64(v)))
		case int64:
			attrs = append(attrs, chromago.NewIntAttribute(key, v))
		case float64:
			attrs = append(attrs, chromago.NewFloatAttribute(key, v))
		case bool:
			attrs = append(attrs, chromago.NewBoolAttribute(key, v))
		default:
			attrs = append(attrs, chromago.NewStringAttribute(key, fmt.Sprintf("%v", v)))
		}
	}
	return chromago.NewDocumentMetadata(attrs...)
}

// metadataToMap converts collection metadata back to a plain map. The
// metadata type exposes no accessor for all values, so it round-trips
// through JSON.
func metadataToMap(metadata chromago.DocumentMetadata) map[string]any {
	if metadata == nil {
		return nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
