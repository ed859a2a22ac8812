// Package vectorstore wraps chromem-go as the knowledge base used to
// ground replies.
package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	chromem "github.com/philippgille/chromem-go"
	"github.com/pkg/errors"
)

const collectionName = "knowledge_base"

// Store wraps chromem-go with disk persistence and id bookkeeping.
// Queries may run concurrently; additions and clears are exclusive.
type Store struct {
	mu      sync.RWMutex
	db      *chromem.DB
	col     *chromem.Collection
	embedFn chromem.EmbeddingFunc
	// nextID feeds sequential "doc_<n>" ids. Deriving ids from the live
	// collection count would race under concurrent additions.
	nextID atomic.Int64
}

// New creates (or opens) the persistent knowledge base at
// dataDir/vectorstore/. embedFn is the embedding function to use — pass
// chromem.NewEmbeddingFuncOpenAICompat pointed at the configured
// embeddings endpoint.
func New(dataDir string, embedFn chromem.EmbeddingFunc) (*Store, error) {
	dir := filepath.Join(dataDir, "vectorstore")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, errors.Wrap(err, "create vectorstore dir")
	}
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, errors.Wrap(err, "open vectorstore")
	}
	col, err := db.GetOrCreateCollection(collectionName, nil, embedFn)
	if err != nil {
		return nil, errors.Wrap(err, "open collection")
	}
	s := &Store{db: db, col: col, embedFn: embedFn}
	s.nextID.Store(int64(col.Count()))
	return s, nil
}

// AddDocuments embeds each chunk and stores it under a sequential
// "doc_<n>" id. metadatas may be nil, in which case every chunk is
// tagged {"source": "manual"}; when given it must be the same length as
// chunks.
func (s *Store) AddDocuments(ctx context.Context, chunks []string, metadatas []map[string]string) error {
	if len(chunks) == 0 {
		slog.Warn("no documents to add")
		return nil
	}
	if metadatas != nil && len(metadatas) != len(chunks) {
		return errors.Errorf("vectorstore: %d metadata entries for %d chunks", len(metadatas), len(chunks))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]chromem.Document, 0, len(chunks))
	for i, chunk := range chunks {
		meta := map[string]string{"source": "manual"}
		if metadatas != nil {
			meta = metadatas[i]
		}
		docs = append(docs, chromem.Document{
			ID:       fmt.Sprintf("doc_%d", s.nextID.Add(1)-1),
			Content:  chunk,
			Metadata: meta,
		})
	}
	if err := s.col.AddDocuments(ctx, docs, 1); err != nil {
		return errors.Wrap(err, "add documents")
	}
	slog.Info("added documents to knowledge base", "count", len(docs))
	return nil
}

// Query returns the texts of the k chunks most similar to text, joined
// with a blank line between each, closest first. An empty knowledge base
// yields "" without touching the embedding backend.
func (s *Store) Query(ctx context.Context, text string, k int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.col.Count()
	if count == 0 {
		slog.Warn("knowledge base is empty")
		return "", nil
	}
	if k <= 0 {
		k = 3
	}
	if k > count {
		k = count
	}

	var results []chromem.Result
	var err error
	// chromem-go sometimes throws "nResults must be <= number of documents"
	// despite Count checks. Step down k if it fails.
	for attemptK := k; attemptK > 0; attemptK-- {
		results, err = s.col.Query(ctx, text, attemptK, nil, nil)
		if err == nil {
			break
		}
	}
	if err != nil {
		return "", err
	}

	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Content)
	}
	return strings.Join(texts, "\n\n"), nil
}

// Clear drops all stored chunks and recreates an empty collection under
// the same name.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(collectionName); err != nil {
		return errors.Wrap(err, "delete collection")
	}
	col, err := s.db.GetOrCreateCollection(collectionName, nil, s.embedFn)
	if err != nil {
		return errors.Wrap(err, "recreate collection")
	}
	s.col = col
	s.nextID.Store(0)
	slog.Info("knowledge base cleared")
	return nil
}

// Count returns the number of stored chunks.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.col.Count()
}
