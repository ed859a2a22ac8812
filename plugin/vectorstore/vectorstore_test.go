package vectorstore

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"

	chromem "github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedding is a deterministic stand-in for the remote embedding
// backend: a normalized 4-dim vector derived from the text bytes.
func fakeEmbedding(_ context.Context, text string) ([]float32, error) {
	v := [4]float32{1, 0, 0, 0}
	for i, b := range []byte(text) {
		v[i%4] += float32(b)
	}
	var norm float32
	for _, x := range v {
		norm += x * x
	}
	norm = float32(math.Sqrt(float64(norm)))
	out := make([]float32, 4)
	for i, x := range v {
		out[i] = x / norm
	}
	return out, nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), chromem.EmbeddingFunc(fakeEmbedding))
	require.NoError(t, err)
	return s
}

func TestQueryEmptyIndex(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Query(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Equal(t, "", got)
	assert.Zero(t, s.Count())
}

func TestAddDocumentsEmptyInput(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddDocuments(context.Background(), nil, nil))
	assert.Zero(t, s.Count())
}

func TestAddDocumentsMetadataMismatch(t *testing.T) {
	s := newTestStore(t)
	err := s.AddDocuments(context.Background(), []string{"a", "b"}, []map[string]string{{"source": "x"}})
	require.Error(t, err)
}

func TestQueryTopKBound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.AddDocuments(ctx, []string{
		"opening hours are nine to five",
		"we ship worldwide within a week",
	}, nil))
	require.Equal(t, 2, s.Count())

	got, err := s.Query(ctx, "when are you open", 5)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	// Never more than min(k, count) results.
	assert.LessOrEqual(t, len(strings.Split(got, "\n\n")), 2)
}

func TestQueryJoinsWithBlankLines(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.AddDocuments(ctx, []string{"alpha", "beta", "gamma"}, nil))

	got, err := s.Query(ctx, "alpha", 3)
	require.NoError(t, err)
	parts := strings.Split(got, "\n\n")
	require.Len(t, parts, 3)
	assert.ElementsMatch(t, []string{"alpha", "beta", "gamma"}, parts)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.AddDocuments(ctx, []string{"something"}, nil))
	require.Equal(t, 1, s.Count())

	require.NoError(t, s.Clear(ctx))
	assert.Zero(t, s.Count())

	got, err := s.Query(ctx, "something", 3)
	require.NoError(t, err)
	assert.Equal(t, "", got)

	// The store stays usable after a clear, with ids starting over.
	require.NoError(t, s.AddDocuments(ctx, []string{"fresh"}, nil))
	assert.Equal(t, 1, s.Count())
}

func TestConcurrentAddsAssignUniqueIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const writers = 8
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			texts := []string{
				strings.Repeat("x", w+1),
				strings.Repeat("y", w+1),
			}
			assert.NoError(t, s.AddDocuments(ctx, texts, nil))
		}(w)
	}
	wg.Wait()

	// Count-derived ids would collide and overwrite; the atomic counter
	// keeps every document.
	assert.Equal(t, writers*2, s.Count())
}
