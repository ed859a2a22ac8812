package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	mu        sync.Mutex
	chunks    []string
	metadatas []map[string]string
	err       error
}

func (f *fakeIndex) AddDocuments(_ context.Context, chunks []string, metadatas []map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.chunks = append(f.chunks, chunks...)
	f.metadatas = append(f.metadatas, metadatas...)
	return nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(context.Context, string) (string, error) {
	return f.text, f.err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestFileText(t *testing.T) {
	idx := &fakeIndex{}
	ig := New(idx, nil, 20, 5)
	path := writeFile(t, t.TempDir(), "faq.txt", "We ship worldwide. Returns are accepted within thirty days of purchase.")

	n, err := ig.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, n, len(idx.chunks))
	require.NotEmpty(t, idx.metadatas)
	assert.Equal(t, path, idx.metadatas[0]["source"])
	assert.Equal(t, "0", idx.metadatas[0]["chunk"])
}

func TestIngestFileEmpty(t *testing.T) {
	idx := &fakeIndex{}
	ig := New(idx, nil, 1000, 200)
	path := writeFile(t, t.TempDir(), "empty.txt", "   \n ")

	n, err := ig.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, idx.chunks)
}

func TestIngestFileDecodeFailureSkips(t *testing.T) {
	idx := &fakeIndex{}
	ig := New(idx, &fakeExtractor{err: errors.New("corrupt file")}, 1000, 200)
	path := writeFile(t, t.TempDir(), "broken.pdf", "%PDF-garbage")

	n, err := ig.IngestFile(context.Background(), path)
	require.NoError(t, err, "decode failure must not abort ingestion")
	assert.Zero(t, n)
}

func TestIngestFileExtracted(t *testing.T) {
	idx := &fakeIndex{}
	ig := New(idx, &fakeExtractor{text: "decoded pdf body"}, 1000, 200)
	path := writeFile(t, t.TempDir(), "doc.pdf", "%PDF-1.4")

	n, err := ig.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"decoded pdf body"}, idx.chunks)
}

func TestIngestFileInvalidChunkParams(t *testing.T) {
	idx := &fakeIndex{}
	ig := New(idx, nil, 100, 100)
	path := writeFile(t, t.TempDir(), "faq.txt", "some text")

	_, err := ig.IngestFile(context.Background(), path)
	require.Error(t, err)
}

func TestIngestDir(t *testing.T) {
	idx := &fakeIndex{}
	ig := New(idx, nil, 1000, 200)
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "first document")
	writeFile(t, dir, "b.md", "second document")
	writeFile(t, dir, "ignored.bin", "binary noise")
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeFile(t, sub, "c.txt", "third document")

	n, err := ig.IngestDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, idx.chunks, 3)
}

func TestIngestDirEmpty(t *testing.T) {
	idx := &fakeIndex{}
	ig := New(idx, nil, 1000, 200)

	n, err := ig.IngestDir(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIngestText(t *testing.T) {
	idx := &fakeIndex{}
	ig := New(idx, nil, 1000, 200)

	n, err := ig.IngestText(context.Background(), "our support desk is open on weekdays", "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, idx.metadatas, 1)
	assert.Contains(t, idx.metadatas[0]["source"], "manual-")
}

func TestIngestTextIndexFailure(t *testing.T) {
	idx := &fakeIndex{err: errors.New("index down")}
	ig := New(idx, nil, 1000, 200)

	_, err := ig.IngestText(context.Background(), "text", "manual")
	require.Error(t, err)
}
