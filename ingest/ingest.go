// Package ingest loads documents, chunks them, and feeds the knowledge
// base.
package ingest

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/answerdesk/answerdesk/plugin/chunker"
)

// ingestParallelism bounds concurrent file ingestion during directory
// walks.
const ingestParallelism = 4

// Index is the slice of the knowledge base ingestion writes to.
type Index interface {
	AddDocuments(ctx context.Context, chunks []string, metadatas []map[string]string) error
}

// Ingestor turns files and raw text into indexed chunks.
type Ingestor struct {
	index     Index
	extractor Extractor
	chunkSize int
	overlap   int
}

// New creates an Ingestor. extractor decodes binary formats (PDF, DOCX)
// to plain text; pass nil to skip those formats entirely.
func New(index Index, extractor Extractor, chunkSize, overlap int) *Ingestor {
	return &Ingestor{
		index:     index,
		extractor: extractor,
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// IngestFile reads one file, chunks it, and indexes the chunks. Files
// that cannot be decoded or hold no text are skipped with a warning, not
// an error. Returns the number of chunks added.
func (ig *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	text, err := ig.readFile(ctx, path)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(text) == "" {
		slog.Warn("no text extracted, skipping", "path", path)
		return 0, nil
	}

	chunks, err := chunker.Split(text, ig.chunkSize, ig.overlap)
	if err != nil {
		return 0, err
	}
	metadatas := make([]map[string]string, len(chunks))
	for i := range chunks {
		metadatas[i] = map[string]string{
			"source": path,
			"chunk":  strconv.Itoa(i),
		}
	}
	if err := ig.index.AddDocuments(ctx, chunks, metadatas); err != nil {
		return 0, err
	}
	slog.Info("ingested file", "path", path, "chunks", len(chunks))
	return len(chunks), nil
}

// IngestDir walks dir recursively and ingests every supported file with
// bounded parallelism. Returns the total number of chunks added.
func (ig *Ingestor) IngestDir(ctx context.Context, dir string) (int, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && ig.supported(filepath.Ext(path)) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "walk directory")
	}
	if len(paths) == 0 {
		slog.Warn("no supported files found", "dir", dir)
		return 0, nil
	}

	var total atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ingestParallelism)
	for _, path := range paths {
		g.Go(func() error {
			n, err := ig.IngestFile(gctx, path)
			if err != nil {
				return err
			}
			total.Add(int64(n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(total.Load()), err
	}
	slog.Info("directory ingested", "dir", dir, "files", len(paths), "chunks", total.Load())
	return int(total.Load()), nil
}

// IngestText chunks and indexes raw text. An empty source is assigned a
// generated "manual-<id>" name.
func (ig *Ingestor) IngestText(ctx context.Context, text, source string) (int, error) {
	if source == "" {
		source = "manual-" + shortuuid.New()
	}
	chunks, err := chunker.Split(text, ig.chunkSize, ig.overlap)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		slog.Warn("no text to ingest", "source", source)
		return 0, nil
	}
	metadatas := make([]map[string]string, len(chunks))
	for i := range chunks {
		metadatas[i] = map[string]string{
			"source": source,
			"chunk":  strconv.Itoa(i),
		}
	}
	if err := ig.index.AddDocuments(ctx, chunks, metadatas); err != nil {
		return 0, err
	}
	slog.Info("ingested text", "source", source, "chunks", len(chunks))
	return len(chunks), nil
}

func (ig *Ingestor) supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".txt", ".md":
		return true
	case ".pdf", ".docx":
		return ig.extractor != nil
	default:
		return false
	}
}

// readFile returns the plain text of a file, delegating binary formats
// to the extractor. Decode failures yield empty text so the caller skips
// the file instead of aborting the whole ingestion.
func (ig *Ingestor) readFile(ctx context.Context, path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrapf(err, "read %s", path)
		}
		return string(data), nil
	case ".pdf", ".docx":
		if ig.extractor == nil {
			slog.Warn("no extractor configured, skipping", "path", path)
			return "", nil
		}
		text, err := ig.extractor.Extract(ctx, path)
		if err != nil {
			slog.Warn("failed to decode document, skipping", "path", path, "err", err)
			return "", nil
		}
		return text, nil
	default:
		slog.Warn("unsupported file type, skipping", "path", path)
		return "", nil
	}
}
