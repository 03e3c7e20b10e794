package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ai-policydesk-be/internal/pkg/logger"
	"ai-policydesk-be/pkg/embedding"
	"ai-policydesk-be/pkg/rag/agent"
	"ai-policydesk-be/pkg/utils"

	"golang.org/x/sync/errgroup"
)

const moduleName = "INGEST"

// PageBreak separates pages inside a plain text policy document.
const PageBreak = "\f"

var supportedExtensions = map[string]bool{".txt": true, ".md": true}

// Chunk is one embedded slice of a policy document page.
type Chunk struct {
	Category       string
	SourceDocument string
	PageNumber     int // 1-based
	ChunkIndex     int // position within the document
	Content        string
	Embedding      []float32
}

// Sink stores the chunks of one document, replacing whatever it held
// for the same category and source before.
type Sink interface {
	Replace(ctx context.Context, category, source string, chunks []Chunk) error
}

// Report summarizes one ingestion run.
type Report struct {
	Documents int
	Pages     int
	Chunks    int
	Skipped   []string
}

type Ingester struct {
	embedder     embedding.EmbeddingProvider
	sink         Sink
	logger       logger.ILogger
	chunkSize    int
	chunkOverlap int
	concurrency  int
}

type Option func(*Ingester)

func WithChunking(size, overlap int) Option {
	return func(i *Ingester) {
		if size > 0 {
			i.chunkSize = size
		}
		if overlap >= 0 && overlap < i.chunkSize {
			i.chunkOverlap = overlap
		}
	}
}

// WithConcurrency bounds the number of embedding calls in flight per document.
func WithConcurrency(n int) Option {
	return func(i *Ingester) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

func NewIngester(embedder embedding.EmbeddingProvider, sink Sink, log logger.ILogger, opts ...Option) *Ingester {
	i := &Ingester{
		embedder:     embedder,
		sink:         sink,
		logger:       log,
		chunkSize:    500,
		chunkOverlap: 100,
		concurrency:  4,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IngestDir loads every supported document below root. The first directory
// level names the category ("docs/Leave/annual.txt" is a Leave document);
// files directly in root are filed under General.
func (i *Ingester) IngestDir(ctx context.Context, root string) (Report, error) {
	var report Report

	info, err := os.Stat(root)
	if err != nil {
		return report, fmt.Errorf("docs dir: %w", err)
	}
	if !info.IsDir() {
		return report, fmt.Errorf("docs dir: %s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			report.Skipped = append(report.Skipped, path)
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("walk docs dir: %w", err)
	}
	sort.Strings(files)

	for _, path := range files {
		category := CategoryFor(root, path)

		pages, chunks, err := i.IngestFile(ctx, category, path)
		if err != nil {
			return report, err
		}

		report.Documents++
		report.Pages += pages
		report.Chunks += chunks
	}

	i.logger.Info(moduleName, "Ingestion finished", map[string]interface{}{
		"root":      root,
		"documents": report.Documents,
		"pages":     report.Pages,
		"chunks":    report.Chunks,
		"skipped":   len(report.Skipped),
	})

	return report, nil
}

// IngestFile chunks, embeds and stores one document. It returns the
// number of non-empty pages and chunks written.
func (i *Ingester) IngestFile(ctx context.Context, category, path string) (int, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read %s: %w", path, err)
	}

	source := filepath.Base(path)
	chunks := i.split(category, source, string(raw))

	pages := map[int]bool{}
	for _, c := range chunks {
		pages[c.PageNumber] = true
	}

	if err := i.embed(ctx, chunks); err != nil {
		return 0, 0, fmt.Errorf("embed %s: %w", source, err)
	}

	if err := i.sink.Replace(ctx, category, source, chunks); err != nil {
		return 0, 0, fmt.Errorf("store %s: %w", source, err)
	}

	i.logger.Debug(moduleName, "Document ingested", map[string]interface{}{
		"category": category,
		"source":   source,
		"pages":    len(pages),
		"chunks":   len(chunks),
	})

	return len(pages), len(chunks), nil
}

func (i *Ingester) split(category, source, text string) []Chunk {
	var chunks []Chunk
	for n, page := range SplitPages(text) {
		if page == "" {
			continue
		}
		for _, piece := range utils.SplitText(page, i.chunkSize, i.chunkOverlap) {
			if strings.TrimSpace(piece) == "" {
				continue
			}
			chunks = append(chunks, Chunk{
				Category:       category,
				SourceDocument: source,
				PageNumber:     n + 1,
				ChunkIndex:     len(chunks),
				Content:        piece,
			})
		}
	}
	return chunks
}

func (i *Ingester) embed(ctx context.Context, chunks []Chunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)

	for idx := range chunks {
		idx := idx
		g.Go(func() error {
			res, err := i.embedder.Generate(gctx, chunks[idx].Content, embedding.TaskRetrievalDocument)
			if err != nil {
				return err
			}
			chunks[idx].Embedding = res.Embedding.Values
			return nil
		})
	}

	return g.Wait()
}

// SplitPages splits a document on form feeds. Pages keep their position
// so page numbers stay stable; blank pages come back as "".
func SplitPages(text string) []string {
	pages := strings.Split(text, PageBreak)
	for n := range pages {
		pages[n] = strings.TrimSpace(pages[n])
	}
	return pages
}

// CategoryFor derives a document's category from its first directory
// below root.
func CategoryFor(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return agent.CategoryGeneral
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return agent.CategoryGeneral
	}
	return agent.CanonicalCategory(parts[0])
}
