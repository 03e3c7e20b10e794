package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ai-policydesk-be/internal/pkg/logger"
	"ai-policydesk-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	mu    sync.Mutex
	tasks []string
	err   error
}

func (f *fakeEmbedder) Generate(_ context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, taskType)
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{float32(len(text)), 1}},
	}, nil
}

type memorySink struct {
	docs map[string][]Chunk
}

func (s *memorySink) Replace(_ context.Context, category, source string, chunks []Chunk) error {
	if s.docs == nil {
		s.docs = map[string][]Chunk{}
	}
	s.docs[category+"/"+source] = chunks
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSplitPages(t *testing.T) {
	pages := SplitPages("first page\f\f  third page  ")

	assert.Equal(t, []string{"first page", "", "third page"}, pages)
}

func TestCategoryFor(t *testing.T) {
	root := filepath.Join("docs")

	assert.Equal(t, "Leave", CategoryFor(root, filepath.Join("docs", "leave", "annual.txt")))
	assert.Equal(t, "IT", CategoryFor(root, filepath.Join("docs", "IT", "sub", "vpn.md")))
	assert.Equal(t, "General", CategoryFor(root, filepath.Join("docs", "handbook.txt")))
	assert.Equal(t, "Finance", CategoryFor(root, filepath.Join("docs", "Finance", "travel.txt")))
}

func TestIngestDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Leave", "annual.txt"), "Annual leave is 20 days.\fCarry over up to 5 days.")
	writeFile(t, filepath.Join(root, "IT", "vpn.md"), strings.Repeat("v", 1200))
	writeFile(t, filepath.Join(root, "IT", "diagram.png"), "binary")

	embedder := &fakeEmbedder{}
	sink := &memorySink{}
	ing := NewIngester(embedder, sink, logger.NewNopLogger())

	report, err := ing.IngestDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Documents)
	assert.Equal(t, 3, report.Pages)
	assert.Equal(t, 5, report.Chunks)
	assert.Len(t, report.Skipped, 1)

	leave := sink.docs["Leave/annual.txt"]
	require.Len(t, leave, 2)
	assert.Equal(t, 1, leave[0].PageNumber)
	assert.Equal(t, 2, leave[1].PageNumber)
	assert.Equal(t, "Carry over up to 5 days.", leave[1].Content)
	assert.NotEmpty(t, leave[1].Embedding)

	vpn := sink.docs["IT/vpn.md"]
	require.Len(t, vpn, 3)
	for n, c := range vpn {
		assert.Equal(t, n, c.ChunkIndex)
		assert.Equal(t, float32(len(c.Content)), c.Embedding[0])
	}

	for _, task := range embedder.tasks {
		assert.Equal(t, embedding.TaskRetrievalDocument, task)
	}
}

func TestIngestDir_Chunking(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "HR", "probation.txt"), strings.Repeat("p", 100))

	sink := &memorySink{}
	ing := NewIngester(&fakeEmbedder{}, sink, logger.NewNopLogger(), WithChunking(40, 10), WithConcurrency(1))

	report, err := ing.IngestDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Chunks)
	assert.Len(t, sink.docs["HR/probation.txt"][0].Content, 40)
}

func TestIngestDir_EmbeddingFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "HR", "probation.txt"), "Probation lasts three months.")

	sink := &memorySink{}
	ing := NewIngester(&fakeEmbedder{err: errors.New("model not loaded")}, sink, logger.NewNopLogger())

	_, err := ing.IngestDir(context.Background(), root)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
	assert.Empty(t, sink.docs)
}

func TestIngestDir_MissingRoot(t *testing.T) {
	ing := NewIngester(&fakeEmbedder{}, &memorySink{}, logger.NewNopLogger())

	_, err := ing.IngestDir(context.Background(), filepath.Join(t.TempDir(), "nope"))

	assert.Error(t, err)
}
