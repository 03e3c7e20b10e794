package retriever

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"ai-policydesk-be/pkg/embedding"
	"ai-policydesk-be/pkg/rag/ingest"
	"ai-policydesk-be/pkg/store"
)

var ErrNotReady = errors.New("retriever: index not ready")

type indexedChunk struct {
	chunk ingest.Chunk
	norm  float64
}

// MemoryIndex is an in-process vector index. It doubles as an ingest.Sink
// so the startup ingestion can fill it directly.
type MemoryIndex struct {
	embedder embedding.EmbeddingProvider

	mu     sync.RWMutex
	chunks []indexedChunk
	ready  atomic.Bool
}

func NewMemoryIndex(embedder embedding.EmbeddingProvider) *MemoryIndex {
	return &MemoryIndex{embedder: embedder}
}

// Replace drops the document's previous chunks and adds the new ones.
func (m *MemoryIndex) Replace(_ context.Context, category, source string, chunks []ingest.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %d of %s has no embedding", c.ChunkIndex, source)
		}
	}

	kept := make([]indexedChunk, 0, len(m.chunks)+len(chunks))
	for _, c := range m.chunks {
		if strings.EqualFold(c.chunk.Category, category) && c.chunk.SourceDocument == source {
			continue
		}
		kept = append(kept, c)
	}
	for _, c := range chunks {
		kept = append(kept, indexedChunk{chunk: c, norm: magnitude(c.Embedding)})
	}
	m.chunks = kept
	return nil
}

// MarkReady flips readiness once the initial load is done.
func (m *MemoryIndex) MarkReady() {
	m.ready.Store(true)
}

func (m *MemoryIndex) Ready() bool {
	return m.ready.Load()
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// Retrieve ranks chunks of category by cosine similarity to query.
// An empty category searches the whole index.
func (m *MemoryIndex) Retrieve(ctx context.Context, query, category string, numResults int) ([]store.Passage, error) {
	if !m.Ready() {
		return nil, ErrNotReady
	}
	if numResults <= 0 {
		return []store.Passage{}, nil
	}

	res, err := m.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	q := res.Embedding.Values
	qNorm := magnitude(q)

	type scored struct {
		chunk ingest.Chunk
		score float64
	}

	m.mu.RLock()
	candidates := make([]scored, 0, len(m.chunks))
	for _, c := range m.chunks {
		if category != "" && !strings.EqualFold(c.chunk.Category, category) {
			continue
		}
		candidates = append(candidates, scored{chunk: c.chunk, score: cosine(q, qNorm, c.chunk.Embedding, c.norm)})
	}
	m.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > numResults {
		candidates = candidates[:numResults]
	}

	passages := make([]store.Passage, len(candidates))
	for i, c := range candidates {
		passages[i] = store.Passage{
			Content:        c.chunk.Content,
			SourceDocument: c.chunk.SourceDocument,
			PageNumber:     c.chunk.PageNumber,
			Rank:           i + 1,
			Score:          float32(c.score),
		}
	}
	return passages, nil
}

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 for mismatched dimensions or zero vectors.
func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if len(a) != len(b) || aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}
