package retriever

import (
	"context"
	"errors"
	"testing"

	"ai-policydesk-be/internal/entity"
	"ai-policydesk-be/internal/pkg/logger"
	"ai-policydesk-be/internal/repository/contract"
	"ai-policydesk-be/internal/repository/specification"
	"ai-policydesk-be/internal/repository/unitofwork"
	"ai-policydesk-be/pkg/rag/ingest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePassageRepo struct {
	count     int64
	countErr  error
	results   []*contract.ScoredPolicyPassage
	category  string
	limit     int
	deleted   []string
	created   []*entity.PolicyPassage
	createErr error
}

func (f *fakePassageRepo) CreateBulk(_ context.Context, passages []*entity.PolicyPassage) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, passages...)
	return nil
}

func (f *fakePassageRepo) DeleteBySourceDocument(_ context.Context, category, source string) error {
	f.deleted = append(f.deleted, category+"/"+source)
	return nil
}

func (f *fakePassageRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	return f.count, f.countErr
}

func (f *fakePassageRepo) SearchSimilar(_ context.Context, _ []float32, category string, limit int) ([]*contract.ScoredPolicyPassage, error) {
	f.category = category
	f.limit = limit
	return f.results, nil
}

type fakeUoW struct {
	repo      *fakePassageRepo
	began     bool
	committed bool
}

func (u *fakeUoW) Begin(context.Context) error { u.began = true; return nil }
func (u *fakeUoW) Commit() error               { u.committed = true; return nil }
func (u *fakeUoW) Rollback() error             { return nil }

func (u *fakeUoW) ChatSessionRepository() contract.ChatSessionRepository { return nil }
func (u *fakeUoW) ChatMessageRepository() contract.ChatMessageRepository { return nil }
func (u *fakeUoW) PolicyPassageRepository() contract.PolicyPassageRepository {
	return u.repo
}

type fakeFactory struct {
	uow *fakeUoW
}

func (f *fakeFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return f.uow }

func newPgvector(repo *fakePassageRepo) (*PgvectorRetriever, *fakeUoW) {
	uow := &fakeUoW{repo: repo}
	embedder := &vectorEmbedder{vectors: map[string][]float32{"q": {1, 0}}}
	return NewPgvectorRetriever(&fakeFactory{uow: uow}, embedder, logger.NewNopLogger()), uow
}

func TestPgvectorRetriever_Refresh(t *testing.T) {
	r, _ := newPgvector(&fakePassageRepo{count: 0})

	count, err := r.Refresh(context.Background())

	require.NoError(t, err)
	assert.Zero(t, count)
	assert.True(t, r.Ready())
}

func TestPgvectorRetriever_RefreshFailure(t *testing.T) {
	r, _ := newPgvector(&fakePassageRepo{countErr: errors.New("relation does not exist")})

	_, err := r.Refresh(context.Background())

	assert.Error(t, err)
	assert.False(t, r.Ready())

	_, err = r.Retrieve(context.Background(), "q", "HR", 4)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestPgvectorRetriever_Retrieve(t *testing.T) {
	repo := &fakePassageRepo{
		count: 2,
		results: []*contract.ScoredPolicyPassage{
			{Passage: &entity.PolicyPassage{Content: "VPN first", SourceDocument: "vpn.txt", PageNumber: 2}, Similarity: 0.91},
			{Passage: &entity.PolicyPassage{Content: "VPN second", SourceDocument: "vpn.txt", PageNumber: 5}, Similarity: 0.72},
		},
	}
	r, _ := newPgvector(repo)
	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	passages, err := r.Retrieve(context.Background(), "q", "IT", 4)
	require.NoError(t, err)

	assert.Equal(t, "IT", repo.category)
	assert.Equal(t, 4, repo.limit)
	require.Len(t, passages, 2)
	assert.Equal(t, 1, passages[0].Rank)
	assert.Equal(t, 2, passages[1].Rank)
	assert.Equal(t, 5, passages[1].PageNumber)
	assert.InDelta(t, 0.91, passages[0].Score, 1e-6)
}

func TestPgvectorRetriever_Replace(t *testing.T) {
	repo := &fakePassageRepo{}
	r, uow := newPgvector(repo)

	err := r.Replace(context.Background(), "Leave", "annual.txt", []ingest.Chunk{
		{Category: "Leave", SourceDocument: "annual.txt", PageNumber: 1, ChunkIndex: 0, Content: "a", Embedding: []float32{1}},
		{Category: "Leave", SourceDocument: "annual.txt", PageNumber: 1, ChunkIndex: 1, Content: "b", Embedding: []float32{1}},
	})
	require.NoError(t, err)

	assert.True(t, uow.began)
	assert.True(t, uow.committed)
	assert.Equal(t, []string{"Leave/annual.txt"}, repo.deleted)
	require.Len(t, repo.created, 2)
	assert.Equal(t, 1, repo.created[1].ChunkIndex)
}

func TestPgvectorRetriever_ReplaceFailureDoesNotCommit(t *testing.T) {
	repo := &fakePassageRepo{createErr: errors.New("dimension mismatch")}
	r, uow := newPgvector(repo)

	err := r.Replace(context.Background(), "HR", "a.txt", []ingest.Chunk{{Content: "a", Embedding: []float32{1}}})

	assert.Error(t, err)
	assert.False(t, uow.committed)
}
