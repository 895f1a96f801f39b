package logstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/lognlook/lognlook/internal/db/memory"
	"github.com/lognlook/lognlook/internal/domain"
)

const testDim = 3

// fakeEmbedder returns fixed vectors per text.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return domain.EmbeddingResult{Embedding: v}, nil
	}
	return domain.EmbeddingResult{Embedding: []float32{0, 0, 1}}, nil
}

func newTestRepo(t *testing.T) (*Repo, *memory.Store, *fakeEmbedder) {
	t.Helper()
	st := memory.NewStore()
	t.Cleanup(st.Close)
	emb := &fakeEmbedder{vectors: map[string][]float32{}}
	repo := New(st, emb, Config{KeyPrefix: "test:", VectorDim: testDim})

	seq := 0
	repo.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return repo, st, emb
}
