package embedding

import (
	"context"
	"errors"
	"testing"

	"ai-tutoring-be/pkg/knowledge"
)

// fakeProvider returns canned vectors and counts calls.
type fakeProvider struct {
	calls int
	vec   func(text string) ([]float32, error)
}

func (f *fakeProvider) Embed(ctx context.Context, text string, opts ...Option) ([]float32, error) {
	f.calls++
	return f.vec(text)
}

func constantVec(vec []float32) func(string) ([]float32, error) {
	return func(string) ([]float32, error) { return vec, nil }
}

func TestEntryVectorMemoized(t *testing.T) {
	provider := &fakeProvider{vec: constantVec([]float32{1, 0})}
	cache := NewCache(provider)
	entry := &knowledge.Entry{ID: "e1", Theorem: "勾股定理"}

	for i := 0; i < 3; i++ {
		vec, err := cache.EntryVector(context.Background(), entry)
		if err != nil {
			t.Fatalf("EntryVector() error = %v", err)
		}
		if len(vec) != 2 {
			t.Fatalf("vector length = %d, want 2", len(vec))
		}
	}

	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1 (memoized per entry id)", provider.calls)
	}
}

func TestQueryVectorCached(t *testing.T) {
	provider := &fakeProvider{vec: constantVec([]float32{0, 1})}
	cache := NewCache(provider)

	if _, err := cache.QueryVector(context.Background(), "什么是勾股定理"); err != nil {
		t.Fatalf("QueryVector() error = %v", err)
	}
	if _, err := cache.QueryVector(context.Background(), "什么是勾股定理"); err != nil {
		t.Fatalf("QueryVector() error = %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
}

func TestUnavailableSurfaces(t *testing.T) {
	provider := &fakeProvider{vec: func(string) ([]float32, error) {
		return nil, ErrUnavailable
	}}
	cache := NewCache(provider)

	_, err := cache.QueryVector(context.Background(), "q")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("QueryVector() error = %v, want ErrUnavailable", err)
	}
}

func TestDimensionMismatchIsFatal(t *testing.T) {
	vecs := [][]float32{{1, 0}, {1, 0, 0}}
	i := 0
	provider := &fakeProvider{vec: func(string) ([]float32, error) {
		v := vecs[i]
		i++
		return v, nil
	}}
	cache := NewCache(provider)

	if _, err := cache.EntryVector(context.Background(), &knowledge.Entry{ID: "a", Theorem: "t"}); err != nil {
		t.Fatalf("first EntryVector() error = %v", err)
	}
	_, err := cache.EntryVector(context.Background(), &knowledge.Entry{ID: "b", Theorem: "t"})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("second EntryVector() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestNormalizeVector(t *testing.T) {
	vec := normalizeVector([]float32{3, 4})
	if vec[0] != 0.6 || vec[1] != 0.8 {
		t.Errorf("normalizeVector([3 4]) = %v, want [0.6 0.8]", vec)
	}

	zero := normalizeVector([]float32{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("normalizeVector zero vector = %v, want unchanged", zero)
	}
}
