package retrieval

import (
	"context"
	"errors"
	"io"
	"log"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"ai-tutoring-be/pkg/embedding"
	"ai-tutoring-be/pkg/knowledge"
)

const testCorpus = `[
	{
		"id": "math_pythagorean_001",
		"topic": "geometry",
		"theorem": "勾股定理",
		"difficulty": "basic",
		"description": "直角三角形两直角边的平方和等于斜边的平方",
		"keywords": ["勾股定理", "直角三角形"]
	},
	{
		"id": "math_quadratic_001",
		"topic": "algebra",
		"theorem": "一元二次方程求根公式",
		"difficulty": "intermediate",
		"keywords": ["求根公式", "判别式"]
	},
	{
		"id": "phys_newton2_001",
		"category": "physics",
		"topic": "mechanics",
		"theorem": "Newton's second law",
		"difficulty": "basic",
		"keywords": ["force", "acceleration"]
	}
]`

func testStore(t *testing.T) *knowledge.Store {
	t.Helper()
	fsys := fstest.MapFS{"corpus/math.json": {Data: []byte(testCorpus)}}
	store, err := knowledge.Load(fsys, "corpus", nil)
	if err != nil {
		t.Fatalf("corpus load: %v", err)
	}
	return store
}

// vectorProvider maps texts to fixed unit vectors by substring.
type vectorProvider struct {
	table map[string][]float32
	err   error
}

func (p *vectorProvider) Embed(ctx context.Context, text string, opts ...embedding.Option) ([]float32, error) {
	if p.err != nil {
		return nil, p.err
	}
	for key, vec := range p.table {
		if strings.Contains(text, key) {
			return vec, nil
		}
	}
	return []float32{0, 0, 1}, nil
}

func newIndex(t *testing.T, provider embedding.Provider) *Index {
	t.Helper()
	return NewIndex(testStore(t), embedding.NewCache(provider), log.New(io.Discard, "", 0))
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	provider := &vectorProvider{table: map[string][]float32{
		"什么是勾股定理": {1, 0, 0}, // query
		"勾股定理":    {1, 0, 0},
		"求根公式":    {0.5, 0.5, 0},
		"Newton":  {0, 1, 0},
	}}
	idx := newIndex(t, provider)

	results, err := idx.Retrieve(context.Background(), "什么是勾股定理", 2, "")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Entry.ID != "math_pythagorean_001" {
		t.Errorf("top result = %s, want math_pythagorean_001", results[0].Entry.ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("scores not non-increasing at rank %d", i)
		}
		if results[i].Rank != i {
			t.Errorf("rank[%d] = %d", i, results[i].Rank)
		}
	}

	seen := map[string]bool{}
	for _, r := range results {
		if seen[r.Entry.ID] {
			t.Errorf("duplicate entry id %s", r.Entry.ID)
		}
		seen[r.Entry.ID] = true
	}
}

func TestRetrieveCategoryFilter(t *testing.T) {
	provider := &vectorProvider{table: map[string][]float32{}}
	idx := newIndex(t, provider)

	results, err := idx.Retrieve(context.Background(), "anything", 10, "physics")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) != 1 || results[0].Entry.ID != "phys_newton2_001" {
		t.Errorf("category filter returned %+v, want only phys_newton2_001", results)
	}
}

func TestRetrieveLexicalFallback(t *testing.T) {
	provider := &vectorProvider{err: embedding.ErrUnavailable}
	idx := newIndex(t, provider)

	results, err := idx.Retrieve(context.Background(), "直角三角形边长公式", 3, "")
	if err != nil {
		t.Fatalf("Retrieve() must not fail when the provider is down, got %v", err)
	}
	if len(results) == 0 {
		t.Fatal("fallback returned no results")
	}
	if results[0].Entry.ID != "math_pythagorean_001" {
		t.Errorf("top fallback result = %s, want math_pythagorean_001 (keyword 直角三角形 overlaps)", results[0].Entry.ID)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("keyword-overlapping entry must outrank unrelated ones: %v vs %v", results[0].Score, results[1].Score)
	}
}

func TestRetrieveSingleMatchScenario(t *testing.T) {
	provider := &vectorProvider{err: embedding.ErrUnavailable}
	idx := newIndex(t, provider)

	results, err := idx.Retrieve(context.Background(), "什么是勾股定理", 1, "")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want exactly 1", len(results))
	}
	if results[0].Entry.ID != "math_pythagorean_001" || results[0].Rank != 0 {
		t.Errorf("got %s rank %d, want math_pythagorean_001 rank 0", results[0].Entry.ID, results[0].Rank)
	}
}

func TestRetrieveIdempotent(t *testing.T) {
	provider := &vectorProvider{table: map[string][]float32{
		"勾股定理": {1, 0, 0},
	}}
	idx := newIndex(t, provider)

	first, err := idx.Retrieve(context.Background(), "勾股定理", 3, "")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	second, err := idx.Retrieve(context.Background(), "勾股定理", 3, "")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated retrieval differs:\n%+v\n%+v", first, second)
	}
}

func TestRetrieveTieBreakInsertionOrder(t *testing.T) {
	// All scores equal (no keyword overlaps): order must be corpus order.
	provider := &vectorProvider{err: embedding.ErrUnavailable}
	idx := newIndex(t, provider)

	results, err := idx.Retrieve(context.Background(), "unrelated", 0, "")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	want := []string{"math_pythagorean_001", "math_quadratic_001", "phys_newton2_001"}
	if len(results) != len(want) {
		t.Fatalf("default k should return %d, got %d", len(want), len(results))
	}
	for i, id := range want {
		if results[i].Entry.ID != id {
			t.Errorf("results[%d] = %s, want %s (insertion order tie-break)", i, results[i].Entry.ID, id)
		}
	}
}

func TestRetrieveNonUnavailableErrorPropagates(t *testing.T) {
	provider := &vectorProvider{err: errors.New("bad config")}
	idx := newIndex(t, provider)

	_, err := idx.Retrieve(context.Background(), "勾股定理", 3, "")
	if err == nil {
		t.Fatal("non-unavailable embedding errors must propagate")
	}
}
