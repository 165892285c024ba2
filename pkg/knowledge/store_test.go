package knowledge

import (
	"errors"
	"testing"
	"testing/fstest"
)

const mathCorpus = `[
	{
		"id": "math_pythagorean_001",
		"topic": "geometry",
		"theorem": "勾股定理",
		"difficulty": "basic",
		"description": "直角三角形两直角边的平方和等于斜边的平方",
		"formula": {"plain": "a^2 + b^2 = c^2"},
		"keywords": ["勾股定理", "直角三角形"],
		"socratic_questions": ["直角三角形的哪条边最长?"]
	},
	{
		"id": "math_quadratic_001",
		"topic": "algebra",
		"theorem": "一元二次方程求根公式",
		"difficulty": "intermediate",
		"keywords": ["求根公式", "判别式"]
	}
]`

const physicsCorpus = `{
	"category": "physics",
	"entries": [
		{
			"id": "phys_newton2_001",
			"topic": "mechanics",
			"theorem": "Newton's second law",
			"difficulty": "basic",
			"keywords": ["force", "acceleration"]
		}
	]
}`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"corpus/math.json":    {Data: []byte(mathCorpus)},
		"corpus/physics.json": {Data: []byte(physicsCorpus)},
	}
}

func TestLoadBuildsIndexes(t *testing.T) {
	store, err := Load(testFS(), "corpus", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if store.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", store.Len())
	}

	entry := store.Get("math_pythagorean_001")
	if entry == nil {
		t.Fatal("Get(math_pythagorean_001) = nil")
	}
	if entry.Theorem != "勾股定理" {
		t.Errorf("Theorem = %q, want 勾股定理", entry.Theorem)
	}
	if entry.Category != "math" {
		t.Errorf("Category = %q, want math (from file stem)", entry.Category)
	}

	if got := store.Get("phys_newton2_001"); got == nil || got.Category != "physics" {
		t.Errorf("object-form file should load with its declared category, got %+v", got)
	}

	categories := store.Categories()
	if len(categories) != 2 || categories[0] != "math" || categories[1] != "physics" {
		t.Errorf("Categories() = %v, want [math physics]", categories)
	}

	if got := store.ListByCategory("math"); len(got) != 2 {
		t.Errorf("ListByCategory(math) returned %d entries, want 2", len(got))
	}

	topics := store.TopicsForCategory("math")
	if len(topics) != 2 || topics[0] != "geometry" || topics[1] != "algebra" {
		t.Errorf("TopicsForCategory(math) = %v, want [geometry algebra]", topics)
	}

	if ids := store.EntriesForKeyword("直角三角形"); len(ids) != 1 || ids[0] != "math_pythagorean_001" {
		t.Errorf("EntriesForKeyword(直角三角形) = %v", ids)
	}
}

func TestLoadSkipsMalformedEntries(t *testing.T) {
	fsys := fstest.MapFS{
		"corpus/math.json": {Data: []byte(`[
			{"id": "", "theorem": "missing id"},
			{"id": "no_theorem_001"},
			{"id": "ok_001", "theorem": "valid"},
			{"id": "ok_001", "theorem": "duplicate"}
		]`)},
	}

	var warned []string
	store, err := Load(fsys, "corpus", func(file string, index int, reason string) {
		warned = append(warned, reason)
	})
	if err != nil {
		t.Fatalf("Load() error = %v, malformed entries must not abort the load", err)
	}

	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
	if len(warned) != 3 {
		t.Errorf("warn callback fired %d times, want 3: %v", len(warned), warned)
	}
}

func TestLoadFailsFast(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{
			name: "invalid json",
			fsys: fstest.MapFS{"corpus/math.json": {Data: []byte(`{broken`)}},
		},
		{
			name: "object without entries",
			fsys: fstest.MapFS{"corpus/math.json": {Data: []byte(`{"category": "math"}`)}},
		},
		{
			name: "no category files",
			fsys: fstest.MapFS{"corpus/readme.txt": {Data: []byte("not a corpus")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.fsys, "corpus", nil)
			if !errors.Is(err, ErrCorpusLoad) {
				t.Errorf("Load() error = %v, want ErrCorpusLoad", err)
			}
		})
	}
}
