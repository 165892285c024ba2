package knowledge

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// ErrCorpusLoad marks a fatal, process-level corpus failure. Individual
// malformed entries are skipped and reported through the warn callback instead.
var ErrCorpusLoad = fmt.Errorf("knowledge: corpus load failed")

// WarnFunc receives non-fatal per-entry load problems.
type WarnFunc func(file string, index int, reason string)

// Store holds the loaded corpus and its lookup structures. Read-only after
// Load, safe for concurrent use.
type Store struct {
	entries  []*Entry            // corpus insertion order, drives tie-breaks
	byID     map[string]*Entry
	byCat    map[string][]string // category -> ordered entry ids
	postings map[string][]string // lowercased keyword -> entry ids
}

// categoryFile is the on-disk shape of one category collection. Corpus files
// appear both as a bare entry array and as an object with an "entries" field;
// both are accepted, validated once here.
type categoryFile struct {
	Category string  `json:"category"`
	Entries  []Entry `json:"entries"`
}

// Load reads every *.json collection under dir in the given filesystem.
// The file stem is the category unless the file declares one.
func Load(fsys fs.FS, dir string, warn WarnFunc) (*Store, error) {
	if warn == nil {
		warn = func(string, int, string) {}
	}

	files, err := fs.Glob(fsys, path.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("%w: glob %s: %v", ErrCorpusLoad, dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no category files under %s", ErrCorpusLoad, dir)
	}
	sort.Strings(files)

	s := &Store{
		byID:     make(map[string]*Entry),
		byCat:    make(map[string][]string),
		postings: make(map[string][]string),
	}

	for _, file := range files {
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrCorpusLoad, file, err)
		}

		category, entries, err := decodeCategoryFile(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrCorpusLoad, file, err)
		}
		if category == "" {
			category = strings.TrimSuffix(path.Base(file), ".json")
		}

		for i := range entries {
			e := entries[i]
			if e.ID == "" {
				warn(file, i, "missing id")
				continue
			}
			if e.Theorem == "" {
				warn(file, i, "missing theorem")
				continue
			}
			if _, dup := s.byID[e.ID]; dup {
				warn(file, i, "duplicate id "+e.ID)
				continue
			}
			if e.Category == "" {
				e.Category = category
			}
			s.add(&e)
		}
	}

	return s, nil
}

// decodeCategoryFile accepts either a bare entry array or a wrapping object.
func decodeCategoryFile(raw []byte) (string, []Entry, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var entries []Entry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return "", nil, err
		}
		return "", entries, nil
	}

	var cf categoryFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return "", nil, err
	}
	if cf.Entries == nil {
		return "", nil, fmt.Errorf("object form requires an \"entries\" array")
	}
	return cf.Category, cf.Entries, nil
}

func (s *Store) add(e *Entry) {
	s.entries = append(s.entries, e)
	s.byID[e.ID] = e
	s.byCat[e.Category] = append(s.byCat[e.Category], e.ID)
	for _, kw := range e.Keywords {
		key := strings.ToLower(strings.TrimSpace(kw))
		if key == "" {
			continue
		}
		s.postings[key] = append(s.postings[key], e.ID)
	}
}

// Get returns the entry with the given id, or nil.
func (s *Store) Get(id string) *Entry {
	return s.byID[id]
}

// All returns every entry in corpus insertion order. Callers must not mutate.
func (s *Store) All() []*Entry {
	return s.entries
}

// ListByCategory returns the entries of one category in insertion order.
func (s *Store) ListByCategory(category string) []*Entry {
	ids := s.byCat[category]
	out := make([]*Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	return out
}

// Categories returns the known categories, sorted.
func (s *Store) Categories() []string {
	out := make([]string, 0, len(s.byCat))
	for c := range s.byCat {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// TopicsForCategory returns the distinct topics of a category in first-seen order.
func (s *Store) TopicsForCategory(category string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range s.byCat[category] {
		topic := s.byID[id].Topic
		if topic == "" || seen[topic] {
			continue
		}
		seen[topic] = true
		out = append(out, topic)
	}
	return out
}

// EntriesForKeyword returns ids whose keyword set contains the (lowercased) token.
func (s *Store) EntriesForKeyword(token string) []string {
	return s.postings[strings.ToLower(token)]
}

// Len reports the corpus size.
func (s *Store) Len() int {
	return len(s.entries)
}
