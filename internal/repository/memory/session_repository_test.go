package memory

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"ai-tutoring-be/internal/entity"
)

func userMsg(text string) entity.Message {
	return entity.NewTextMessage(entity.RoleUser, text)
}

func TestAppendAndGetOrder(t *testing.T) {
	repo := NewSessionRepository()

	repo.Append("s1", userMsg("one"))
	repo.Append("s1", userMsg("two"), userMsg("three"))

	history := repo.Get("s1")
	if len(history) != 3 {
		t.Fatalf("len = %d, want 3", len(history))
	}
	for i, want := range []string{"one", "two", "three"} {
		if history[i].Content != want {
			t.Errorf("history[%d] = %q, want %q", i, history[i].Content, want)
		}
	}
}

func TestGetUnseenSessionIsEmpty(t *testing.T) {
	repo := NewSessionRepository()
	if got := repo.Get("never-seen"); len(got) != 0 {
		t.Errorf("unseen session returned %d messages, want 0", len(got))
	}
}

func TestAppendEvictsOldest(t *testing.T) {
	repo := NewSessionRepository()

	for i := 0; i < MaxMessages+1; i++ {
		repo.Append("s1", userMsg(fmt.Sprintf("m%02d", i)))
	}

	history := repo.Get("s1")
	if len(history) != MaxMessages {
		t.Fatalf("len = %d, want cap %d", len(history), MaxMessages)
	}
	if history[0].Content != "m01" {
		t.Errorf("oldest surviving message = %q, want m01 (m00 evicted)", history[0].Content)
	}
	if history[len(history)-1].Content != fmt.Sprintf("m%02d", MaxMessages) {
		t.Errorf("newest message = %q", history[len(history)-1].Content)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	repo := NewSessionRepository()
	repo.Append("s1", userMsg("original"))

	history := repo.Get("s1")
	history[0].Content = "mutated"

	if got := repo.Get("s1"); got[0].Content != "original" {
		t.Errorf("stored history was mutated through the returned slice: %q", got[0].Content)
	}
}

func TestClear(t *testing.T) {
	repo := NewSessionRepository()
	repo.Append("s1", userMsg("one"))

	repo.Clear("s1")
	if got := repo.Get("s1"); len(got) != 0 {
		t.Errorf("Get after Clear returned %d messages, want 0", len(got))
	}

	// Clearing an unseen id is a no-op.
	repo.Clear("never-seen")
}

func TestListSessionIDs(t *testing.T) {
	repo := NewSessionRepository()
	repo.Append("a", userMsg("x"))
	repo.Append("b", userMsg("y"))

	ids := repo.ListSessionIDs()
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("ListSessionIDs() = %v, want [a b]", ids)
	}
}

func TestConcurrentAppendsHoldCap(t *testing.T) {
	repo := NewSessionRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			repo.Append("s1", userMsg(fmt.Sprintf("m%d", i)))
			repo.Append(fmt.Sprintf("other-%d", i), userMsg("x"))
		}(i)
	}
	wg.Wait()

	if got := len(repo.Get("s1")); got != MaxMessages {
		t.Errorf("len after 50 concurrent appends = %d, want %d", got, MaxMessages)
	}
	for i := 0; i < 50; i++ {
		if got := len(repo.Get(fmt.Sprintf("other-%d", i))); got != 1 {
			t.Errorf("other-%d has %d messages, want 1", i, got)
		}
	}
}
