package memory

import (
	"sync"
	"time"

	"ai-tutoring-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// MaxMessages bounds every stored session history: the most recent 20
// messages (10 user/assistant pairs), oldest evicted first.
const MaxMessages = 20

// SessionRepository stores bounded per-session conversation history for the
// lifetime of the process. Session ids are opaque caller-supplied strings; an
// unseen id is simply an empty history. Appends are serialized per session so
// the FIFO cap holds atomically; different sessions proceed in parallel.
type SessionRepository struct {
	cache *cache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSessionRepository() *SessionRepository {
	// Sessions never expire on their own, only an explicit Clear removes one.
	c := cache.New(cache.NoExpiration, 10*time.Minute)
	return &SessionRepository{
		cache: c,
		locks: make(map[string]*sync.Mutex),
	}
}

func (r *SessionRepository) sessionLock(sessionID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.locks[sessionID]; ok {
		return l
	}
	l := &sync.Mutex{}
	r.locks[sessionID] = l
	return l
}

// Append adds messages to a session's history, evicting the oldest entries
// once the cap is exceeded. The cap is enforced under the same lock as the
// append, so no reader ever observes more than MaxMessages.
func (r *SessionRepository) Append(sessionID string, messages ...entity.Message) {
	lock := r.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	history := r.read(sessionID)
	history = append(history, messages...)
	if len(history) > MaxMessages {
		history = history[len(history)-MaxMessages:]
	}
	r.cache.Set(sessionID, history, cache.NoExpiration)
}

// Get returns a copy of the session's history in insertion order.
func (r *SessionRepository) Get(sessionID string) []entity.Message {
	lock := r.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	history := r.read(sessionID)
	out := make([]entity.Message, len(history))
	copy(out, history)
	return out
}

// Clear drops a session's history.
func (r *SessionRepository) Clear(sessionID string) {
	lock := r.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	r.cache.Delete(sessionID)
}

// ListSessionIDs returns the ids of all sessions with stored history.
func (r *SessionRepository) ListSessionIDs() []string {
	items := r.cache.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	return ids
}

func (r *SessionRepository) read(sessionID string) []entity.Message {
	if x, found := r.cache.Get(sessionID); found {
		return x.([]entity.Message)
	}
	return nil
}
