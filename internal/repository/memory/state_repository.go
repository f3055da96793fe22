package memory

import (
	"time"

	"ai-therapy-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// StateRepository holds per-session conversation state in process memory.
// Entries expire on their own; losing one only resets the advisory counters.
type StateRepository struct {
	cache *cache.Cache
}

func NewStateRepository() *StateRepository {
	// Default expiration of 1 hour, purge sweep every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &StateRepository{
		cache: c,
	}
}

func (r *StateRepository) Save(state *store.SessionState) {
	r.cache.Set(state.ID, state, cache.DefaultExpiration)
}

func (r *StateRepository) Get(sessionToken string) (*store.SessionState, bool) {
	if x, found := r.cache.Get(sessionToken); found {
		return x.(*store.SessionState), true
	}
	return nil, false
}

func (r *StateRepository) Delete(sessionToken string) {
	r.cache.Delete(sessionToken)
}
