package autosave

import (
	"encoding/json"
	"time"

	"github.com/bluecrumb/recipecost/internal/cache"
	"github.com/bluecrumb/recipecost/internal/clock"
	recipedomain "github.com/bluecrumb/recipecost/internal/recipe/domain"
	"github.com/golang/snappy"
)

type draft struct {
	payload   []byte // snappy-compressed SaveRequest JSON
	dirty     bool
	updatedAt time.Time
}

// Store holds per-recipe working copies until the flush loop persists
// them. Everything lives in memory, a lost draft is at most one editor
// interval of work.
type Store struct {
	cache cache.Cache[string, draft]
	clock clock.Clock
	ttl   time.Duration
}

func NewStore(cfg Config, clk clock.Clock) *Store {
	cfg = cfg.withDefaults()
	return &Store{
		cache: cache.NewTTLCache[string, draft](),
		clock: clk,
		ttl:   cfg.DraftTTL,
	}
}

// Put replaces the working copy for a recipe and marks it dirty.
func (s *Store) Put(recipeID string, req recipedomain.SaveRequest) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return err
	}

	s.cache.Set(recipeID, draft{
		payload:   snappy.Encode(nil, raw),
		dirty:     true,
		updatedAt: s.clock.Now(),
	}, s.ttl)
	return nil
}

// Get returns the working copy for a recipe, if one is pending.
func (s *Store) Get(recipeID string) (*recipedomain.SaveRequest, bool) {
	d, ok := s.cache.Get(recipeID)
	if !ok {
		return nil, false
	}

	raw, err := snappy.Decode(nil, d.payload)
	if err != nil {
		// unreadable drafts are dropped rather than retried forever
		s.cache.Delete(recipeID)
		return nil, false
	}

	var req recipedomain.SaveRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.cache.Delete(recipeID)
		return nil, false
	}
	return &req, true
}

// Drop ends an editing session and discards pending work.
func (s *Store) Drop(recipeID string) {
	s.cache.Delete(recipeID)
}

// DirtyIDs lists recipes with unflushed work.
func (s *Store) DirtyIDs() []string {
	var ids []string
	for _, key := range s.cache.Keys() {
		if d, ok := s.cache.Get(key); ok && d.dirty {
			ids = append(ids, key)
		}
	}
	return ids
}

// MarkClean records a successful flush without touching newer edits: a
// draft rewritten after the flush started stays dirty.
func (s *Store) MarkClean(recipeID string, flushedAt time.Time) {
	d, ok := s.cache.Get(recipeID)
	if !ok {
		return
	}
	if d.updatedAt.After(flushedAt) {
		return
	}
	d.dirty = false
	s.cache.Set(recipeID, d, s.ttl)
}
