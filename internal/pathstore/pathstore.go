// Package pathstore persists the user's curated learning path: an ordered
// list of unique course ids kept in local storage under a per-user key.
package pathstore

import (
	"encoding/json"
	"log/slog"
	"math"
	"sync"
)

const (
	keyPrefix = "learningPath:"
	guestID   = "guest"
)

// Storage is the key/value surface the path is persisted in.
type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
}

// Key returns the storage key for userID, or the guest key when userID is
// empty.
func Key(userID string) string {
	if userID == "" {
		return keyPrefix + guestID
	}
	return keyPrefix + userID
}

// LoadPath reads the saved path for userID. Anything malformed degrades to
// an empty list: unparseable JSON, a non-array value, or a storage error.
// Entries that are not finite integers are dropped, as are duplicates.
func LoadPath(s Storage, userID string) []int64 {
	raw, ok, err := s.GetItem(Key(userID))
	if err != nil {
		slog.Warn("reading saved path", "key", Key(userID), "error", err)
		return []int64{}
	}
	if !ok {
		return []int64{}
	}

	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		slog.Debug("saved path is not a JSON array", "key", Key(userID), "error", err)
		return []int64{}
	}

	ids := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		f, ok := it.(float64)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) ||
			f >= math.MaxInt64 || f < math.MinInt64 {
			continue
		}
		id := int64(f)
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// SavePath writes ids for userID, dropping duplicates but keeping the order
// of first occurrence.
func SavePath(s Storage, userID string, ids []int64) error {
	data, err := json.Marshal(dedup(ids))
	if err != nil {
		return err
	}
	return s.SetItem(Key(userID), string(data))
}

func dedup(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Path is the in-memory saved path for the active user. Every mutation is
// written through to storage before it returns.
type Path struct {
	mu     sync.Mutex
	store  Storage
	userID string
	ids    []int64
}

// New loads the path for userID.
func New(s Storage, userID string) *Path {
	return &Path{store: s, userID: userID, ids: LoadPath(s, userID)}
}

// SetUser re-keys the path to userID, reloading from storage when the user
// changes. Switching to the current user is a no-op.
func (p *Path) SetUser(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if userID == p.userID {
		return
	}
	p.userID = userID
	p.ids = LoadPath(p.store, userID)
}

func (p *Path) UserID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userID
}

// IDs returns a copy of the path in insertion order.
func (p *Path) IDs() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64{}, p.ids...)
}

func (p *Path) Contains(id int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.indexOf(id) >= 0
}

// Add appends id. It reports whether the path changed; adding an id
// already present neither changes nor writes anything.
func (p *Path) Add(id int64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.indexOf(id) >= 0 {
		return false, nil
	}
	p.ids = append(p.ids, id)
	return true, SavePath(p.store, p.userID, p.ids)
}

// Remove drops id. Removing an absent id neither changes nor writes
// anything.
func (p *Path) Remove(id int64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.indexOf(id)
	if i < 0 {
		return false, nil
	}
	p.ids = append(p.ids[:i:i], p.ids[i+1:]...)
	return true, SavePath(p.store, p.userID, p.ids)
}

func (p *Path) indexOf(id int64) int {
	for i, v := range p.ids {
		if v == id {
			return i
		}
	}
	return -1
}
