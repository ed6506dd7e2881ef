package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"moodwatch/internal/models"
)

// MemoryEntryRepository keeps entries in process memory. Handy for tests and demos.
type MemoryEntryRepository struct {
	mu      sync.RWMutex
	entries []models.Entry
	nextID  int64
	now     func() time.Time
}

// NewMemoryEntryRepository seeds the store with the given entries. Seed IDs are kept;
// new entries continue after the highest one.
func NewMemoryEntryRepository(seed ...models.Entry) *MemoryEntryRepository {
	r := &MemoryEntryRepository{now: time.Now}
	for _, e := range seed {
		r.entries = append(r.entries, e)
		if e.ID > r.nextID {
			r.nextID = e.ID
		}
	}
	return r
}

// ListEntries returns a copy of the matching entries, oldest first.
func (r *MemoryEntryRepository) ListEntries(_ context.Context, filter models.EntryFilter) ([]models.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if filter.Since != nil && e.Created.Before(*filter.Since) {
			continue
		}
		if filter.Handle != "" && e.UserHandle != filter.Handle {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.Before(out[j].Created)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// CreateEntry appends an entry with the next free ID.
func (r *MemoryEntryRepository) CreateEntry(_ context.Context, entry *models.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	entry.ID = r.nextID
	if entry.Created.IsZero() {
		entry.Created = r.now()
	}
	r.entries = append(r.entries, *entry)
	return nil
}
