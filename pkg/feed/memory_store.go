package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/smilepool/smilepool-executor/pkg/models"
)

// MemoryStore keeps the feed in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	photos  map[string]models.ProfilePhoto
	entries []models.FeedEntry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{photos: make(map[string]models.ProfilePhoto)}
}

// SaveProfilePhoto replaces the photo of the address and keeps the best score seen
func (m *MemoryStore) SaveProfilePhoto(_ context.Context, photo models.ProfilePhoto) error {
	photo.Address = normalizeAddress(photo.Address)
	if photo.Address == "" {
		return ErrInvalidAddress
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.photos[photo.Address]; ok && prev.BestScore > photo.BestScore {
		photo.BestScore = prev.BestScore
	}
	m.photos[photo.Address] = photo
	return nil
}

// ProfilePhoto returns nil when the address has no photo
func (m *MemoryStore) ProfilePhoto(_ context.Context, address string) (*models.ProfilePhoto, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	photo, ok := m.photos[normalizeAddress(address)]
	if !ok {
		return nil, nil
	}
	return &photo, nil
}

func (m *MemoryStore) ProfilePhotos(ctx context.Context, addresses []string) (map[string]models.ProfilePhoto, error) {
	out := make(map[string]models.ProfilePhoto)
	for _, batch := range chunks(addresses) {
		m.mu.RLock()
		for _, a := range batch {
			if photo, ok := m.photos[a]; ok {
				out[a] = photo
			}
		}
		m.mu.RUnlock()
	}
	return out, nil
}

func (m *MemoryStore) Append(_ context.Context, entry models.FeedEntry) error {
	entry.Address = normalizeAddress(entry.Address)
	if entry.Address == "" {
		return ErrInvalidAddress
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// List returns the matching entries, newest first
func (m *MemoryStore) List(_ context.Context, filter Filter) ([]models.FeedEntry, error) {
	address := normalizeAddress(filter.Address)

	m.mu.RLock()
	out := make([]models.FeedEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if address != "" && e.Address != address {
			continue
		}
		if e.Score < filter.MinScore {
			continue
		}
		out = append(out, e)
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit := filter.limit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Close() {}
