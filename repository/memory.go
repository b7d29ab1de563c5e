package repository

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/vortechron/go-dynamic-image/medialibrary"
	"github.com/vortechron/go-dynamic-image/models"
)

type metaKey struct {
	mediaID uint64
	key     string
}

// MemoryMediaRepository keeps media and meta in process memory.
type MemoryMediaRepository struct {
	mu     sync.RWMutex
	nextID uint64
	media  map[uint64]*models.Media
	meta   map[metaKey]json.RawMessage
}

func NewMemoryMediaRepository() *MemoryMediaRepository {
	return &MemoryMediaRepository{
		media: make(map[uint64]*models.Media),
		meta:  make(map[metaKey]json.RawMessage),
	}
}

func (r *MemoryMediaRepository) Save(ctx context.Context, media *models.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if media.ID == 0 {
		r.nextID++
		media.ID = r.nextID
	}

	stored := *media
	r.media[media.ID] = &stored
	return nil
}

func (r *MemoryMediaRepository) FindByID(ctx context.Context, id uint64) (*models.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	media, ok := r.media[id]
	if !ok {
		return nil, nil
	}

	found := *media
	return &found, nil
}

func (r *MemoryMediaRepository) Delete(ctx context.Context, media *models.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.media, media.ID)
	for k := range r.meta {
		if k.mediaID == media.ID {
			delete(r.meta, k)
		}
	}
	return nil
}

func (r *MemoryMediaRepository) FindByCollection(ctx context.Context, collection string) ([]*models.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Media
	for _, id := range r.sortedIDs() {
		if m := r.media[id]; m.CollectionName == collection {
			found := *m
			result = append(result, &found)
		}
	}
	return result, nil
}

func (r *MemoryMediaRepository) GetMeta(ctx context.Context, mediaID uint64, key string) (json.RawMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.meta[metaKey{mediaID, key}]
	if !ok {
		return nil, nil
	}
	return append(json.RawMessage(nil), value...), nil
}

func (r *MemoryMediaRepository) SaveMeta(ctx context.Context, mediaID uint64, key string, value json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.meta[metaKey{mediaID, key}] = append(json.RawMessage(nil), value...)
	return nil
}

func (r *MemoryMediaRepository) DeleteMeta(ctx context.Context, mediaID uint64, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.meta, metaKey{mediaID, key})
	return nil
}

// FindMediaIDByMeta returns the lowest media ID whose key value contains
// substr, or 0.
func (r *MemoryMediaRepository) FindMediaIDByMeta(ctx context.Context, key string, substr string) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []uint64
	for k, v := range r.meta {
		if k.key == key && strings.Contains(string(v), substr) {
			ids = append(ids, k.mediaID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids[0], nil
}

func (r *MemoryMediaRepository) sortedIDs() []uint64 {
	ids := make([]uint64, 0, len(r.media))
	for id := range r.media {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

var _ medialibrary.MediaRepository = (*MemoryMediaRepository)(nil)
