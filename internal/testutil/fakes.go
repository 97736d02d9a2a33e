// Package testutil holds in-memory doubles for the pipeline's external
// collaborators: object storage, the item collection, and the finalize bus.
package testutil

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"media-pipeline/internal/events"
	models "media-pipeline/internal/media"
	"media-pipeline/internal/repository"
	"media-pipeline/internal/storage"
)

// FakeObject is one stored blob plus its object metadata.
type FakeObject struct {
	Data        []byte
	ContentType string
	Metadata    map[string]string
	Public      bool
}

// FakeStore is an in-memory storage.ObjectStore.
type FakeStore struct {
	mu      sync.Mutex
	Objects map[string]FakeObject
	Uploads int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{Objects: map[string]FakeObject{}}
}

func (s *FakeStore) Upload(_ context.Context, key, contentType string, data []byte, metadata map[string]string, public bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = FakeObject{Data: data, ContentType: contentType, Metadata: metadata, Public: public}
	s.Uploads++
	return s.PublicURL(key), nil
}

func (s *FakeStore) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.Objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return obj.Data, nil
}

func (s *FakeStore) Head(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.Objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return obj.Metadata, nil
}

func (s *FakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, key)
	return nil
}

func (s *FakeStore) PresignURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.test/" + key, nil
}

func (s *FakeStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

// Has reports whether key currently exists.
func (s *FakeStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Objects[key]
	return ok
}

// FakeRepo is an in-memory repository.ItemRepository with the same
// write-once slot semantics as the Mongo implementation.
type FakeRepo struct {
	mu     sync.Mutex
	Items  map[string]*models.Item
	Writes map[string]int // uid+"."+field -> times actually written
}

func NewFakeRepo() *FakeRepo {
	return &FakeRepo{Items: map[string]*models.Item{}, Writes: map[string]int{}}
}

func (r *FakeRepo) Insert(_ context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *item
	r.Items[item.UID] = &cp
	return nil
}

func (r *FakeRepo) GetByUID(_ context.Context, uid string) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.Items[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (r *FakeRepo) MergeFields(_ context.Context, uid string, fields bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.Items[uid]
	if !ok {
		return repository.ErrNotFound
	}
	for name, value := range fields {
		if r.setField(it, uid, name, value) {
			r.Writes[uid+"."+name]++
		}
	}
	return nil
}

// setField mirrors the filtered $set: slot fields only transition from empty.
func (r *FakeRepo) setField(it *models.Item, uid, name string, value interface{}) bool {
	str, _ := value.(string)
	switch name {
	case "thumbnail":
		if it.Thumbnail != "" || it.ThumbnailError != "" {
			return false
		}
		it.Thumbnail = str
	case "thumbnailError":
		if it.Thumbnail != "" || it.ThumbnailError != "" {
			return false
		}
		it.ThumbnailError = str
	case "optimized":
		if it.Optimized != "" || it.OptimizedError != "" {
			return false
		}
		it.Optimized = str
	case "optimizedError":
		if it.Optimized != "" || it.OptimizedError != "" {
			return false
		}
		it.OptimizedError = str
	case "poster":
		if it.Poster != "" || it.PosterError != "" {
			return false
		}
		it.Poster = str
	case "posterError":
		if it.Poster != "" || it.PosterError != "" {
			return false
		}
		it.PosterError = str
	case "sharePath":
		it.SharePath = str
	case "original":
		it.Original = str
	case "index":
		if i, ok := value.(int); ok {
			it.Index = i
		}
	}
	return true
}

func (r *FakeRepo) Delete(_ context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Items[uid]; !ok {
		return repository.ErrNotFound
	}
	delete(r.Items, uid)
	return nil
}

func (r *FakeRepo) ListSiblings(_ context.Context, coll string) ([]models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Item
	for _, it := range r.Items {
		if it.Coll == coll {
			out = append(out, *it)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Index < out[i].Index {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *FakeRepo) RenumberSiblings(ctx context.Context, coll string) error {
	items, _ := r.ListSiblings(ctx, coll)
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range items {
		r.Items[it.UID].Index = i
	}
	return nil
}

// FakeBus records published finalize events.
type FakeBus struct {
	mu     sync.Mutex
	Events []events.ObjectFinalized
}

func (b *FakeBus) PublishFinalized(_ context.Context, ev events.ObjectFinalized) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Events = append(b.Events, ev)
	return nil
}

func (b *FakeBus) All() []events.ObjectFinalized {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.ObjectFinalized(nil), b.Events...)
}
