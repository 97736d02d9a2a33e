package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"media-pipeline/internal/deletion"
	"media-pipeline/internal/events"
	"media-pipeline/internal/ingest"
	models "media-pipeline/internal/media"
	"media-pipeline/internal/repository"
	"media-pipeline/internal/storage"
)

// Cache is the optional signed-url cache (redis in production).
type Cache interface {
	Set(ctx context.Context, key string, val string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

// PipelineService glues the client-side pipeline pieces to storage, the
// document store and the finalize bus.
type PipelineService struct {
	repo       repository.ItemRepository
	store      storage.ObjectStore
	pub        events.Publisher
	fanout     *deletion.Fanout
	coord      *ingest.Coordinator
	cache      Cache
	presignTTL time.Duration
	signedTTL  time.Duration
	log        *zap.SugaredLogger
}

// signedTTL bounds the cache entry, not the presigned link itself; it must
// not outlive presignTTL or the cache serves dead links.
func NewPipelineService(repo repository.ItemRepository, store storage.ObjectStore, pub events.Publisher, coord *ingest.Coordinator, cache Cache, presignTTL, signedTTL time.Duration, log *zap.SugaredLogger) *PipelineService {
	if signedTTL <= 0 || signedTTL > presignTTL {
		signedTTL = presignTTL
	}
	return &PipelineService{
		repo:       repo,
		store:      store,
		pub:        pub,
		fanout:     deletion.NewFanout(store, repo, log),
		coord:      coord,
		cache:      cache,
		presignTTL: presignTTL,
		signedTTL:  signedTTL,
		log:        log,
	}
}

func (s *PipelineService) Progress() *ingest.Progress {
	return s.coord.Progress()
}

// Stage runs the ingest coordinator over a batch and creates the item
// documents before any upload begins. A partial compression failure still
// stages the surviving siblings; the BatchError comes back alongside them
// for the user notice.
func (s *PipelineService) Stage(ctx context.Context, coll string, startIndex int, files []ingest.File) ([]ingest.Staged, error) {
	staged, batchErr := s.coord.Add(ctx, coll, startIndex, files)
	for _, st := range staged {
		if err := s.repo.Insert(ctx, st.Item); err != nil {
			return nil, fmt.Errorf("insert item %s: %w", st.Item.UID, err)
		}
	}
	return staged, batchErr
}

// FinalizeUpload is the transport completion callback: the original object
// is written, its URL merged onto the document, and the finalize event
// published for the derivative triggers. A storage failure deletes the
// document again as compensation, so triggers for it never fire.
func (s *PipelineService) FinalizeUpload(ctx context.Context, item *models.Item, data []byte) error {
	key := item.StoragePath()
	url, err := s.store.Upload(ctx, key, item.MimeType, data, map[string]string{
		"uid":          item.UID,
		"originalSize": fmt.Sprintf("%d", item.OriginalSize),
	}, true)
	if err != nil {
		if derr := s.repo.Delete(ctx, item.UID); derr != nil && !errors.Is(derr, repository.ErrNotFound) {
			s.log.Errorw("compensating delete failed", "uid", item.UID, "err", derr)
		}
		return fmt.Errorf("store original: %w", err)
	}

	if err := s.repo.MergeFields(ctx, item.UID, bson.M{"original": url}); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("merge original url: %w", err)
	}

	if err := s.pub.PublishFinalized(ctx, events.ObjectFinalized{
		Path:           key,
		ContentType:    item.MimeType,
		Size:           int64(len(data)),
		Generation:     1,
		Metageneration: 1,
		Metadata:       map[string]string{"uid": item.UID},
	}); err != nil {
		// the object landed; a lost event only delays derivatives
		s.log.Errorw("publish finalize", "path", key, "err", err)
	}
	return nil
}

func (s *PipelineService) GetByUID(ctx context.Context, uid string) (*models.Item, error) {
	return s.repo.GetByUID(ctx, uid)
}

// Delete runs the artifact fan-out and only then removes the document and
// renumbers the surviving siblings.
func (s *PipelineService) Delete(ctx context.Context, uid string) error {
	item, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return err
	}
	return s.fanout.Delete(ctx, item)
}

// SignedURL returns a presigned link for the original, cached when a cache
// is configured.
func (s *PipelineService) SignedURL(ctx context.Context, uid string) (string, error) {
	if s.cache != nil {
		if url, err := s.cache.Get(ctx, "signed:"+uid); err == nil && url != "" {
			return url, nil
		}
	}

	item, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignURL(ctx, item.StoragePath(), s.presignTTL)
	if err != nil {
		return "", err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, "signed:"+uid, url, s.signedTTL)
	}
	return url, nil
}
