package deletion

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"media-pipeline/internal/derivative"
	models "media-pipeline/internal/media"
	"media-pipeline/internal/repository"
	"media-pipeline/internal/storage"
)

// ArtifactPaths computes every object a successful pipeline run could have
// produced for this item. Derivative paths are derived by the same rule the
// triggers use, so the two sides cannot drift apart.
func ArtifactPaths(item *models.Item) []string {
	original := item.StoragePath()

	switch {
	case item.Category == "video":
		return []string{
			original,
			derivative.TargetPath(original, derivative.Optimized, true),
			derivative.TargetPath(original, derivative.Thumbnail, true),
			derivative.TargetPath(original, derivative.Poster, true),
		}
	case models.CanProcess(item.MimeType):
		return []string{
			original,
			derivative.TargetPath(original, derivative.Optimized, false),
			derivative.TargetPath(original, derivative.Thumbnail, false),
		}
	case item.SharePath != "":
		return []string{item.SharePath, original}
	default:
		return []string{original}
	}
}

// Fanout reverses an item's artifacts and then its document.
type Fanout struct {
	store storage.ObjectStore
	repo  repository.ItemRepository
	log   *zap.SugaredLogger
}

func NewFanout(store storage.ObjectStore, repo repository.ItemRepository, log *zap.SugaredLogger) *Fanout {
	return &Fanout{store: store, repo: repo, log: log}
}

// Delete issues one best-effort delete per artifact, all in parallel. Each
// failure is logged and swallowed; a target may be mid-processing or already
// gone. Only after every delete has settled does the document go, followed
// by sibling renumbering; that ordering is what stops an in-flight trigger
// from writing a derivative into a vacated slot.
func (f *Fanout) Delete(ctx context.Context, item *models.Item) error {
	paths := ArtifactPaths(item)

	var wg sync.WaitGroup
	for _, p := range paths {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			if err := f.store.Delete(ctx, p); err != nil {
				f.log.Warnw("artifact delete", "path", p, "err", err)
			}
		}(p)
	}
	wg.Wait()

	if err := f.repo.Delete(ctx, item.UID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return f.repo.RenumberSiblings(ctx, item.Coll)
}
