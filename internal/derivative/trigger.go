package derivative

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"media-pipeline/internal/events"
	models "media-pipeline/internal/media"
	"media-pipeline/internal/repository"
	"media-pipeline/internal/storage"
	"media-pipeline/internal/video"
)

// Job is the ephemeral state of one trigger invocation.
type Job struct {
	SourcePath     string
	ContentType    string
	Generation     int64
	Metageneration int64
	OriginalSize   int64
	TargetPath     string
	Coll           string
	UID            string
	IsVideo        bool
}

// Trigger runs the derivative state machine for exactly one kind. Every
// invocation is stateless; three triggers may work the same source
// concurrently and converge on the same document via field-level merges.
type Trigger struct {
	kind   Kind
	store  storage.ObjectStore
	repo   repository.ItemRepository
	pub    events.Publisher
	frames video.FrameExtractor
	log    *zap.SugaredLogger
}

func NewTrigger(kind Kind, store storage.ObjectStore, repo repository.ItemRepository, pub events.Publisher, frames video.FrameExtractor, log *zap.SugaredLogger) *Trigger {
	return &Trigger{kind: kind, store: store, repo: repo, pub: pub, frames: frames, log: log}
}

// Handle processes one finalize event end to end. It never returns an error
// for expected races or redeliveries; a genuine transform fault is recorded
// as <kind>Error on the document and swallowed, because redelivery plus the
// short-circuit checks make retrying here pointless.
func (t *Trigger) Handle(ctx context.Context, ev events.ObjectFinalized) error {
	job, reason := t.validate(ev)
	if reason != "" {
		skippedTotal.WithLabelValues(t.kind.Name, reason).Inc()
		return nil
	}

	if err := t.process(ctx, job); err != nil {
		failedTotal.WithLabelValues(t.kind.Name).Inc()
		t.log.Errorw("derivative failed",
			"kind", t.kind.Name, "source", job.SourcePath, "err", err)
		t.recordFailure(ctx, job)
		return nil
	}
	return nil
}

// validate is the Received → Validated step; a non-empty reason is a
// short-circuit exit. Checks run in order, first match wins.
func (t *Trigger) validate(ev events.ObjectFinalized) (Job, string) {
	isImage := models.CanProcess(ev.ContentType)
	isVideo := strings.HasPrefix(ev.ContentType, "video/")

	switch {
	case !isImage && !isVideo:
		return Job{}, "content_type"
	case isImage && t.kind.Image == nil:
		// an original image this kind has nothing to do with
		return Job{}, "no_image_options"
	case hasMarker(ev.Metadata):
		// redelivered event for an object that is itself a derivative
		return Job{}, "marker"
	case ev.Metageneration > 1:
		// metadata rewrite of an object whose side effects already landed
		return Job{}, "metageneration"
	}

	coll, uid := Owner(ev.Path)
	return Job{
		SourcePath:     ev.Path,
		ContentType:    ev.ContentType,
		Generation:     ev.Generation,
		Metageneration: ev.Metageneration,
		OriginalSize:   ev.Size,
		TargetPath:     TargetPath(ev.Path, t.kind, isVideo),
		Coll:           coll,
		UID:            uid,
		IsVideo:        isVideo,
	}, ""
}

func (t *Trigger) process(ctx context.Context, job Job) error {
	// Downloaded
	derived, contentType, err := t.download(ctx, job)
	if errors.Is(err, storage.ErrNotFound) {
		// the user deleted the item before this trigger ran
		t.log.Debugw("source gone before trigger", "kind", t.kind.Name, "source", job.SourcePath)
		return nil
	}
	if err != nil {
		return err
	}

	// Uploaded
	url, err := t.store.Upload(ctx, job.TargetPath, contentType, derived, map[string]string{
		t.kind.Name:    "true",
		"originalSize": strconv.FormatInt(job.OriginalSize, 10),
		"uid":          job.UID,
	}, true)
	if err != nil {
		return fmt.Errorf("upload derivative: %w", err)
	}
	t.publishDerivative(ctx, job, contentType, int64(len(derived)))

	// DocumentMerged. sharePath is set only for the optimized rendition of a
	// video source; image originals are shared as themselves.
	fields := bson.M{t.kind.Name: url}
	if t.kind.Name == Optimized.Name && job.IsVideo {
		fields["sharePath"] = job.TargetPath
	}
	err = t.repo.MergeFields(ctx, job.UID, fields)
	if errors.Is(err, repository.ErrNotFound) {
		// document vanished mid-flight; reverse the upload so nothing orphans
		if derr := t.store.Delete(ctx, job.TargetPath); derr != nil {
			t.log.Warnw("orphan cleanup failed", "kind", t.kind.Name, "path", job.TargetPath, "err", derr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("merge document: %w", err)
	}

	generatedTotal.WithLabelValues(t.kind.Name).Inc()
	return nil
}

// download is also the Transformed step: it returns the finished derivative
// bytes. Image sources are fetched as bytes; video sources are handed to the
// frame extractor as a public URL.
func (t *Trigger) download(ctx context.Context, job Job) ([]byte, string, error) {
	if job.IsVideo {
		// existence check doubles as the delete-race detector
		if _, err := t.store.Head(ctx, job.SourcePath); err != nil {
			return nil, "", err
		}
		quality := 85
		if t.kind.Poster != nil {
			quality = t.kind.Poster.Quality
		}
		frame, err := t.frames.ExtractFrame(ctx, t.store.PublicURL(job.SourcePath), quality)
		if err != nil {
			return nil, "", fmt.Errorf("extract frame: %w", err)
		}
		if t.kind.Image == nil {
			return frame, "image/jpeg", nil
		}
		return t.transformImage(frame, "image/jpeg")
	}

	data, err := t.store.Read(ctx, job.SourcePath)
	if err != nil {
		return nil, "", err
	}
	return t.transformImage(data, job.ContentType)
}

// transformImage applies the kind's raster options: auto-orient, bounding
// box resize, palette formats stay palette, lossy formats get the quality
// clamp, metadata stripped, baseline encoding.
func (t *Trigger) transformImage(data []byte, contentType string) ([]byte, string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decode source: %w", err)
	}

	opts := t.kind.Image
	bounds := img.Bounds()
	if bounds.Dx() > opts.MaxDim || bounds.Dy() > opts.MaxDim {
		img = imaging.Fit(img, opts.MaxDim, opts.MaxDim, imaging.Lanczos)
	}

	encoded, outType, err := encodeDerivative(img, contentType, opts.Quality)
	if err != nil {
		return nil, "", fmt.Errorf("encode derivative: %w", err)
	}
	return encoded, outType, nil
}

func encodeDerivative(img image.Image, contentType string, quality int) ([]byte, string, error) {
	var buf bytes.Buffer
	switch contentType {
	case "image/gif":
		if err := imaging.Encode(&buf, img, imaging.GIF); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/gif", nil
	case "image/png":
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	default:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}
}

// publishDerivative emits the finalize event for the derivative object. Its
// marker metadata is what makes the triggers ignore each other's output.
func (t *Trigger) publishDerivative(ctx context.Context, job Job, contentType string, size int64) {
	if t.pub == nil {
		return
	}
	err := t.pub.PublishFinalized(ctx, events.ObjectFinalized{
		Path:           job.TargetPath,
		ContentType:    contentType,
		Size:           size,
		Generation:     1,
		Metageneration: 1,
		Metadata: map[string]string{
			t.kind.Name:    "true",
			"originalSize": strconv.FormatInt(job.OriginalSize, 10),
			"uid":          job.UID,
		},
	})
	if err != nil {
		t.log.Warnw("publish derivative finalize", "path", job.TargetPath, "err", err)
	}
}

// recordFailure is the top-level failure handler: merge <kind>Error onto the
// document and stop. A vanished document is fine.
func (t *Trigger) recordFailure(ctx context.Context, job Job) {
	err := t.repo.MergeFields(ctx, job.UID, bson.M{t.kind.errorField(): "failed"})
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		t.log.Errorw("record failure flag", "kind", t.kind.Name, "uid", job.UID, "err", err)
	}
}

func hasMarker(metadata map[string]string) bool {
	for _, k := range markerKeys {
		if metadata[k] == "true" {
			return true
		}
	}
	return false
}

// Owner resolves the owning document from a storage path: the leaf directory
// segment is the item uid, everything above it is the collection path.
func Owner(storagePath string) (coll, uid string) {
	dir := path.Dir(storagePath)
	uid = path.Base(dir)
	coll = path.Dir(dir)
	if coll == "." || coll == "/" {
		coll = ""
	}
	return coll, uid
}

// TargetPath places the derivative next to its source with the kind prefix.
// Every video-derived artifact gets the fixed poster image extension.
func TargetPath(sourcePath string, kind Kind, isVideo bool) string {
	dir, base := path.Split(sourcePath)
	if isVideo {
		base = strings.TrimSuffix(base, path.Ext(base)) + models.PosterExt
	}
	return dir + kind.Prefix + base
}
