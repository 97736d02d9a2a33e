package ingest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"media-pipeline/internal/compress"
	"media-pipeline/internal/exif"
	models "media-pipeline/internal/media"
)

// File is one raw upload candidate.
type File struct {
	Name     string
	Bytes    []byte
	MimeType string // optional; detected from the name when empty
}

// Staged pairs a finished item document with the bytes the transport should
// ship. For processable files Data holds the compressed output.
type Staged struct {
	Item *models.Item
	Data []byte
}

// Callbacks is the public progress contract: OnRead fires once per file
// after the metadata probe, OnProcessed once per file after the compression
// decision resolves, including skipped files.
type Callbacks struct {
	OnRead      func()
	OnProcessed func()
}

// BatchError reports the failed subset of a batch; siblings that succeeded
// are still returned and stay queued for upload.
type BatchError struct {
	Failed []string
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("ingest: %d file(s) failed compression: %s",
		len(e.Failed), strings.Join(e.Failed, ", "))
}

// Coordinator turns raw files into staged items. Compression runs on a pool
// capped at the hardware concurrency; the coordinator itself holds no
// per-file state between batches.
type Coordinator struct {
	progress *Progress
	cb       Callbacks
	workers  int
	log      *zap.SugaredLogger
}

func NewCoordinator(cb Callbacks, log *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		progress: &Progress{},
		cb:       cb,
		workers:  runtime.NumCPU(),
		log:      log,
	}
}

func (c *Coordinator) Progress() *Progress {
	return c.progress
}

// Add ingests a batch. It may be called again while a previous batch is in
// flight; the shared Progress totals grow accordingly.
func (c *Coordinator) Add(ctx context.Context, coll string, startIndex int, files []File) ([]Staged, error) {
	c.progress.AddFiles(len(files))

	var (
		mu     sync.Mutex
		staged []Staged
		failed []string
		wg     sync.WaitGroup
		sem    = make(chan struct{}, c.workers)
	)

	for i, f := range files {
		item := c.newItem(coll, startIndex+i, f)

		if !models.CanProcess(item.MimeType) {
			// metadata-only path: no probe work, no client-side compression.
			// Videos land here too; their derivatives are a server concern.
			c.markRead()
			c.markProcessed()
			mu.Lock()
			staged = append(staged, Staged{Item: item, Data: f.Bytes})
			mu.Unlock()
			continue
		}

		c.probe(item, f.Bytes)
		c.markRead()

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			c.progress.RollbackFailed(1)
			mu.Lock()
			failed = append(failed, item.Basename)
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(item *models.Item, data []byte) {
			defer wg.Done()
			defer func() { <-sem }()

			out, err := compress.Compress(compress.Input{Bytes: data, MimeType: item.MimeType})
			if err != nil {
				c.log.Warnw("compression failed", "file", item.Basename, "err", err)
				c.progress.RollbackFailed(1)
				mu.Lock()
				failed = append(failed, item.Basename)
				mu.Unlock()
				return
			}

			if out.MimeType != "" && out.MimeType != item.MimeType {
				reformat(item, out.MimeType)
			}
			item.Width = &out.Width
			item.Height = &out.Height
			item.Exif = out.Exif
			item.Size = int64(len(out.Bytes))
			item.SizeStr = models.HumanSize(item.Size)

			c.markProcessed()
			mu.Lock()
			staged = append(staged, Staged{Item: item, Data: out.Bytes})
			mu.Unlock()
		}(item, f.Bytes)
	}

	wg.Wait()

	if len(failed) > 0 {
		return staged, &BatchError{Failed: failed}
	}
	return staged, nil
}

func (c *Coordinator) newItem(coll string, index int, f File) *models.Item {
	mimeType := f.MimeType
	if mimeType == "" {
		mimeType = models.DetectMime(f.Name)
	}
	ext := strings.ToLower(path.Ext(f.Name))
	size := int64(len(f.Bytes))
	category := models.Categorize(mimeType)

	// videos count as processable: the server-side triggers handle them
	processable := models.CanProcess(mimeType) || category == "video"

	return &models.Item{
		UID:           uuid.NewString(),
		Coll:          coll,
		Basename:      f.Name,
		Ext:           ext,
		DisplayName:   strings.TrimSuffix(f.Name, ext),
		Category:      category,
		MimeType:      mimeType,
		Size:          size,
		SizeStr:       models.HumanSize(size),
		OriginalSize:  size,
		Timestamp:     time.Now().UnixMilli(),
		Index:         index,
		IsProcessable: processable,
	}
}

// reformat renames the item to the container compression actually produced,
// so the stored object's name, ext and content type stay in agreement. webp
// sources land here because the toolkit re-encodes them as jpeg.
func reformat(item *models.Item, mimeType string) {
	ext := models.ExtForMime(mimeType)
	if ext == "" {
		return
	}
	item.Basename = strings.TrimSuffix(item.Basename, path.Ext(item.Basename)) + ext
	item.Ext = ext
	item.MimeType = mimeType
}

// probe reads dimensions and exif in one pass over the buffer, before any
// compression is dispatched.
func (c *Coordinator) probe(item *models.Item, data []byte) {
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		w, h := cfg.Width, cfg.Height
		item.Width = &w
		item.Height = &h
	}
	if models.CanReadExif(item.MimeType) {
		item.Exif = exif.Extract(bytes.NewReader(data))
	}
}

func (c *Coordinator) markRead() {
	c.progress.MarkRead()
	if c.cb.OnRead != nil {
		c.cb.OnRead()
	}
}

func (c *Coordinator) markProcessed() {
	c.progress.MarkProcessed()
	if c.cb.OnProcessed != nil {
		c.cb.OnProcessed()
	}
}
