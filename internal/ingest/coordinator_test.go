package ingest

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	models "media-pipeline/internal/media"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 9, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func TestAddStagesBatch(t *testing.T) {
	var reads, processed atomic.Int64
	c := NewCoordinator(Callbacks{
		OnRead:      func() { reads.Add(1) },
		OnProcessed: func() { processed.Add(1) },
	}, zap.NewNop().Sugar())

	files := []File{
		{Name: "photo.jpeg", Bytes: testJPEG(t, 120, 80)},
		{Name: "notes.txt", Bytes: []byte("plain text")},
		{Name: "clip.mp4", Bytes: []byte("not really a video")},
	}
	staged, err := c.Add(context.Background(), "a", 0, files)
	require.NoError(t, err)
	require.Len(t, staged, 3)

	assert.Equal(t, int64(3), reads.Load())
	assert.Equal(t, int64(3), processed.Load())
	assert.True(t, c.Progress().Done())

	byName := map[string]Staged{}
	for _, s := range staged {
		byName[s.Item.Basename] = s
	}

	img := byName["photo.jpeg"]
	assert.True(t, img.Item.IsProcessable)
	assert.Equal(t, "image", img.Item.Category)
	require.NotNil(t, img.Item.Width)
	assert.Equal(t, 120, *img.Item.Width)
	assert.Equal(t, 80, *img.Item.Height)
	assert.Equal(t, int64(len(img.Data)), img.Item.Size)

	txt := byName["notes.txt"]
	assert.False(t, txt.Item.IsProcessable)
	assert.Equal(t, "file", txt.Item.Category)
	assert.Nil(t, txt.Item.Width)
	assert.Equal(t, []byte("plain text"), txt.Data)

	clip := byName["clip.mp4"]
	assert.True(t, clip.Item.IsProcessable, "videos are processable server-side")
	assert.Equal(t, "video", clip.Item.Category)
	assert.Equal(t, []byte("not really a video"), clip.Data, "videos skip client compression")

	// indexes assigned in input order
	assert.Equal(t, 0, img.Item.Index)
	assert.Equal(t, 1, txt.Item.Index)
	assert.Equal(t, 2, clip.Item.Index)
}

func TestAddPartialFailureKeepsSiblings(t *testing.T) {
	c := NewCoordinator(Callbacks{}, zap.NewNop().Sugar())

	files := []File{
		{Name: "good.jpeg", Bytes: testJPEG(t, 60, 60)},
		{Name: "bad.jpeg", Bytes: []byte("corrupt")},
	}
	staged, err := c.Add(context.Background(), "a", 0, files)

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, []string{"bad.jpeg"}, batchErr.Failed)

	require.Len(t, staged, 1)
	assert.Equal(t, "good.jpeg", staged[0].Item.Basename)

	// the failed file's contribution is rolled back so the batch completes
	assert.True(t, c.Progress().Done())
}

func TestProgressLiveTotals(t *testing.T) {
	var p Progress
	p.AddFiles(2)
	assert.False(t, p.Done())

	p.MarkRead()
	p.MarkProcessed()
	assert.False(t, p.Done())

	// a second batch joins mid-flight
	p.AddFiles(1)
	p.MarkRead()
	p.MarkProcessed()
	assert.False(t, p.Done(), "totals grew, predicate must re-check")

	p.MarkRead()
	p.MarkProcessed()
	assert.True(t, p.Done())
}

func TestProgressRollback(t *testing.T) {
	var p Progress
	p.AddFiles(2)
	p.MarkRead()
	p.MarkRead()
	p.MarkProcessed()

	// second file was read but its compression failed
	p.RollbackFailed(1)
	assert.True(t, p.Done())

	read, readTotal, processed, processedTotal := p.Snapshot()
	assert.Equal(t, int64(1), read)
	assert.Equal(t, int64(1), readTotal)
	assert.Equal(t, int64(1), processed)
	assert.Equal(t, int64(1), processedTotal)
}

func TestReformatRenamesConvertedContainers(t *testing.T) {
	it := &models.Item{
		Basename:    "shot.webp",
		Ext:         ".webp",
		DisplayName: "shot",
		MimeType:    "image/webp",
	}

	// webp bytes come back from compression as jpeg
	reformat(it, "image/jpeg")
	assert.Equal(t, "shot.jpeg", it.Basename)
	assert.Equal(t, ".jpeg", it.Ext)
	assert.Equal(t, "image/jpeg", it.MimeType)
	assert.Equal(t, "shot", it.DisplayName)

	// unknown output formats leave the item untouched
	reformat(it, "application/octet-stream")
	assert.Equal(t, "shot.jpeg", it.Basename)
	assert.Equal(t, "image/jpeg", it.MimeType)
}

func TestItemMetadata(t *testing.T) {
	c := NewCoordinator(Callbacks{}, zap.NewNop().Sugar())
	staged, err := c.Add(context.Background(), "lists/7", 4, []File{
		{Name: "IMG_0001.JPG", Bytes: testJPEG(t, 32, 32)},
	})
	require.NoError(t, err)
	require.Len(t, staged, 1)

	it := staged[0].Item
	assert.NotEmpty(t, it.UID)
	assert.Equal(t, "lists/7", it.Coll)
	assert.Equal(t, ".jpg", it.Ext)
	assert.Equal(t, "IMG_0001", it.DisplayName)
	assert.Equal(t, "image/jpeg", it.MimeType)
	assert.Equal(t, 4, it.Index)
	assert.NotZero(t, it.Timestamp)
	assert.NotEmpty(t, it.SizeStr)
}
