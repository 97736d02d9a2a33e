package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	assert.Equal(t, "image", Categorize("image/png"))
	assert.Equal(t, "video", Categorize("video/mp4"))
	assert.Equal(t, "audio", Categorize("audio/mpeg"))
	assert.Equal(t, "file", Categorize("application/pdf"))
	assert.Equal(t, "file", Categorize(""))
}

func TestDetectMime(t *testing.T) {
	assert.Equal(t, "image/jpeg", DetectMime("photo.JPG"))
	assert.Equal(t, "video/mp4", DetectMime("clip.mp4"))
	assert.Equal(t, "application/octet-stream", DetectMime("mystery"))
	// parameters stripped
	assert.NotContains(t, DetectMime("notes.txt"), ";")
}

func TestCapabilityMatrix(t *testing.T) {
	for _, mt := range []string{"image/bmp", "image/gif", "image/jpeg", "image/png", "image/webp"} {
		assert.True(t, CanProcess(mt), mt)
	}
	assert.False(t, CanProcess("image/tiff"))
	assert.False(t, CanProcess("image/svg+xml"))
	assert.False(t, CanProcess("video/mp4"))

	assert.True(t, CanReadExif("image/jpeg"))
	assert.False(t, CanReadExif("image/webp"))
}

func TestStoragePath(t *testing.T) {
	it := Item{UID: "b", Coll: "a", Basename: "video.mp4"}
	assert.Equal(t, "a/b/video.mp4", it.StoragePath())

	nested := Item{UID: "u", Coll: "lists/7/items", Basename: "p.png"}
	assert.Equal(t, "lists/7/items/u/p.png", nested.StoragePath())
}

func TestHumanSize(t *testing.T) {
	assert.NotEmpty(t, HumanSize(0))
	assert.NotEmpty(t, HumanSize(2*1024*1024))
	assert.NotEmpty(t, HumanSize(-5))
}
