package models

import (
	"mime"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
)

// Item is the per-file document. The three derivative slots (Thumbnail,
// Optimized, Poster) start empty and are merged in asynchronously, each at
// most once, by the matching derivative trigger.
type Item struct {
	UID          string            `bson:"_id" json:"uid"`
	Coll         string            `bson:"coll" json:"coll"` // parent collection path, e.g. "a/b"
	Basename     string            `bson:"basename" json:"basename"`
	Ext          string            `bson:"ext" json:"ext"`
	DisplayName  string            `bson:"displayName" json:"displayName"`
	Category     string            `bson:"category" json:"category"` // image|video|audio|file
	MimeType     string            `bson:"mimeType" json:"mimeType"`
	Size         int64             `bson:"size" json:"size"`
	SizeStr      string            `bson:"sizeStr" json:"sizeStr"`
	OriginalSize int64             `bson:"originalSize" json:"originalSize"`
	Timestamp    int64             `bson:"timestamp" json:"timestamp"` // unix ms
	Index        int               `bson:"index" json:"index"`
	Width        *int              `bson:"width" json:"width"`
	Height       *int              `bson:"height" json:"height"`
	Exif         map[string]string `bson:"exif,omitempty" json:"exif,omitempty"`
	IsProcessable bool             `bson:"isProcessable" json:"isProcessable"`

	Original string `bson:"original,omitempty" json:"original,omitempty"`

	// derivative slots, write-once each
	Thumbnail      string `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	ThumbnailError string `bson:"thumbnailError,omitempty" json:"thumbnailError,omitempty"`
	Optimized      string `bson:"optimized,omitempty" json:"optimized,omitempty"`
	OptimizedError string `bson:"optimizedError,omitempty" json:"optimizedError,omitempty"`
	Poster         string `bson:"poster,omitempty" json:"poster,omitempty"`
	PosterError    string `bson:"posterError,omitempty" json:"posterError,omitempty"`

	SharePath string `bson:"sharePath,omitempty" json:"sharePath,omitempty"`
}

// StoragePath is the key of the original object: <coll>/<uid>/<basename>.
func (it *Item) StoragePath() string {
	return path.Join(it.Coll, it.UID, it.Basename)
}

// Categorize maps a mime type to the coarse category stored on the item.
func Categorize(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "image"
	case strings.HasPrefix(mimeType, "video/"):
		return "video"
	case strings.HasPrefix(mimeType, "audio/"):
		return "audio"
	default:
		return "file"
	}
}

// DetectMime resolves a mime type from a filename extension, falling back to
// the generic binary type.
func DetectMime(filename string) string {
	mt := mime.TypeByExtension(strings.ToLower(path.Ext(filename)))
	if mt == "" {
		return "application/octet-stream"
	}
	// strip parameters like "; charset=utf-8"
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

// HumanSize renders a byte count as the sizeStr stored on the item.
func HumanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
