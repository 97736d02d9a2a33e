package compress

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	// webp sources decode through the stdlib registry; they re-encode as jpeg.
	_ "golang.org/x/image/webp"

	"media-pipeline/internal/exif"
	models "media-pipeline/internal/media"
)

// Input is one raw file handed to the worker.
type Input struct {
	Bytes    []byte
	MimeType string
}

// Output carries the transformed bytes plus everything the probe learned.
// MimeType is the container the bytes actually are in; it differs from the
// input for formats the encoder cannot write back, like webp.
type Output struct {
	Bytes    []byte
	MimeType string
	Width    int
	Height   int
	Exif     map[string]string
}

// Compress is a pure transform: it holds no state and is safe to call from
// any number of goroutines. Files the toolkit cannot process come back
// byte-for-byte untouched.
func Compress(in Input) (Output, error) {
	if !models.CanProcess(in.MimeType) {
		return Output{Bytes: in.Bytes, MimeType: in.MimeType}, nil
	}

	var meta map[string]string
	if models.CanReadExif(in.MimeType) {
		meta = exif.Extract(bytes.NewReader(in.Bytes))
	}

	// decoding with auto-orientation bakes the exif rotation into the pixels
	img, err := imaging.Decode(bytes.NewReader(in.Bytes), imaging.AutoOrientation(true))
	if err != nil {
		return Output{}, fmt.Errorf("compress decode: %w", err)
	}

	bounds := img.Bounds()
	tier := SelectTier(bounds.Dy(), bounds.Dx(), int64(len(in.Bytes)))

	if tier.ResizePct > 0 {
		w := bounds.Dx() * tier.ResizePct / 100
		if w < 1 {
			w = 1
		}
		img = imaging.Resize(img, w, 0, imaging.Lanczos)
	}

	encoded, outType, err := encode(img, in.MimeType, tier.Quality)
	if err != nil {
		return Output{}, fmt.Errorf("compress encode: %w", err)
	}

	final := img.Bounds()
	return Output{
		Bytes:    encoded,
		MimeType: outType,
		Width:    final.Dx(),
		Height:   final.Dy(),
		Exif:     meta,
	}, nil
}

func encode(img image.Image, mimeType string, quality int) ([]byte, string, error) {
	var buf bytes.Buffer
	var err error
	outType := mimeType
	switch mimeType {
	case "image/png":
		err = imaging.Encode(&buf, img, imaging.PNG)
	case "image/gif":
		err = imaging.Encode(&buf, img, imaging.GIF)
	case "image/bmp":
		err = imaging.Encode(&buf, img, imaging.BMP)
	default:
		// jpeg sources, plus webp which has no encoder
		if quality == 0 {
			quality = 92
		}
		outType = "image/jpeg"
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	}
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), outType, nil
}
