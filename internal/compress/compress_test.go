package compress

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectTier(t *testing.T) {
	cases := []struct {
		name   string
		h, w   int
		size   int64
		expect string
	}{
		{"511px under 100KB stays none", 511, 511, 99 * kb, "none"},
		{"511px over 100KB is small", 511, 511, 101 * kb, "small"},
		{"513px at 101KB misses both small and large", 513, 513, 101 * kb, "none"},
		{"513px over 500KB is large", 513, 513, 501 * kb, "large"},
		{"1023px over 500KB is large", 767, 1023, 501 * kb, "large"},
		{"1024px over 500KB falls through to huge", 1024, 800, 501 * kb, "huge"},
		{"2000px at 2MB is huge", 2000, 2000, 2 * 1024 * kb, "huge"},
		{"big but light is none", 4000, 4000, 90 * kb, "none"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, SelectTier(tc.h, tc.w, tc.size).Name)
		})
	}
}

// noisyJPEG builds a jpeg that resists compression enough to have a
// realistic byte size for its dimensions.
func noisyJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))
	return buf.Bytes()
}

func TestCompressResizesHugeTier(t *testing.T) {
	src := noisyJPEG(t, 1200, 1200)
	require.Greater(t, len(src), hugeMinSize, "fixture must land in the huge tier")

	out, err := Compress(Input{Bytes: src, MimeType: "image/jpeg"})
	require.NoError(t, err)

	// 60% resize
	assert.Equal(t, 720, out.Width)
	assert.Equal(t, 720, out.Height)
	assert.Equal(t, "image/jpeg", out.MimeType)
	assert.Less(t, len(out.Bytes), len(src))
}

func TestCompressNoneTierKeepsDimensions(t *testing.T) {
	src := noisyJPEG(t, 64, 48)

	out, err := Compress(Input{Bytes: src, MimeType: "image/jpeg"})
	require.NoError(t, err)

	assert.Equal(t, 64, out.Width)
	assert.Equal(t, 48, out.Height)
}

func TestCompressPassesThroughUnprocessable(t *testing.T) {
	raw := []byte("definitely not an image")

	out, err := Compress(Input{Bytes: raw, MimeType: "video/mp4"})
	require.NoError(t, err)

	assert.Equal(t, raw, out.Bytes)
	assert.Equal(t, "video/mp4", out.MimeType)
	assert.Zero(t, out.Width)
	assert.Nil(t, out.Exif)
}

func TestEncodeReportsOutputContainer(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	cases := []struct {
		in, out string
	}{
		{"image/png", "image/png"},
		{"image/gif", "image/gif"},
		{"image/bmp", "image/bmp"},
		{"image/jpeg", "image/jpeg"},
		// no webp encoder; the bytes come back as jpeg and the caller must
		// rename the file accordingly
		{"image/webp", "image/jpeg"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			data, outType, err := encode(img, tc.in, 85)
			require.NoError(t, err)
			require.NotEmpty(t, data)
			assert.Equal(t, tc.out, outType)
		})
	}
}

func TestCompressRejectsCorruptImage(t *testing.T) {
	_, err := Compress(Input{Bytes: []byte("junk"), MimeType: "image/jpeg"})
	assert.Error(t, err)
}
