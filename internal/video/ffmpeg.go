package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FrameExtractor produces one still image from a video source. The source is
// a URL, not local bytes; ffmpeg streams the container itself.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, src string, quality int) ([]byte, error)
}

// FFmpeg shells out to the ffmpeg binary.
type FFmpeg struct {
	Binary string
}

// ExtractFrame grabs the frame at timestamp 0 and encodes it as jpeg.
// quality is 0-100 and maps onto ffmpeg's inverted 2-31 -q:v scale.
func (f FFmpeg) ExtractFrame(ctx context.Context, src string, quality int) ([]byte, error) {
	binary := strings.TrimSpace(f.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, errors.New("ffmpeg extract: empty source")
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error", "-hide_banner",
		"-ss", "0",
		"-i", src,
		"-frames:v", "1",
		"-q:v", strconv.Itoa(QScale(quality)),
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg extract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("ffmpeg extract: no frame produced")
	}
	return stdout.Bytes(), nil
}

// QScale converts a 0-100 quality to ffmpeg's -q:v range, where 2 is best
// and 31 is worst.
func QScale(quality int) int {
	if quality < 0 {
		quality = 0
	}
	if quality > 100 {
		quality = 100
	}
	q := 31 - quality*29/100
	if q < 2 {
		q = 2
	}
	return q
}
