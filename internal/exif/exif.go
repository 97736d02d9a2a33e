package exif

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// allowed is the only set of tags ever copied onto an item document.
var allowed = []goexif.FieldName{
	goexif.DateTimeOriginal,
	goexif.GPSAltitude,
	goexif.GPSAltitudeRef,
	goexif.GPSDateStamp,
	goexif.GPSImgDirection,
	goexif.GPSImgDirectionRef,
	goexif.GPSLatitude,
	goexif.GPSLatitudeRef,
	goexif.GPSLongitude,
	goexif.GPSLongitudeRef,
	goexif.GPSTimeStamp,
	goexif.ImageDescription,
	goexif.Orientation,
	goexif.Make,
	goexif.Model,
}

// Extract reads exif out of an image stream and returns the allow-listed
// tags as strings. GPS latitude/longitude are normalized to signed decimal
// degrees. Returns nil (not an error) when the stream carries no exif.
func Extract(r io.Reader) map[string]string {
	x, err := goexif.Decode(r)
	if err != nil {
		return nil
	}

	out := make(map[string]string, len(allowed))
	for _, name := range allowed {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		out[string(name)] = formatTag(tag)
	}
	if len(out) == 0 {
		return nil
	}

	normalizeCoordinate(out, string(goexif.GPSLatitude), string(goexif.GPSLatitudeRef), "S")
	normalizeCoordinate(out, string(goexif.GPSLongitude), string(goexif.GPSLongitudeRef), "W")
	return out
}

// formatTag renders a tag value. Rational components come out as
// "num/den" joined by commas so downstream parsing stays uniform.
func formatTag(tag *tiff.Tag) string {
	if s, err := tag.StringVal(); err == nil {
		return strings.TrimSpace(s)
	}

	parts := make([]string, 0, int(tag.Count))
	for i := 0; i < int(tag.Count); i++ {
		if num, den, err := tag.Rat2(i); err == nil {
			parts = append(parts, fmt.Sprintf("%d/%d", num, den))
			continue
		}
		if v, err := tag.Int(i); err == nil {
			parts = append(parts, strconv.Itoa(v))
		}
	}
	return strings.Join(parts, ",")
}

func normalizeCoordinate(m map[string]string, key, refKey, negRef string) {
	raw, ok := m[key]
	if !ok {
		return
	}
	triple, err := ParseRationalTriple(raw)
	if err != nil {
		return
	}
	deg := ToDecimalDegrees(triple, m[refKey] == negRef)
	m[key] = strconv.FormatFloat(deg, 'f', -1, 64)
}

// ParseRationalTriple parses "d/dd,m/md,s/sd" into degree, minute and second
// components. A zero denominator falls back to the raw numerator.
func ParseRationalTriple(s string) ([3]float64, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return [3]float64{}, fmt.Errorf("exif: want 3 rational components, got %d", len(fields))
	}

	var out [3]float64
	for i, f := range fields {
		num, den, err := parseRational(strings.TrimSpace(f))
		if err != nil {
			return [3]float64{}, err
		}
		if den == 0 {
			out[i] = num
			continue
		}
		out[i] = num / den
	}
	return out, nil
}

func parseRational(s string) (num, den float64, err error) {
	i := strings.IndexByte(s, '/')
	if i < 0 {
		num, err = strconv.ParseFloat(s, 64)
		return num, 1, err
	}
	num, err = strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("exif: bad rational %q", s)
	}
	den, err = strconv.ParseFloat(s[i+1:], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("exif: bad rational %q", s)
	}
	return num, den, nil
}

// ToDecimalDegrees collapses a deg/min/sec triple into signed decimal
// degrees; south and west hemispheres come out negative.
func ToDecimalDegrees(t [3]float64, negative bool) float64 {
	deg := t[0] + t[1]/60 + t[2]/3600
	if negative {
		deg = -deg
	}
	return deg
}
