package exif

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRationalTriple(t *testing.T) {
	got, err := ParseRationalTriple("10/1,30/1,0/1")
	require.NoError(t, err)
	assert.Equal(t, [3]float64{10, 30, 0}, got)
}

func TestParseRationalTripleZeroDenominator(t *testing.T) {
	// a broken denominator must fall back to the raw numerator, not fault
	got, err := ParseRationalTriple("10/0,30/1,45/1")
	require.NoError(t, err)
	assert.Equal(t, [3]float64{10, 30, 45}, got)
}

func TestParseRationalTripleRejectsBadInput(t *testing.T) {
	_, err := ParseRationalTriple("10/1,30/1")
	assert.Error(t, err)

	_, err = ParseRationalTriple("x/1,30/1,0/1")
	assert.Error(t, err)
}

func TestToDecimalDegrees(t *testing.T) {
	assert.InDelta(t, 10.5, ToDecimalDegrees([3]float64{10, 30, 0}, false), 1e-9)
	assert.InDelta(t, -10.5, ToDecimalDegrees([3]float64{10, 30, 0}, true), 1e-9)
	assert.InDelta(t, 50.004166666, ToDecimalDegrees([3]float64{50, 0, 15}, false), 1e-6)
}

func TestNormalizeCoordinate(t *testing.T) {
	m := map[string]string{
		"GPSLatitude":     "10/1,30/1,0/1",
		"GPSLatitudeRef":  "S",
		"GPSLongitude":    "73/1,59/1,60/1",
		"GPSLongitudeRef": "E",
	}
	normalizeCoordinate(m, "GPSLatitude", "GPSLatitudeRef", "S")
	normalizeCoordinate(m, "GPSLongitude", "GPSLongitudeRef", "W")

	assert.Equal(t, "-10.5", m["GPSLatitude"])
	assert.Equal(t, "74", m["GPSLongitude"])
}

func TestExtractNoExif(t *testing.T) {
	assert.Nil(t, Extract(bytes.NewReader([]byte("not an image"))))
}
