package models

// PosterExt is the fixed extension of every video-derived artifact.
const PosterExt = ".jpeg"

// Capability describes what the pipeline can do with one raster format.
// The three flags used to live in three separately maintained lists; keeping
// them in one table keeps them from drifting apart.
type Capability struct {
	Displayable  bool // a generic viewer can render it
	ExifReadable bool // the exif decoder understands its container
	Processable  bool // both the decoder and the transform toolkit accept it
}

var capabilities = map[string]Capability{
	"image/bmp":  {Displayable: true, ExifReadable: false, Processable: true},
	"image/gif":  {Displayable: true, ExifReadable: false, Processable: true},
	"image/jpeg": {Displayable: true, ExifReadable: true, Processable: true},
	"image/png":  {Displayable: true, ExifReadable: false, Processable: true},
	// webp decodes fine but its exif chunks are not readable by the decoder
	"image/webp": {Displayable: true, ExifReadable: false, Processable: true},
	"image/tiff": {Displayable: false, ExifReadable: true, Processable: false},
	"image/svg+xml": {Displayable: true},
}

// CapabilityFor returns the capability row for a mime type; unknown formats
// get the zero value (nothing supported).
func CapabilityFor(mimeType string) Capability {
	return capabilities[mimeType]
}

// CanProcess reports whether the compression and derivative toolchain accept
// this mime type.
func CanProcess(mimeType string) bool {
	return capabilities[mimeType].Processable
}

// CanReadExif reports whether a metadata probe should attempt exif extraction.
func CanReadExif(mimeType string) bool {
	return capabilities[mimeType].ExifReadable
}

var canonicalExts = map[string]string{
	"image/bmp":  ".bmp",
	"image/gif":  ".gif",
	"image/jpeg": ".jpeg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ExtForMime returns the canonical file extension for a raster mime type,
// or "" when the format has no fixed one.
func ExtForMime(mimeType string) string {
	return canonicalExts[mimeType]
}
