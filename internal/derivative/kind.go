package derivative

// ImageOptions drives the raster transform of one kind.
type ImageOptions struct {
	MaxDim  int // bounding box edge, aspect preserved
	Quality int // lossy quality clamp
}

// PosterOptions drives frame extraction for video sources.
type PosterOptions struct {
	Quality int
}

// Kind is one derivative rendition. The pipeline instantiates one trigger
// per kind and the kinds never depend on each other.
type Kind struct {
	Name   string // document field and idempotency marker key
	Prefix string // storage sibling prefix
	Image  *ImageOptions
	Poster *PosterOptions
}

var (
	Thumbnail = Kind{
		Name:   "thumbnail",
		Prefix: "thumb_",
		Image:  &ImageOptions{MaxDim: 256, Quality: 82},
		Poster: &PosterOptions{Quality: 70},
	}
	Optimized = Kind{
		Name:   "optimized",
		Prefix: "optim_",
		Image:  &ImageOptions{MaxDim: 1024, Quality: 86},
		Poster: &PosterOptions{Quality: 85},
	}
	// poster applies to video sources only; no image options means still
	// images short-circuit out of its trigger.
	Poster = Kind{
		Name:   "poster",
		Prefix: "poster_",
		Poster: &PosterOptions{Quality: 85},
	}
)

// Kinds lists every derivative rendition the pipeline produces.
var Kinds = []Kind{Thumbnail, Optimized, Poster}

// markerKeys is the full idempotency marker set; an event whose object
// metadata carries any of these is a derivative, not a source.
var markerKeys = []string{"thumbnail", "optimized", "poster"}

func (k Kind) errorField() string {
	return k.Name + "Error"
}
