// Package imaging crops, scales and encodes page images using the 0-1000
// normalised coordinates returned by vision models.
package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

// Scale is the model's normalised coordinate range
const Scale = 1000

// horizontalPadding applies to crops that keep the model's x range
const horizontalPadding = 10

// Box is a normalised bounding box [yMin, xMin, yMax, xMax] on the 0-1000 scale
type Box [4]int

// BoxFromSlice accepts exactly four coordinates
func BoxFromSlice(v []int) (Box, bool) {
	if len(v) != 4 {
		return Box{}, false
	}
	return Box{v[0], v[1], v[2], v[3]}, true
}

// CropOptions controls padding and encoding of a crop
type CropOptions struct {
	FullWidth bool // Ignore the box's x range and take the whole image width
	PaddingY  int  // Symmetric vertical padding on the 0-1000 scale
	Quality   int  // JPEG quality, DefaultQuality when <= 0
}

// Padded applies the padding policy and clamps every edge to [0, Scale]
func (b Box) Padded(opts CropOptions) Box {
	yMin := clamp(b[0]-opts.PaddingY, 0, Scale)
	yMax := clamp(b[2]+opts.PaddingY, 0, Scale)

	var xMin, xMax int
	if opts.FullWidth {
		xMin, xMax = 0, Scale
	} else {
		xMin = clamp(b[1]-horizontalPadding, 0, Scale)
		xMax = clamp(b[3]+horizontalPadding, 0, Scale)
	}
	return Box{yMin, xMin, yMax, xMax}
}

// Crop cuts the padded box out of src and returns it JPEG-encoded.
// Degenerate regions return (nil, false).
func Crop(src image.Image, box Box, opts CropOptions) ([]byte, bool) {
	if src == nil {
		return nil, false
	}
	rect, ok := pixelRect(src.Bounds(), box.Padded(opts))
	if !ok {
		return nil, false
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)

	data, err := EncodeJPEG(dst, opts.Quality)
	if err != nil {
		return nil, false
	}
	return data, true
}

// pixelRect maps a padded 0-1000 box onto the image bounds
func pixelRect(bounds image.Rectangle, b Box) (image.Rectangle, bool) {
	if b[3] <= b[1] || b[2] <= b[0] {
		return image.Rectangle{}, false
	}

	w, h := bounds.Dx(), bounds.Dy()
	left := bounds.Min.X + b[1]*w/Scale
	right := bounds.Min.X + b[3]*w/Scale
	top := bounds.Min.Y + b[0]*h/Scale
	bottom := bounds.Min.Y + b[2]*h/Scale

	if right <= left || bottom <= top {
		return image.Rectangle{}, false
	}
	return image.Rect(left, top, right, bottom), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
