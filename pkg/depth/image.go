package depth

import (
	"image"
	"io"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/chewxy/math32"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

const (
	// jpegQuality is used for lossy depth previews.
	jpegQuality = 95
	// flatRange is the narrowest depth range that still gets a gradient.
	flatRange = 1.1920929e-07
)

// DepthImage renders the grid as 8-bit grayscale. Masked cells are 0 and
// valid cells map [min, max] onto [1, 255], clamped.
func DepthImage(g *Grid, min, max float32) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+g.Width]
		i := y * g.Width
		for x := range row {
			if g.Mask[i] {
				row[x] = 0
			} else {
				row[x] = depthLevel(g.Depth[i], min, max)
			}
			i++
		}
	}
	return img
}

// depthLevel maps one sample onto [1, 255]. A zero-width range maps every
// sample to 1; NaN samples also map to 1.
func depthLevel(d, min, max float32) uint8 {
	if math32.Abs(max-min) < flatRange || math32.IsNaN(d) {
		return 1
	}
	v := (d-min)/(max-min)*255 + 1
	return uint8(math32.Min(math32.Max(v, 1), 255))
}

// DepthRange returns the smallest and largest finite depth among valid
// cells. ok is false when there is none.
func DepthRange(g *Grid) (min, max float32, ok bool) {
	for i, masked := range g.Mask[:g.Len()] {
		d := g.Depth[i]
		if masked || math32.IsNaN(d) || math32.IsInf(d, 0) {
			continue
		}
		if !ok {
			min, max, ok = d, d, true
			continue
		}
		min = math32.Min(min, d)
		max = math32.Max(max, d)
	}
	return min, max, ok
}

// imageEncoder returns the encoder for a depth image extension.
func imageEncoder(ext string) (imgio.Encoder, bool) {
	switch ext {
	case "png":
		return imgio.PNGEncoder(), true
	case "jpg", "jpeg":
		return imgio.JPEGEncoder(jpegQuality), true
	case "bmp":
		return bmp.Encode, true
	case "tif", "tiff":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}, true
	default:
		return nil, false
	}
}
