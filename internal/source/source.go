// Package source builds depth grids from image files.
//
// Depth comes from a single-channel image, normally 16-bit grayscale PNG or
// TIFF as written by depth cameras. Every raw value is multiplied by a scale
// factor; cells holding the invalid marker are masked.
package source

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration

	"github.com/anthonynsimon/bild/imgio"
	_ "golang.org/x/image/bmp"  // BMP decoder registration
	_ "golang.org/x/image/tiff" // TIFF decoder registration

	"github.com/Faultbox/depthmesh/pkg/depth"
)

// ErrSizeMismatch is returned when the color image does not cover the depth
// image exactly.
var ErrSizeMismatch = errors.New("color image size does not match depth image")

// Options controls how raw image values become depth samples.
type Options struct {
	Scale   float32 // depth units per raw value
	Invalid uint16  // raw value marking a masked cell
}

// Load reads the depth image at depthPath and, when colorPath is not empty,
// attaches the colors of the image at colorPath.
func Load(depthPath, colorPath string, opts Options) (*depth.Grid, error) {
	img, err := imgio.Open(depthPath)
	if err != nil {
		return nil, fmt.Errorf("reading depth image %s: %w", depthPath, err)
	}
	g := FromImage(img, opts)

	if colorPath == "" {
		return g, nil
	}
	colors, err := imgio.Open(colorPath)
	if err != nil {
		return nil, fmt.Errorf("reading color image %s: %w", colorPath, err)
	}
	if err := AttachColor(g, colors); err != nil {
		return nil, fmt.Errorf("%s: %w", colorPath, err)
	}
	return g, nil
}

// FromImage converts a grayscale image into a grid. 8-bit gray images are
// read as raw 0..255 values; any other image goes through the 16-bit gray
// model.
func FromImage(img image.Image, opts Options) *depth.Grid {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	mask := make([]bool, w*h)
	samples := make([]float32, w*h)

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			raw := rawValue(img, x, y)
			if raw == opts.Invalid {
				mask[i] = true
			} else {
				samples[i] = float32(raw) * opts.Scale
			}
			i++
		}
	}
	return depth.NewGrid(w, h, mask, samples, nil)
}

// rawValue reads one sample without scaling.
func rawValue(img image.Image, x, y int) uint16 {
	switch m := img.(type) {
	case *image.Gray16:
		return m.Gray16At(x, y).Y
	case *image.Gray:
		return uint16(m.GrayAt(x, y).Y)
	default:
		return color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y
	}
}

// AttachColor copies the RGB channels of img into g.Color. Alpha is dropped
// without darkening the channels: a translucent pixel keeps its straight
// (non-premultiplied) color.
func AttachColor(g *depth.Grid, img image.Image) error {
	b := img.Bounds()
	if b.Dx() != g.Width || b.Dy() != g.Height {
		return fmt.Errorf("%w: %dx%d, want %dx%d", ErrSizeMismatch, b.Dx(), b.Dy(), g.Width, g.Height)
	}

	nrgba := toNRGBA(img)
	colors := make([]byte, 0, g.Len()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			o := nrgba.PixOffset(x, y)
			colors = append(colors, nrgba.Pix[o], nrgba.Pix[o+1], nrgba.Pix[o+2])
		}
	}
	g.Color = colors
	return nil
}

// toNRGBA returns img with straight alpha, keeping its bounds.
func toNRGBA(img image.Image) *image.NRGBA {
	if m, ok := img.(*image.NRGBA); ok {
		return m
	}
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}
