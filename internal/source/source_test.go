package source

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/Faultbox/depthmesh/pkg/depth"
)

// createDepthImage returns a 3x2 16-bit image with raw values
//
//	0    1000 2000
//	3000 0    65535
func createDepthImage() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, 3, 2))
	raw := []uint16{0, 1000, 2000, 3000, 0, 65535}
	for i, v := range raw {
		img.SetGray16(i%3, i/3, color.Gray16{Y: v})
	}
	return img
}

func createColorImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			img.SetRGBA(x, y, color.RGBA{R: uint8(i), G: uint8(10 * i), B: uint8(255 - i), A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestFromImage_Gray16(t *testing.T) {
	g := FromImage(createDepthImage(), Options{Scale: 0.001, Invalid: 0})

	require.NoError(t, g.Validate())
	assert.Equal(t, 3, g.Width)
	assert.Equal(t, 2, g.Height)
	assert.Equal(t, []bool{true, false, false, false, true, false}, g.Mask)
	assert.InDeltaSlice(t, []float32{0, 1, 2, 3, 0, 65.535}, g.Depth, 1e-5)
	assert.False(t, g.HasColor())
}

func TestFromImage_InvalidMarker(t *testing.T) {
	g := FromImage(createDepthImage(), Options{Scale: 1, Invalid: 65535})

	assert.Equal(t, []bool{false, false, false, false, false, true}, g.Mask)
	assert.Equal(t, float32(0), g.Depth[0], "zero is a real sample here")
	assert.Equal(t, float32(3000), g.Depth[3])
}

func TestFromImage_Gray8(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(1, 0, color.Gray{Y: 200})

	g := FromImage(img, Options{Scale: 0.5})
	assert.Equal(t, []bool{true, false}, g.Mask)
	assert.Equal(t, float32(100), g.Depth[1])
}

func TestFromImage_OffsetBounds(t *testing.T) {
	img := createDepthImage().SubImage(image.Rect(1, 0, 3, 2))

	g := FromImage(img, Options{Scale: 1})
	assert.Equal(t, 2, g.Width)
	assert.Equal(t, []float32{1000, 2000, 0, 65535}, g.Depth)
}

func TestAttachColor(t *testing.T) {
	g := FromImage(createDepthImage(), Options{Scale: 1})

	require.NoError(t, AttachColor(g, createColorImage(3, 2)))
	require.NoError(t, g.Validate())
	assert.True(t, g.HasColor())
	assert.Equal(t, []byte{
		0, 0, 255, 1, 10, 254, 2, 20, 253,
		3, 30, 252, 4, 40, 251, 5, 50, 250,
	}, g.Color)
}

func TestAttachColor_SizeMismatch(t *testing.T) {
	g := FromImage(createDepthImage(), Options{Scale: 1})

	err := AttachColor(g, createColorImage(2, 2))
	assert.ErrorIs(t, err, ErrSizeMismatch)
	assert.Nil(t, g.Color)
}

func TestAttachColor_TranslucentKeepsStraightColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(5, 5, 8, 7))
	for y := 5; y < 7; y++ {
		for x := 5; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
		}
	}
	img.SetNRGBA(7, 6, color.NRGBA{R: 10, G: 20, B: 30, A: 0})

	g := FromImage(createDepthImage(), Options{Scale: 1})
	require.NoError(t, AttachColor(g, img))
	assert.Equal(t, []byte{200, 100, 50}, g.Color[0:3])
	assert.Equal(t, []byte{10, 20, 30}, g.Color[15:18], "fully transparent pixels keep their color")

	// a PNG with an alpha channel decodes to the same straight colors
	path := filepath.Join(t.TempDir(), "color.png")
	writePNG(t, path, img)
	g, err := Load(path, "", Options{Scale: 1})
	require.NoError(t, err)
	decoded, err := imgio.Open(path)
	require.NoError(t, err)
	require.NoError(t, AttachColor(g, decoded))
	assert.Equal(t, []byte{200, 100, 50}, g.Color[3:6])
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	depthPath := filepath.Join(dir, "depth.png")
	colorPath := filepath.Join(dir, "color.png")
	writePNG(t, depthPath, createDepthImage())
	writePNG(t, colorPath, createColorImage(3, 2))

	g, err := Load(depthPath, colorPath, Options{Scale: 0.001})
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	assert.Equal(t, 4, g.ValidCount())
	assert.InDelta(t, 2.0, g.Depth[2], 1e-6)
	assert.Equal(t, []byte{5, 50, 250}, g.Color[15:18])

	// the grid feeds straight into the exporters
	out := filepath.Join(dir, "mesh.ply")
	require.NoError(t, depth.ExportMesh(out, g))
}

func TestLoad_TIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depth.tif")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, tiff.Encode(f, createDepthImage(), nil))
	require.NoError(t, f.Close())

	g, err := Load(path, "", Options{Scale: 1})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1000, 2000, 3000, 0, 65535}, g.Depth)
	assert.Nil(t, g.Color)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	depthPath := filepath.Join(dir, "depth.png")
	writePNG(t, depthPath, createDepthImage())

	_, err := Load(filepath.Join(dir, "missing.png"), "", Options{Scale: 1})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(depthPath, filepath.Join(dir, "missing.png"), Options{Scale: 1})
	assert.ErrorIs(t, err, os.ErrNotExist)

	small := filepath.Join(dir, "small.png")
	writePNG(t, small, createColorImage(1, 1))
	_, err = Load(depthPath, small, Options{Scale: 1})
	assert.ErrorIs(t, err, ErrSizeMismatch)

	junk := filepath.Join(dir, "junk.png")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0644))
	_, err = Load(junk, "", Options{Scale: 1})
	assert.Error(t, err)
}
