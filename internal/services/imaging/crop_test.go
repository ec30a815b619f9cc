package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}
	return img
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestCrop_FullWidthGeometry(t *testing.T) {
	src := newTestImage(1000, 2000)

	data, ok := Crop(src, Box{100, 300, 200, 700}, CropOptions{FullWidth: true, PaddingY: 50})
	require.True(t, ok)

	w, h := decodedSize(t, data)
	assert.Equal(t, 1000, w, "full width ignores the box x range")
	assert.Equal(t, 400, h, "y in [50,250] on a 2000px page is 400 rows")
}

func TestCrop_BoxWidthWithHorizontalPadding(t *testing.T) {
	src := newTestImage(1000, 1000)

	data, ok := Crop(src, Box{100, 300, 200, 700}, CropOptions{PaddingY: 5})
	require.True(t, ok)

	w, h := decodedSize(t, data)
	assert.Equal(t, 420, w)
	assert.Equal(t, 110, h)
}

func TestCrop_Deterministic(t *testing.T) {
	src := newTestImage(300, 500)
	opts := CropOptions{PaddingY: 20, Quality: 70}

	first, ok := Crop(src, Box{10, 10, 400, 900}, opts)
	require.True(t, ok)
	for i := 0; i < 3; i++ {
		again, ok := Crop(src, Box{10, 10, 400, 900}, opts)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestCrop_Degenerate(t *testing.T) {
	src := newTestImage(200, 200)

	tests := []struct {
		name string
		box  Box
		opts CropOptions
	}{
		{"inverted y", Box{500, 100, 100, 900}, CropOptions{}},
		{"inverted x", Box{100, 900, 500, 100}, CropOptions{}},
		{"zero height", Box{300, 100, 300, 900}, CropOptions{}},
		{"entirely below page", Box{1200, 0, 1500, 1000}, CropOptions{}},
		{"entirely left of page", Box{0, -500, 1000, -100}, CropOptions{}},
		{"collapses to sub-pixel", Box{500, 500, 501, 501}, CropOptions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ok := Crop(src, tt.box, tt.opts)
			assert.False(t, ok)
			assert.Nil(t, data)
		})
	}

	data, ok := Crop(nil, Box{0, 0, 1000, 1000}, CropOptions{})
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestPadded_Clamps(t *testing.T) {
	for _, pad := range []int{0, 5, 150, 999, 5000} {
		for _, b := range []Box{{0, 0, 1000, 1000}, {-40, -40, 1400, 1400}, {990, 3, 995, 997}} {
			p := b.Padded(CropOptions{PaddingY: pad})
			for i, v := range p {
				assert.GreaterOrEqual(t, v, 0, "edge %d", i)
				assert.LessOrEqual(t, v, Scale, "edge %d", i)
			}
		}
	}

	p := Box{20, 300, 990, 700}.Padded(CropOptions{PaddingY: 50, FullWidth: true})
	assert.Equal(t, Box{0, 0, 1000, 1000}, p)
}

func TestBoxFromSlice(t *testing.T) {
	b, ok := BoxFromSlice([]int{1, 2, 3, 4})
	assert.True(t, ok)
	assert.Equal(t, Box{1, 2, 3, 4}, b)

	_, ok = BoxFromSlice([]int{1, 2, 3})
	assert.False(t, ok)
}

func TestFitWithin(t *testing.T) {
	src := newTestImage(400, 200)

	assert.Same(t, src, FitWithin(src, 0))
	assert.Same(t, src, FitWithin(src, 400))

	small := FitWithin(src, 100)
	assert.Equal(t, 100, small.Bounds().Dx())
	assert.Equal(t, 50, small.Bounds().Dy())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data, err := EncodeJPEG(newTestImage(32, 16), 0)
	require.NoError(t, err)

	img, format, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 32, img.Bounds().Dx())

	_, _, err = Decode([]byte("not an image"))
	assert.Error(t, err)
}
