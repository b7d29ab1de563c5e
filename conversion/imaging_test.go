package conversion

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResizeDimensions(t *testing.T) {
	tests := []struct {
		name         string
		origW, origH int
		destW, destH int
		crop         bool
		wantW, wantH int
		wantOK       bool
	}{
		{"crop exact", 800, 600, 100, 100, true, 100, 100, true},
		{"crop width only", 800, 600, 400, 0, true, 400, 300, true},
		{"crop clamps to original", 50, 200, 100, 100, true, 50, 100, true},
		{"crop larger than original", 80, 60, 100, 100, true, 0, 0, false},
		{"fit within box", 800, 600, 300, 300, false, 300, 225, true},
		{"fit height only", 800, 600, 0, 300, false, 400, 300, true},
		{"no upscale", 100, 100, 300, 300, false, 0, 0, false},
		{"both zero", 800, 600, 0, 0, true, 0, 0, false},
		{"bad original", 0, 600, 100, 100, true, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, ok := ResizeDimensions(tt.origW, tt.origH, tt.destW, tt.destH, tt.crop)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestIntermediateFileName(t *testing.T) {
	assert.Equal(t, "image-100x80.png", IntermediateFileName("2012/03/image.png", 100, 80))
	assert.Equal(t, "photo.final-10x10.jpg", IntermediateFileName("photo.final.jpg", 10, 10))
}

func TestImagingTransformer_ResizeImage(t *testing.T) {
	tr := NewImagingTransformer()
	src := imaging.New(400, 200, color.NRGBA{R: 255, A: 255})

	out, err := tr.ResizeImage(src, 100, 100, true)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), out.Bounds())

	out, err = tr.ResizeImage(src, 100, 100, false)
	require.NoError(t, err)
	assert.Equal(t, 100, out.Bounds().Dx())
	assert.Equal(t, 50, out.Bounds().Dy())

	_, err = tr.ResizeImage(src, 800, 800, true)
	assert.ErrorIs(t, err, ErrNoResizeNeeded)
}

func TestImagingTransformer_EncodeDecode(t *testing.T) {
	tr := NewImagingTransformer()
	src := imaging.New(20, 10, color.NRGBA{B: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, tr.Encode(&buf, src, ".png"))

	img, err := tr.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 10, img.Bounds().Dy())
}

func TestImagingTransformer_Sizes(t *testing.T) {
	tr := NewImagingTransformer()
	tr.DefaultSizes()

	sizes := tr.Sizes()
	assert.Len(t, sizes, 3)
	assert.Equal(t, Size{Width: 150, Height: 150, Crop: true}, sizes["thumbnail"])

	sizes["thumbnail"] = Size{}
	assert.Equal(t, 150, tr.Sizes()["thumbnail"].Width)

	tr.RemoveSize("large")
	assert.NotContains(t, tr.Sizes(), "large")
}
