package conversion

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// ErrNoResizeNeeded is returned when the requested size would not make the
// image any smaller.
var ErrNoResizeNeeded = errors.New("image already fits the requested size")

type ImagingTransformer struct {
	sizes map[string]Size
	mu    sync.RWMutex
}

func NewImagingTransformer() *ImagingTransformer {
	return &ImagingTransformer{
		sizes: make(map[string]Size),
	}
}

func (t *ImagingTransformer) RegisterSize(name string, width, height int, crop bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sizes[name] = Size{Width: width, Height: height, Crop: crop}
}

func (t *ImagingTransformer) RemoveSize(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.sizes, name)
}

func (t *ImagingTransformer) Sizes() map[string]Size {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]Size, len(t.sizes))
	for k, v := range t.sizes {
		result[k] = v
	}

	return result
}

// DefaultSizes registers thumbnail, medium and large.
func (t *ImagingTransformer) DefaultSizes() {
	t.RegisterSize("thumbnail", 150, 150, true)
	t.RegisterSize("medium", 300, 300, false)
	t.RegisterSize("large", 1024, 1024, false)
}

// ResizeImage scales img down to width x height. Either dimension may be 0,
// in which case it follows the aspect ratio. Images are never upscaled.
func (t *ImagingTransformer) ResizeImage(img image.Image, width, height int, crop bool) (image.Image, error) {
	bounds := img.Bounds()
	w, h, ok := ResizeDimensions(bounds.Dx(), bounds.Dy(), width, height, crop)
	if !ok {
		return nil, ErrNoResizeNeeded
	}

	if crop {
		return imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos), nil
	}

	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}

func (t *ImagingTransformer) Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func (t *ImagingTransformer) Encode(w io.Writer, img image.Image, ext string, options ...Option) error {
	opts := NewOptions(options...)

	format, err := imaging.FormatFromExtension(strings.TrimPrefix(ext, "."))
	if err != nil {
		format = imaging.JPEG
	}

	if err := imaging.Encode(w, img, format, imaging.JPEGQuality(opts.Quality)); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// ResizeDimensions computes the size of a resized copy. ok is false when
// the inputs are unusable or the result would not be smaller than the
// original in at least one dimension.
func ResizeDimensions(origW, origH, destW, destH int, crop bool) (int, int, bool) {
	if origW <= 0 || origH <= 0 {
		return 0, 0, false
	}
	if destW <= 0 && destH <= 0 {
		return 0, 0, false
	}

	var newW, newH int
	if crop {
		aspect := float64(origW) / float64(origH)

		newW = min(destW, origW)
		newH = min(destH, origH)

		if newW <= 0 {
			newW = int(math.Round(float64(newH) * aspect))
		}
		if newH <= 0 {
			newH = int(math.Round(float64(newW) / aspect))
		}
	} else {
		newW, newH = ConstrainDimensions(origW, origH, destW, destH)
	}

	newW = max(newW, 1)
	newH = max(newH, 1)

	if newW >= origW && newH >= origH {
		return 0, 0, false
	}

	return newW, newH, true
}

// ConstrainDimensions scales w x h down proportionally until it fits inside
// maxW x maxH. A zero bound is unconstrained.
func ConstrainDimensions(w, h, maxW, maxH int) (int, int) {
	ratio := 1.0
	if maxW > 0 && w > maxW {
		ratio = math.Min(ratio, float64(maxW)/float64(w))
	}
	if maxH > 0 && h > maxH {
		ratio = math.Min(ratio, float64(maxH)/float64(h))
	}

	return int(math.Round(float64(w) * ratio)), int(math.Round(float64(h) * ratio))
}

// IntermediateFileName returns the base name of a resized copy of file,
// e.g. image.png at 100x80 becomes image-100x80.png.
func IntermediateFileName(file string, width, height int) string {
	base := filepath.Base(file)
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s-%dx%d%s", strings.TrimSuffix(base, ext), width, height, ext)
}
