package conversion

import (
	"image"
	"io"
)

// Transformer keeps the registered image sizes and performs the resize
// work behind them.
type Transformer interface {
	RegisterSize(name string, width, height int, crop bool)

	RemoveSize(name string)

	Sizes() map[string]Size

	ResizeImage(img image.Image, width, height int, crop bool) (image.Image, error)

	Decode(r io.Reader) (image.Image, error)

	Encode(w io.Writer, img image.Image, ext string, options ...Option) error
}

// Size is a named size every new attachment gets generated in.
type Size struct {
	Width  int
	Height int
	Crop   bool
}

type Option func(*Options)

type Options struct {
	Quality int
}

func WithQuality(quality int) Option {
	return func(o *Options) {
		o.Quality = quality
	}
}

func NewOptions(opts ...Option) *Options {
	options := &Options{
		Quality: 90,
	}

	for _, opt := range opts {
		opt(options)
	}

	return options
}
