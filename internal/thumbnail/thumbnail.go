// Package thumbnail keeps stored profile images within a square bounding box.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/yukikurage/group-chat-api/internal/storage"
	_ "golang.org/x/image/webp" // register the WebP decoder for uploads
)

// DecodeError reports stored bytes that are not a decodable image.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("thumbnail: cannot decode image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err (or anything it wraps) is a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// DefaultMaxPixels caps width*height of images the normalizer will decode.
const DefaultMaxPixels = 89478485

// ErrTooManyPixels is wrapped in a *DecodeError when an image header
// declares more pixels than the normalizer accepts.
var ErrTooManyPixels = errors.New("image dimensions exceed the pixel limit")

// Normalizer shrinks stored images whose width or height exceeds the
// configured maximum dimension.
type Normalizer struct {
	store        storage.Storage
	maxDimension int
	maxPixels    int64
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithMaxPixels overrides DefaultMaxPixels; values <= 0 keep the default.
func WithMaxPixels(n int64) Option {
	return func(nz *Normalizer) {
		if n > 0 {
			nz.maxPixels = n
		}
	}
}

func NewNormalizer(store storage.Storage, maxDimension int, opts ...Option) *Normalizer {
	n := &Normalizer{store: store, maxDimension: maxDimension, maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize decodes the image stored at path and, when either side exceeds
// the maximum, overwrites it with a PNG thumbnail that fits inside a
// max x max box. Images already within bounds are left byte-for-byte
// untouched. Only the header is read before the pixel limit is enforced.
// It reports whether the blob was rewritten.
func (n *Normalizer) Normalize(ctx context.Context, path string) (bool, error) {
	r, err := n.store.Open(ctx, path)
	if err != nil {
		return false, fmt.Errorf("thumbnail: open %s: %w", path, err)
	}
	defer r.Close()

	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return false, &DecodeError{Path: path, Err: err}
	}
	if int64(cfg.Width)*int64(cfg.Height) > n.maxPixels {
		return false, &DecodeError{
			Path: path,
			Err:  fmt.Errorf("%w: %dx%d > %d", ErrTooManyPixels, cfg.Width, cfg.Height, n.maxPixels),
		}
	}
	if cfg.Width <= n.maxDimension && cfg.Height <= n.maxDimension {
		return false, nil
	}

	img, err := imaging.Decode(io.MultiReader(&header, r))
	if err != nil {
		return false, &DecodeError{Path: path, Err: err}
	}

	bounds := img.Bounds()
	w, h, resize := FitSize(bounds.Dx(), bounds.Dy(), n.maxDimension)
	if !resize {
		return false, nil
	}

	thumb := imaging.Resize(img, w, h, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return false, fmt.Errorf("thumbnail: encode %s: %w", path, err)
	}

	out, err := n.store.Create(ctx, path)
	if err != nil {
		return false, fmt.Errorf("thumbnail: open %s for writing: %w", path, err)
	}
	if _, err := out.Write(buf.Bytes()); err != nil {
		_ = out.Close()
		return false, fmt.Errorf("thumbnail: write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return false, fmt.Errorf("thumbnail: write %s: %w", path, err)
	}

	return true, nil
}

// FitSize returns the size of a width x height image scaled down to fit a
// limit x limit box with its aspect ratio kept, and whether scaling is needed.
// The longer side becomes limit; the shorter one is rounded and never below 1.
func FitSize(width, height, limit int) (int, int, bool) {
	if width <= limit && height <= limit {
		return width, height, false
	}
	if width >= height {
		return limit, scaleSide(height, width, limit), true
	}
	return scaleSide(width, height, limit), limit, true
}

func scaleSide(side, longest, limit int) int {
	scaled := int(math.Round(float64(side) * float64(limit) / float64(longest)))
	if scaled < 1 {
		return 1
	}
	return scaled
}
