package frame

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"
)

const (
	// DefaultTargetHeight is the pixel height every emitted frame is scaled to.
	DefaultTargetHeight = 480
	// DefaultQuality is the JPEG quality used for emitted frames.
	DefaultQuality = 75
	// DefaultMaxPixels caps the area of a resized frame.
	DefaultMaxPixels = 8 << 20

	// maxJPEGDimension is the largest width or height image/jpeg will encode.
	maxJPEGDimension = 65535
)

// ErrFrameTooLarge reports a frame whose resized dimensions cannot be encoded
// within the configured limits.
var ErrFrameTooLarge = errors.New("resized frame exceeds size limit")

// Normalizer rescales decoded frames to a fixed height and encodes them as
// base64 JPEG strings.
type Normalizer struct {
	TargetHeight int
	Quality      int
	// Background replaces transparent pixels, since JPEG carries no alpha.
	Background color.Color
	// MaxPixels bounds width*height of the resized frame.
	MaxPixels int
}

// NewNormalizer returns a normalizer using the given target height and JPEG
// quality. Non-positive values fall back to the defaults.
func NewNormalizer(targetHeight, quality int) *Normalizer {
	if targetHeight <= 0 {
		targetHeight = DefaultTargetHeight
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Normalizer{TargetHeight: targetHeight, Quality: quality, Background: color.White, MaxPixels: DefaultMaxPixels}
}

// ScaledWidth returns the width that preserves the aspect ratio of a w×h
// image scaled to targetHeight. The result is never below 1.
func ScaledWidth(w, h, targetHeight int) int {
	if w <= 0 || h <= 0 || targetHeight <= 0 {
		return 1
	}
	width := int(math.Round(float64(targetHeight) * float64(w) / float64(h)))
	if width < 1 {
		return 1
	}
	return width
}

// Resize scales src to the target height on an opaque background.
func (n *Normalizer) Resize(src image.Image) (*image.RGBA, error) {
	if src == nil {
		return nil, fmt.Errorf("resize frame: nil image")
	}
	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("resize frame: empty bounds %v", bounds)
	}
	height := n.height()
	width := ScaledWidth(bounds.Dx(), bounds.Dy(), height)
	if err := n.checkSize(width, height); err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	bg := n.Background
	if bg == nil {
		bg = color.White
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst, nil
}

// EncodeJPEG resizes src and returns the JPEG bytes.
func (n *Normalizer) EncodeJPEG(src image.Image) ([]byte, error) {
	resized, err := n.Resize(src)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: n.quality()}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Normalize resizes src and returns the JPEG as standard padded base64.
func (n *Normalizer) Normalize(src image.Image) (string, error) {
	data, err := n.EncodeJPEG(src)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (n *Normalizer) checkSize(width, height int) error {
	limit := int64(DefaultMaxPixels)
	if n != nil && n.MaxPixels > 0 {
		limit = int64(n.MaxPixels)
	}
	if width > maxJPEGDimension || height > maxJPEGDimension || int64(width)*int64(height) > limit {
		return fmt.Errorf("resize frame: %w: %dx%d (limit %d pixels)", ErrFrameTooLarge, width, height, limit)
	}
	return nil
}

func (n *Normalizer) height() int {
	if n == nil || n.TargetHeight <= 0 {
		return DefaultTargetHeight
	}
	return n.TargetHeight
}

func (n *Normalizer) quality() int {
	if n == nil || n.Quality <= 0 || n.Quality > 100 {
		return DefaultQuality
	}
	return n.Quality
}
