package clip

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"time"

	"golang.org/x/image/draw"
)

// DefaultMaxSourcePixels caps the logical screen of a decoded GIF.
const DefaultMaxSourcePixels = 2048 * 2048

// ErrSourceTooLarge reports a GIF whose logical screen exceeds the pixel limit.
var ErrSourceTooLarge = errors.New("gif screen exceeds pixel limit")

// Animation is a decoded GIF. Frames are composited lazily by Each.
type Animation struct {
	g      *gif.GIF
	screen image.Rectangle
	// Delay is the first frame's delay, or zero when the file sets none.
	Delay time.Duration
}

// DecodeGIF decodes an animated GIF. The logical screen is checked against
// maxPixels before any frame data is decoded; non-positive maxPixels uses
// DefaultMaxSourcePixels.
func DecodeGIF(data []byte, maxPixels int) (*Animation, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxSourcePixels
	}
	cfg, err := gif.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	if err := checkPixels(cfg.Width, cfg.Height, maxPixels); err != nil {
		return nil, err
	}

	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("decode gif: no frames")
	}

	screen := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if screen.Empty() {
		for _, frame := range g.Image {
			screen = screen.Union(frame.Bounds())
		}
		if err := checkPixels(screen.Dx(), screen.Dy(), maxPixels); err != nil {
			return nil, err
		}
	}

	anim := &Animation{g: g, screen: screen}
	if len(g.Delay) > 0 && g.Delay[0] > 0 {
		anim.Delay = time.Duration(g.Delay[0]) * 10 * time.Millisecond
	}
	return anim, nil
}

// Len returns the number of frames.
func (a *Animation) Len() int { return len(a.g.Image) }

// Bounds returns the logical screen every frame is composited onto.
func (a *Animation) Bounds() image.Rectangle { return a.screen }

// Each composites frames in order onto the logical screen, honouring the
// per-frame disposal method, and calls fn with each one. The image passed to
// fn is reused and is only valid until fn returns. Each stops at the first
// error from fn and returns it.
func (a *Animation) Each(fn func(image.Image) error) error {
	canvas := image.NewRGBA(a.screen)
	var saved *image.RGBA
	for i, frame := range a.g.Image {
		var disposal byte
		if i < len(a.g.Disposal) {
			disposal = a.g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			if saved == nil {
				saved = image.NewRGBA(a.screen)
			}
			copy(saved.Pix, canvas.Pix)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		if err := fn(canvas); err != nil {
			return err
		}

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			copy(canvas.Pix, saved.Pix)
		}
	}
	return nil
}

func checkPixels(w, h, maxPixels int) error {
	if int64(w)*int64(h) > int64(maxPixels) {
		return fmt.Errorf("%w: %dx%d (limit %d pixels)", ErrSourceTooLarge, w, h, maxPixels)
	}
	return nil
}
