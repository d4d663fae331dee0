package clip_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"testing"
	"time"

	"golang.org/x/image/draw"

	"signframes/internal/clip"
	"signframes/internal/testsupport"
)

var (
	red     = color.RGBA{R: 255, A: 255}
	blue    = color.RGBA{B: 255, A: 255}
	white   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	palette = color.Palette{red, blue, white}
)

func patch(rect image.Rectangle, idx uint8) *image.Paletted {
	img := image.NewPaletted(rect, palette)
	for i := range img.Pix {
		img.Pix[i] = idx
	}
	return img
}

func encode(t *testing.T, g *gif.GIF) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}

func rgba(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

// collect copies every composited frame, since Each reuses its canvas.
func collect(t *testing.T, anim *clip.Animation) []image.Image {
	t.Helper()
	var frames []image.Image
	err := anim.Each(func(img image.Image) error {
		dst := image.NewRGBA(img.Bounds())
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
		frames = append(frames, dst)
		return nil
	})
	if err != nil {
		t.Fatalf("Each returned error: %v", err)
	}
	return frames
}

func TestDecodeGIFReadsFramesAndDelay(t *testing.T) {
	anim, err := clip.DecodeGIF(testsupport.GIF(t, 10, 6, 3, 5), 0)
	if err != nil {
		t.Fatalf("DecodeGIF returned error: %v", err)
	}
	if anim.Len() != 3 {
		t.Fatalf("expected 3 frames, got %d", anim.Len())
	}
	if anim.Delay != 50*time.Millisecond {
		t.Fatalf("expected 50ms delay, got %v", anim.Delay)
	}
	frames := collect(t, anim)
	if len(frames) != 3 {
		t.Fatalf("expected 3 composited frames, got %d", len(frames))
	}
	if b := frames[0].Bounds(); b.Dx() != 10 || b.Dy() != 6 {
		t.Fatalf("unexpected frame bounds %v", b)
	}
}

func TestDecodeGIFZeroDelay(t *testing.T) {
	anim, err := clip.DecodeGIF(testsupport.GIF(t, 4, 4, 2, 0), 0)
	if err != nil {
		t.Fatalf("DecodeGIF returned error: %v", err)
	}
	if anim.Delay != 0 {
		t.Fatalf("expected zero delay, got %v", anim.Delay)
	}
}

func TestDecodeGIFCompositesPartialFrames(t *testing.T) {
	g := &gif.GIF{
		Image: []*image.Paletted{
			patch(image.Rect(0, 0, 4, 4), 0),
			patch(image.Rect(0, 0, 2, 2), 1),
			patch(image.Rect(2, 2, 4, 4), 2),
		},
		Delay:    []int{10, 10, 10},
		Disposal: []byte{gif.DisposalNone, gif.DisposalBackground, gif.DisposalNone},
		Config:   image.Config{ColorModel: palette, Width: 4, Height: 4},
	}

	anim, err := clip.DecodeGIF(encode(t, g), 0)
	if err != nil {
		t.Fatalf("DecodeGIF returned error: %v", err)
	}
	frames := collect(t, anim)
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}

	if got := rgba(frames[1], 0, 0); got != blue {
		t.Fatalf("frame 1 top-left = %v, want blue", got)
	}
	if got := rgba(frames[1], 3, 3); got != red {
		t.Fatalf("frame 1 keeps earlier pixels, got %v", got)
	}
	if got := rgba(frames[2], 0, 0); got.A != 0 {
		t.Fatalf("frame 2 top-left should be cleared by background disposal, got %v", got)
	}
	if got := rgba(frames[2], 3, 3); got != white {
		t.Fatalf("frame 2 bottom-right = %v, want white", got)
	}
	if got := rgba(frames[2], 3, 0); got != red {
		t.Fatalf("frame 2 untouched pixel = %v, want red", got)
	}
}

func TestDecodeGIFRestoresPreviousDisposal(t *testing.T) {
	g := &gif.GIF{
		Image: []*image.Paletted{
			patch(image.Rect(0, 0, 4, 4), 0),
			patch(image.Rect(0, 0, 2, 2), 1),
			patch(image.Rect(3, 3, 4, 4), 2),
		},
		Delay:    []int{10, 10, 10},
		Disposal: []byte{gif.DisposalNone, gif.DisposalPrevious, gif.DisposalNone},
		Config:   image.Config{ColorModel: palette, Width: 4, Height: 4},
	}

	anim, err := clip.DecodeGIF(encode(t, g), 0)
	if err != nil {
		t.Fatalf("DecodeGIF returned error: %v", err)
	}
	frames := collect(t, anim)
	if got := rgba(frames[1], 0, 0); got != blue {
		t.Fatalf("frame 1 top-left = %v, want blue", got)
	}
	if got := rgba(frames[2], 0, 0); got != red {
		t.Fatalf("frame 2 should restore red, got %v", got)
	}
}

func TestDecodeGIFRejectsGarbage(t *testing.T) {
	if _, err := clip.DecodeGIF([]byte("not a gif"), 0); err == nil {
		t.Fatal("expected error for invalid gif data")
	}
}

func hugeScreenGIF(t *testing.T, frames int) []byte {
	t.Helper()
	g := &gif.GIF{Config: image.Config{ColorModel: palette, Width: 4000, Height: 4000}}
	for i := 0; i < frames; i++ {
		g.Image = append(g.Image, patch(image.Rect(0, 0, 1, 1), 0))
		g.Delay = append(g.Delay, 10)
	}
	return encode(t, g)
}

func TestDecodeGIFRejectsOversizedScreen(t *testing.T) {
	data := hugeScreenGIF(t, 20)

	_, err := clip.DecodeGIF(data, 1<<20)
	if !errors.Is(err, clip.ErrSourceTooLarge) {
		t.Fatalf("expected ErrSourceTooLarge, got %v", err)
	}
	if _, err := clip.DecodeGIF(data, 0); !errors.Is(err, clip.ErrSourceTooLarge) {
		t.Fatalf("expected default limit to reject 4000x4000 screen, got %v", err)
	}
	if _, err := clip.DecodeGIF(data, 16_000_000); err != nil {
		t.Fatalf("expected screen within a raised limit to decode, got %v", err)
	}
}

func TestEachReusesOneCanvasAndStopsOnError(t *testing.T) {
	anim, err := clip.DecodeGIF(testsupport.GIF(t, 6, 6, 4, 5), 0)
	if err != nil {
		t.Fatalf("DecodeGIF returned error: %v", err)
	}

	var seen []image.Image
	stop := errors.New("stop")
	err = anim.Each(func(img image.Image) error {
		seen = append(seen, img)
		if len(seen) == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected Each to stop after 2 frames, got %d", len(seen))
	}
	if seen[0] != seen[1] {
		t.Fatal("expected frames to share one canvas")
	}
}
