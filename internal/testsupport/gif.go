package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"
)

// GIF encodes an animation of the given size with frameCount solid frames.
// delay is in hundredths of a second and applies to every frame.
func GIF(t testing.TB, width, height, frameCount, delay int) []byte {
	t.Helper()

	palette := color.Palette{color.Black, color.White, color.RGBA{R: 255, A: 255}, color.RGBA{B: 255, A: 255}}
	anim := &gif.GIF{}
	for i := 0; i < frameCount; i++ {
		img := image.NewPaletted(image.Rect(0, 0, width, height), palette)
		idx := uint8(i % len(palette))
		for p := range img.Pix {
			img.Pix[p] = idx
		}
		anim.Image = append(anim.Image, img)
		anim.Delay = append(anim.Delay, delay)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}
