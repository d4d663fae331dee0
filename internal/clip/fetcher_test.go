package clip_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"signframes/internal/clip"
	"signframes/internal/frame"
	"signframes/internal/logging"
	"signframes/internal/services"
	"signframes/internal/testsupport"
)

type mapSource struct {
	mu    sync.Mutex
	clips map[string][]byte
	errs  map[string]error
	calls []string
}

func (s *mapSource) Get(_ context.Context, token string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, token)
	if err, ok := s.errs[token]; ok {
		return nil, err
	}
	data, ok := s.clips[token]
	if !ok {
		return nil, fmt.Errorf("clip %q: %w", token, services.ErrNotFound)
	}
	return data, nil
}

func TestFetchNormalizesEveryFrame(t *testing.T) {
	source := &mapSource{clips: map[string][]byte{"hello": testsupport.GIF(t, 20, 10, 3, 5)}}
	fetcher := clip.NewFetcher(source, frame.NewNormalizer(480, 75))

	got := fetcher.Fetch(context.Background(), "hello")
	if got.Len() != 3 {
		t.Fatalf("expected 3 frames, got %d", got.Len())
	}
	for i, f := range got.Frames {
		if f.Duration != 0.05 {
			t.Fatalf("frame %d duration = %v, want 0.05", i, f.Duration)
		}
		raw, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			t.Fatalf("frame %d is not base64: %v", i, err)
		}
		img, err := jpeg.Decode(bytes.NewReader(raw))
		if err != nil {
			t.Fatalf("frame %d is not jpeg: %v", i, err)
		}
		if b := img.Bounds(); b.Dy() != 480 || b.Dx() != 960 {
			t.Fatalf("frame %d bounds = %v, want 960x480", i, b)
		}
	}
}

func TestFetchUsesDefaultDurationWhenDelayMissing(t *testing.T) {
	source := &mapSource{clips: map[string][]byte{"a": testsupport.GIF(t, 4, 4, 2, 0)}}

	got := clip.NewFetcher(source, nil).Fetch(context.Background(), "a")
	if got.Len() != 2 {
		t.Fatalf("expected 2 frames, got %d", got.Len())
	}
	for _, d := range got.Durations() {
		if d != 0.1 {
			t.Fatalf("expected default 0.1s, got %v", d)
		}
	}

	custom := clip.NewFetcher(source, nil, clip.WithDefaultFrameDuration(250*time.Millisecond)).Fetch(context.Background(), "a")
	for _, d := range custom.Durations() {
		if d != 0.25 {
			t.Fatalf("expected configured 0.25s, got %v", d)
		}
	}
}

func TestFetchReturnsEmptyClipOnFailure(t *testing.T) {
	source := &mapSource{
		clips: map[string][]byte{"broken": []byte("GIF89a garbage")},
		errs:  map[string]error{"flaky": errors.New("connection reset")},
	}
	fetcher := clip.NewFetcher(source, nil)

	for _, token := range []string{"missing", "broken", "flaky"} {
		if got := fetcher.Fetch(context.Background(), token); !got.Empty() {
			t.Fatalf("expected empty clip for %q, got %d frames", token, got.Len())
		}
	}
	if got := fetcher.Fetch(context.Background(), ""); !got.Empty() {
		t.Fatal("expected empty clip for blank token")
	}
}

func TestFetchLogsUnavailableClip(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "fetch.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	source := &mapSource{errs: map[string]error{"hello": errors.New("dial tcp: refused")}}
	fetcher := clip.NewFetcher(source, nil, clip.WithLogger(logger))

	ctx := services.WithRequestID(context.Background(), "req-1")
	if got := fetcher.Fetch(ctx, "hello"); !got.Empty() {
		t.Fatal("expected empty clip")
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(content)
	for _, fragment := range []string{`"event_type":"clip_unavailable"`, `"token":"hello"`, `"correlation_id":"req-1"`, `"component":"clip-fetcher"`} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %s in log line %s", fragment, line)
		}
	}
}

func TestFetchCancelledContextYieldsEmptyClip(t *testing.T) {
	source := &mapSource{clips: map[string][]byte{"hello": testsupport.GIF(t, 8, 8, 4, 5)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := clip.NewFetcher(source, nil).Fetch(ctx, "hello"); !got.Empty() {
		t.Fatalf("expected empty clip after cancellation, got %d frames", got.Len())
	}
}

func encodeGIF(t *testing.T, g *gif.GIF) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}

func TestFetchReturnsEmptyClipForOversizedImages(t *testing.T) {
	pal := color.Palette{color.Black, color.White}
	hugeScreen := &gif.GIF{Config: image.Config{ColorModel: pal, Width: 4000, Height: 4000}}
	for i := 0; i < 20; i++ {
		hugeScreen.Image = append(hugeScreen.Image, image.NewPaletted(image.Rect(0, 0, 1, 1), pal))
		hugeScreen.Delay = append(hugeScreen.Delay, 10)
	}
	sliver := &gif.GIF{
		Image: []*image.Paletted{image.NewPaletted(image.Rect(0, 0, 400, 1), pal)},
		Delay: []int{10},
	}
	source := &mapSource{clips: map[string][]byte{
		"screen": encodeGIF(t, hugeScreen),
		"sliver": encodeGIF(t, sliver),
	}}
	fetcher := clip.NewFetcher(source, nil, clip.WithMaxSourcePixels(1<<20))

	for _, token := range []string{"screen", "sliver"} {
		if got := fetcher.Fetch(context.Background(), token); !got.Empty() {
			t.Fatalf("expected empty clip for %q, got %d frames", token, got.Len())
		}
	}
}
