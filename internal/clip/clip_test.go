package clip_test

import (
	"testing"

	"signframes/internal/clip"
)

func TestClipAccessorsStayAligned(t *testing.T) {
	c := clip.Clip{Frames: []clip.Frame{{Data: "a", Duration: 0.1}, {Data: "b", Duration: 0.2}}}
	if c.Empty() || c.Len() != 2 {
		t.Fatalf("unexpected clip shape: %+v", c)
	}
	data, durations := c.Data(), c.Durations()
	if len(data) != len(durations) {
		t.Fatalf("frames and durations differ: %d vs %d", len(data), len(durations))
	}
	if data[1] != "b" || durations[1] != 0.2 {
		t.Fatalf("unexpected order: %v %v", data, durations)
	}
	if got := c.TotalDuration(); got < 0.3-1e-9 || got > 0.3+1e-9 {
		t.Fatalf("unexpected total: %v", got)
	}
}

func TestConcatSkipsEmptyAndKeepsOrder(t *testing.T) {
	h := clip.Clip{Frames: []clip.Frame{{Data: "h1", Duration: 0.1}, {Data: "h2", Duration: 0.1}}}
	i := clip.Clip{Frames: []clip.Frame{{Data: "i1", Duration: 0.05}}}

	joined := clip.Concat(h, clip.Clip{}, i)
	want := []string{"h1", "h2", "i1"}
	got := joined.Data()
	if len(got) != len(want) {
		t.Fatalf("unexpected frames: %v", got)
	}
	for idx := range want {
		if got[idx] != want[idx] {
			t.Fatalf("frame %d = %q, want %q", idx, got[idx], want[idx])
		}
	}

	if !clip.Concat().Empty() || !clip.Concat(clip.Clip{}, clip.Clip{}).Empty() {
		t.Fatal("expected concat of nothing to be empty")
	}
}
