package clip

// Frame is one normalized picture: base64 JPEG data and how long it is shown,
// in seconds.
type Frame struct {
	Data     string
	Duration float64
}

// Clip is an ordered run of frames for one token. The zero value is the empty
// clip, which callers treat as "no clip available".
type Clip struct {
	Frames []Frame
}

// Empty reports whether the clip has no frames.
func (c Clip) Empty() bool { return len(c.Frames) == 0 }

// Len returns the number of frames.
func (c Clip) Len() int { return len(c.Frames) }

// Data returns the frame payloads in order.
func (c Clip) Data() []string {
	out := make([]string, len(c.Frames))
	for i, f := range c.Frames {
		out[i] = f.Data
	}
	return out
}

// Durations returns the per-frame durations in seconds, in frame order.
func (c Clip) Durations() []float64 {
	out := make([]float64, len(c.Frames))
	for i, f := range c.Frames {
		out[i] = f.Duration
	}
	return out
}

// TotalDuration sums the frame durations in order.
func (c Clip) TotalDuration() float64 {
	var total float64
	for _, f := range c.Frames {
		total += f.Duration
	}
	return total
}

// Concat joins clips in argument order, skipping empty ones.
func Concat(clips ...Clip) Clip {
	n := 0
	for _, c := range clips {
		n += len(c.Frames)
	}
	if n == 0 {
		return Clip{}
	}
	frames := make([]Frame, 0, n)
	for _, c := range clips {
		frames = append(frames, c.Frames...)
	}
	return Clip{Frames: frames}
}
