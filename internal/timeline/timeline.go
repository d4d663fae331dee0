package timeline

import "signframes/internal/clip"

// WordEntry pairs a token with its resolved clip.
type WordEntry struct {
	Token string
	Clip  clip.Clip
}

// Timeline is the ordered result for one request.
type Timeline struct {
	OriginalText  string
	SignGrammar   string
	Words         []WordEntry
	TotalDuration float64
}

// FrameCount returns the number of frames across all words.
func (t *Timeline) FrameCount() int {
	n := 0
	for _, w := range t.Words {
		n += w.Clip.Len()
	}
	return n
}

func totalDuration(words []WordEntry) float64 {
	var total float64
	for _, w := range words {
		total += w.Clip.TotalDuration()
	}
	return total
}
