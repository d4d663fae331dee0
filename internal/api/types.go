package api

import (
	"strings"

	"signframes/internal/services"
	"signframes/internal/timeline"
)

// FramesRequest is the body of POST /get_frames.
type FramesRequest struct {
	Text string `json:"text"`
}

// Validate rejects missing or blank text.
func (r FramesRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return services.Wrap(services.ErrInvalidInput, "frames", "validate", "text is empty", nil)
	}
	return nil
}

// WordFrames is one token's frames and per-frame durations in seconds.
type WordFrames struct {
	Word      string    `json:"word"`
	Frames    []string  `json:"frames"`
	Durations []float64 `json:"durations"`
}

// FramesResponse is the 200 body of POST /get_frames.
type FramesResponse struct {
	OriginalText  string       `json:"original_text"`
	SignGrammar   string       `json:"sign_grammar"`
	Frames        []WordFrames `json:"frames"`
	TotalDuration float64      `json:"total_duration"`
}

// FromTimeline converts a timeline to its wire form. Words without a clip
// carry empty, non-null lists.
func FromTimeline(tl *timeline.Timeline) FramesResponse {
	resp := FramesResponse{
		OriginalText:  tl.OriginalText,
		SignGrammar:   tl.SignGrammar,
		Frames:        make([]WordFrames, len(tl.Words)),
		TotalDuration: tl.TotalDuration,
	}
	for i, w := range tl.Words {
		resp.Frames[i] = WordFrames{
			Word:      w.Token,
			Frames:    w.Clip.Data(),
			Durations: w.Clip.Durations(),
		}
	}
	return resp
}

// ErrorResponse is the body of every non-200 answer.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
