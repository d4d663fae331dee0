package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// ClipServer serves GIF bytes keyed by token at /<token>.gif and records the
// paths it was asked for.
type ClipServer struct {
	*httptest.Server

	mu       sync.Mutex
	clips    map[string][]byte
	requests []string
}

// NewClipServer starts a clip store serving clips. Unknown tokens get 404.
func NewClipServer(t testing.TB, clips map[string][]byte) *ClipServer {
	t.Helper()
	cs := &ClipServer{clips: clips}
	cs.Server = httptest.NewServer(http.HandlerFunc(cs.serve))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *ClipServer) serve(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".gif")
	cs.mu.Lock()
	cs.requests = append(cs.requests, token)
	data, ok := cs.clips[token]
	cs.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/gif")
	_, _ = w.Write(data)
}

// Requests returns the tokens requested so far, in arrival order.
func (cs *ClipServer) Requests() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]string(nil), cs.requests...)
}

// TranslateServer answers translation requests with a fixed grammar or status.
type TranslateServer struct {
	*httptest.Server

	mu    sync.Mutex
	texts []string
}

// NewTranslateServer starts a translation service. A status other than 200
// is returned with body as plain text; otherwise body is the sign grammar.
func NewTranslateServer(t testing.TB, status int, body string) *TranslateServer {
	t.Helper()
	ts := &TranslateServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		ts.mu.Lock()
		ts.texts = append(ts.texts, payload.Text)
		ts.mu.Unlock()

		if status != http.StatusOK {
			http.Error(w, body, status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"sign_grammar": body})
	}))
	t.Cleanup(ts.Close)
	return ts
}

// Texts returns the texts the service was asked to translate.
func (ts *TranslateServer) Texts() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]string(nil), ts.texts...)
}
