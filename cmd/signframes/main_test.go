package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"signframes/internal/api"
	"signframes/internal/config"
	"signframes/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	clips      *testsupport.ClipServer
	translator *testsupport.TranslateServer
}

func setupCLITestEnv(t *testing.T, grammar string, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	clips := testsupport.NewClipServer(t, map[string][]byte{
		"hi": testsupport.GIF(t, 40, 20, 2, 10),
		"t":  testsupport.GIF(t, 40, 20, 1, 10),
		"o":  testsupport.GIF(t, 40, 20, 1, 10),
	})
	translator := testsupport.NewTranslateServer(t, http.StatusOK, grammar)
	opts = append([]testsupport.ConfigOption{
		testsupport.WithClipStore(clips.URL),
		testsupport.WithTranslationURL(translator.URL),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, clips: clips, translator: translator}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestRenderJSON(t *testing.T) {
	env := setupCLITestEnv(t, "HI TO")

	out, _, err := runCLI(t, []string{"render", "--format", "json", "hi", "there"}, env.configPath)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var resp api.FramesResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode render output: %v\n%s", err, out)
	}
	if resp.OriginalText != "hi there" {
		t.Fatalf("expected joined args as text, got %q", resp.OriginalText)
	}
	if len(resp.Frames) != 2 {
		t.Fatalf("expected 2 words, got %d", len(resp.Frames))
	}
	if resp.Frames[0].Word != "hi" || len(resp.Frames[0].Frames) != 2 {
		t.Fatalf("unexpected first word %+v", resp.Frames[0].Word)
	}
	if resp.Frames[1].Word != "to" || len(resp.Frames[1].Frames) != 2 {
		t.Fatalf("expected spelled second word, got %q with %d frames", resp.Frames[1].Word, len(resp.Frames[1].Frames))
	}
}

func TestRenderTable(t *testing.T) {
	env := setupCLITestEnv(t, "HI")

	out, _, err := runCLI(t, []string{"render", "--format", "table", "hi"}, env.configPath)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	requireContains(t, out, "Sign grammar: HI")
	requireContains(t, out, "Word")
	requireContains(t, out, "Total")
	requireContains(t, out, "0.20s")
}

func TestRenderAutoUsesJSONWhenNotTerminal(t *testing.T) {
	env := setupCLITestEnv(t, "HI")

	out, _, err := runCLI(t, []string{"render", "hi"}, env.configPath)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected JSON output for a buffer, got:\n%s", out)
	}
}

func TestRenderReportsTranslationFailure(t *testing.T) {
	translator := testsupport.NewTranslateServer(t, http.StatusServiceUnavailable, "down")
	cfg := testsupport.NewConfig(t, testsupport.WithTranslationURL(translator.URL))
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	_, _, err := runCLI(t, []string{"render", "hi"}, configPath)
	if err == nil {
		t.Fatal("expected render to fail")
	}
	if !strings.Contains(err.Error(), "HTTP 503") || !strings.Contains(err.Error(), "Translation API failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	env := setupCLITestEnv(t, "HI")

	if _, _, err := runCLI(t, []string{"render", "--format", "yaml", "hi"}, env.configPath); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if len(env.translator.Texts()) != 0 {
		t.Fatal("expected no translation call")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, "HI")

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.clips.URL)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestCacheCommands(t *testing.T) {
	disabled := setupCLITestEnv(t, "HI")
	out, _, err := runCLI(t, []string{"cache", "stats"}, disabled.configPath)
	if err != nil {
		t.Fatalf("cache stats (disabled): %v", err)
	}
	requireContains(t, out, "Clip cache is disabled")

	env := setupCLITestEnv(t, "HI", testsupport.WithClipCache())
	if _, _, err := runCLI(t, []string{"render", "--format", "json", "hi"}, env.configPath); err != nil {
		t.Fatalf("render: %v", err)
	}

	out, _, err = runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, env.cfg.ClipCache.Path)
	requireContains(t, out, "Clips")

	out, _, err = runCLI(t, []string{"cache", "prune"}, env.configPath)
	if err != nil {
		t.Fatalf("cache prune: %v", err)
	}
	requireContains(t, out, "Pruned 0 expired entries")

	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 entries")
}

func TestCacheClearRecreatesIncompatibleCache(t *testing.T) {
	env := setupCLITestEnv(t, "HI", testsupport.WithClipCache())
	if _, _, err := runCLI(t, []string{"render", "--format", "json", "hi"}, env.configPath); err != nil {
		t.Fatalf("render: %v", err)
	}

	db, err := sql.Open("sqlite", env.cfg.ClipCache.Path)
	if err != nil {
		t.Fatalf("open cache db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, _, err := runCLI(t, []string{"cache", "stats"}, env.configPath); err == nil {
		t.Fatal("expected stats to report the schema mismatch")
	}

	out, _, err := runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Recreated incompatible cache")
	requireContains(t, out, "Cleared 0 entries")

	if _, _, err := runCLI(t, []string{"cache", "stats"}, env.configPath); err != nil {
		t.Fatalf("cache stats after clear: %v", err)
	}
}

func TestHumanBytes(t *testing.T) {
	cases := map[int64]string{
		0:       "0 B",
		1023:    "1023 B",
		1024:    "1.0 KiB",
		1536:    "1.5 KiB",
		5 << 20: "5.0 MiB",
	}
	for in, want := range cases {
		if got := humanBytes(in); got != want {
			t.Errorf("humanBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
