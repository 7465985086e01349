package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"occasion-listing/internal/listing"
	"occasion-listing/internal/llm"
)

const goodCompletion = `{
  "title": "EdgeCraft Knife Sharpener Christmas Gift for Home Cooks",
  "bullets": [
    "PERFECT CHRISTMAS GIFT: a thoughtful present for every home cook who loves sharp knives",
    "3-STAGE SHARPENING: coarse, fine and polish slots restore a dull blade in seconds",
    "DIAMOND ABRASIVES: long-lasting diamond plates keep working season after season",
    "NON-SLIP BASE: a rubber foot keeps the sharpener steady on any kitchen counter",
    "FITS ANY BLADE: works with chef, paring and utility knives from every brand"
  ],
  "description": "Give the gift of effortless cooking this Christmas. The EdgeCraft sharpener restores kitchen knives in seconds.",
  "keywords": {"frontend": ["knife sharpener", "christmas gift"], "backend": ["kitchen gift", "sharpening tool"]}
}`

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DEEPSEEK_API_KEY", "test-key")
	return home
}

func writeBrief(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	if len(lines) == 0 {
		lines = []string{
			"name: Knife Sharpener",
			"brand: EdgeCraft",
			"category: Home & Kitchen",
			"locale: en",
			"tone: professional",
			"occasion: christmas",
			"# features",
			"- 3-stage sharpening",
			"- diamond abrasives",
			"- non-slip base",
		}
	}
	p := filepath.Join(dir, name)
	content := listing.Marker + "\n" + strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// scriptedCompleter replies with texts in order, repeating the last one.
type scriptedCompleter struct {
	mu       sync.Mutex
	texts    []string
	requests []llm.Request
}

func (s *scriptedCompleter) Generate(_ context.Context, req llm.Request) (llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	i := min(len(s.requests)-1, len(s.texts)-1)
	return llm.Response{Text: s.texts[i], Provider: req.Provider, Model: req.Model, LatencyMS: 5}, nil
}

func (s *scriptedCompleter) calls() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Request(nil), s.requests...)
}
