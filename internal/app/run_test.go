package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunWritesListing(t *testing.T) {
	setupHome(t)
	in := t.TempDir()
	out := t.TempDir()
	writeBrief(t, in, "knife.md")
	c := &scriptedCompleter{texts: []string{goodCompletion}}
	var stdout bytes.Buffer

	res, err := Run(context.Background(), Options{
		Inputs:    []string{in},
		OutputDir: out,
		CWD:       in,
		Stdout:    &stdout,
		Verbose:   true,
		Completer: c,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Succeeded != 1 || res.Failed != 0 || len(res.Outputs) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	calls := c.calls()
	if len(calls) != 1 || calls[0].APIKey != "test-key" || calls[0].Provider != "deepseek" || !calls[0].JSONMode {
		t.Fatalf("unexpected requests: %+v", calls)
	}

	data, err := os.ReadFile(res.Outputs[0])
	if err != nil {
		t.Fatal(err)
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	for _, key := range []string{"run_id", "source", "brief", "listing", "localization", "score"} {
		if _, ok := record[key]; !ok {
			t.Fatalf("output missing %q: %s", key, data)
		}
	}
	md := strings.TrimSuffix(res.Outputs[0], ".json") + ".md"
	mdData, err := os.ReadFile(md)
	if err != nil {
		t.Fatalf("markdown missing: %v", err)
	}
	if !strings.Contains(string(mdData), "EdgeCraft Knife Sharpener") {
		t.Fatalf("markdown missing title: %s", mdData)
	}

	logs := stdout.String()
	for _, ev := range []string{`"event":"startup"`, `"event":"compose_ok"`, `"event":"score_ok"`, `"event":"write_ok"`, `"event":"finished"`} {
		if !strings.Contains(logs, ev) {
			t.Fatalf("log missing %s:\n%s", ev, logs)
		}
	}
}

func TestRunRetriesMalformedCompletionWithFeedback(t *testing.T) {
	setupHome(t)
	in := t.TempDir()
	writeBrief(t, in, "knife.md")
	c := &scriptedCompleter{texts: []string{`{"foo": 1}`, goodCompletion}}

	res, err := Run(context.Background(), Options{
		Inputs:     []string{in},
		OutputDir:  t.TempDir(),
		CWD:        in,
		Stdout:     &bytes.Buffer{},
		MaxRetries: 2,
		Completer:  c,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Succeeded != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	calls := c.calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if strings.Contains(calls[0].UserPrompt, "[Previous attempt]") || !strings.Contains(calls[1].UserPrompt, "[Previous attempt]") {
		t.Fatalf("retry prompt missing feedback")
	}
}

func TestRunCountsFailures(t *testing.T) {
	setupHome(t)
	in := t.TempDir()
	writeBrief(t, in, "good.md")
	writeBrief(t, in, "bad_locale.md", "name: Mug", "brand: Acme", "locale: xx")
	c := &scriptedCompleter{texts: []string{"   "}}

	res, err := Run(context.Background(), Options{
		Inputs:    []string{in},
		OutputDir: t.TempDir(),
		CWD:       in,
		Stdout:    &bytes.Buffer{},
		Completer: c,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Succeeded != 0 || res.Failed != 2 || len(res.Outputs) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRunRequiresAPIKey(t *testing.T) {
	setupHome(t)
	t.Setenv("DEEPSEEK_API_KEY", "")
	in := t.TempDir()
	writeBrief(t, in, "knife.md")
	_, err := Run(context.Background(), Options{Inputs: []string{in}, CWD: in, Stdout: &bytes.Buffer{}})
	if err == nil || !strings.Contains(err.Error(), "DEEPSEEK_API_KEY") || !strings.Contains(err.Error(), "set key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestRunRejectsUnknownProvider(t *testing.T) {
	setupHome(t)
	in := t.TempDir()
	writeBrief(t, in, "knife.md")
	_, err := Run(context.Background(), Options{Inputs: []string{in}, CWD: in, Provider: "nope", Stdout: &bytes.Buffer{}})
	if err == nil || !strings.Contains(err.Error(), "不支持的 provider") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestRunNoValidInputs(t *testing.T) {
	setupHome(t)
	in := t.TempDir()
	_, err := Run(context.Background(), Options{Inputs: []string{in}, CWD: in, Stdout: &bytes.Buffer{}, Completer: &scriptedCompleter{texts: []string{goodCompletion}}})
	if err == nil {
		t.Fatalf("expected discovery error")
	}
}

func TestRunLogFile(t *testing.T) {
	setupHome(t)
	in := t.TempDir()
	writeBrief(t, in, "knife.md")
	logPath := filepath.Join(t.TempDir(), "run.log")
	_, err := Run(context.Background(), Options{
		Inputs:    []string{in},
		OutputDir: t.TempDir(),
		CWD:       in,
		LogFile:   logPath,
		Stdout:    &bytes.Buffer{},
		Completer: &scriptedCompleter{texts: []string{goodCompletion}},
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil || !strings.Contains(string(data), "已写入") {
		t.Fatalf("log file mismatch: %v %s", err, data)
	}
}

func TestNewLimiter(t *testing.T) {
	if l := newLimiter(0); !l.Allow() || !l.Allow() {
		t.Fatalf("unlimited limiter should always allow")
	}
	l := newLimiter(1)
	if !l.Allow() || l.Allow() {
		t.Fatalf("expected burst of one")
	}
}
