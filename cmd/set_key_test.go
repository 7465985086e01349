package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetKeyCommandCreateAndUpdateEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var out, errb bytes.Buffer
	root := NewRootCmd(&out, &errb)
	root.SetArgs([]string{"set", "key", "first-key"})
	if err := root.Execute(); err != nil {
		t.Fatalf("set key create failed: %v", err)
	}
	envPath := filepath.Join(home, ".occasion-listing", ".env")
	raw, err := os.ReadFile(envPath)
	if err != nil {
		t.Fatalf("read env failed: %v", err)
	}
	if !strings.Contains(string(raw), `DEEPSEEK_API_KEY="first-key"`) {
		t.Fatalf("missing key after create: %s", raw)
	}

	root = NewRootCmd(&out, &errb)
	root.SetArgs([]string{"set", "key", "second-key"})
	if err := root.Execute(); err != nil {
		t.Fatalf("set key update failed: %v", err)
	}
	raw, err = os.ReadFile(envPath)
	if err != nil {
		t.Fatalf("read env failed: %v", err)
	}
	text := string(raw)
	if !strings.Contains(text, `DEEPSEEK_API_KEY="second-key"`) || strings.Contains(text, "first-key") {
		t.Fatalf("key not updated correctly: %s", text)
	}

	root = NewRootCmd(&out, &errb)
	root.SetArgs([]string{"set", "key", "gem-key", "--provider", "gemini"})
	if err := root.Execute(); err != nil {
		t.Fatalf("set key for gemini failed: %v", err)
	}
	raw, _ = os.ReadFile(envPath)
	if !strings.Contains(string(raw), `GEMINI_API_KEY="gem-key"`) || !strings.Contains(string(raw), "second-key") {
		t.Fatalf("gemini key mismatch: %s", raw)
	}

	if strings.TrimSpace(out.String()) != "" || strings.TrimSpace(errb.String()) != "" {
		t.Fatalf("expected silent command, got stdout=%q stderr=%q", out.String(), errb.String())
	}
}

func TestSetKeyCommandEmptyKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	var out, errb bytes.Buffer
	root := NewRootCmd(&out, &errb)
	root.SetArgs([]string{"set", "key", "   "})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "API Key 不能为空") {
		t.Fatalf("expected empty key error, got %v", err)
	}
}

func TestSetKeyCommandUnknownProvider(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	var out, errb bytes.Buffer
	root := NewRootCmd(&out, &errb)
	root.SetArgs([]string{"set", "key", "k", "--provider", "nope"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "不支持的 provider") {
		t.Fatalf("expected provider error, got %v", err)
	}
}
