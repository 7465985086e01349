package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestCatalogCommandListsEntries(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	var out, errb bytes.Buffer
	root := NewRootCmd(&out, &errb)
	root.SetArgs([]string{"catalog", "tones"})
	if err := root.Execute(); err != nil {
		t.Fatalf("catalog tones failed: %v", err)
	}
	text := out.String()
	for _, id := range []string{"professional", "luxury", "playful"} {
		if !strings.Contains(text, id) {
			t.Fatalf("missing tone %s in:\n%s", id, text)
		}
	}

	out.Reset()
	root = NewRootCmd(&out, &errb)
	root.SetArgs([]string{"catalog"})
	if err := root.Execute(); err != nil {
		t.Fatalf("catalog failed: %v", err)
	}
	for _, id := range []string{"christmas", "professional", "de"} {
		if !strings.Contains(out.String(), id) {
			t.Fatalf("missing %s in full listing", id)
		}
	}
}

func TestCatalogCommandUnknownKind(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	var out, errb bytes.Buffer
	root := NewRootCmd(&out, &errb)
	root.SetArgs([]string{"catalog", "colors"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "未知目录类型") {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
}
