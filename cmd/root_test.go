package cmd

import (
	"bytes"
	"os"
	"reflect"
	"strings"
	"testing"
)

func TestFormatDurationMS(t *testing.T) {
	cases := map[int64]string{
		-1:    "0ms",
		999:   "999ms",
		1000:  "1.00s",
		60000: "1m",
		61000: "1m1.0s",
	}
	for in, want := range cases {
		if got := formatDurationMS(in); got != want {
			t.Fatalf("%d => %s, want %s", in, got, want)
		}
	}
}

func TestNormalizeArgs(t *testing.T) {
	if got := normalizeArgs([]string{"a.md"}); !reflect.DeepEqual(got, []string{"gen", "a.md"}) {
		t.Fatalf("unexpected: %#v", got)
	}
	if got := normalizeArgs([]string{"gen", "a.md"}); !reflect.DeepEqual(got, []string{"gen", "a.md"}) {
		t.Fatalf("unexpected: %#v", got)
	}
	if got := normalizeArgs([]string{"--config", "x"}); !reflect.DeepEqual(got, []string{"--config", "x"}) {
		t.Fatalf("unexpected: %#v", got)
	}
	if got := normalizeArgs([]string{"-v"}); !reflect.DeepEqual(got, []string{"-v"}) {
		t.Fatalf("unexpected: %#v", got)
	}
	for _, sub := range []string{"set", "score", "catalog", "update"} {
		in := []string{sub, "x"}
		if got := normalizeArgs(in); !reflect.DeepEqual(got, in) {
			t.Fatalf("unexpected: %#v", got)
		}
	}
	if got := normalizeArgs([]string{"--provider", "gemini", "dir"}); !reflect.DeepEqual(got, []string{"gen", "--provider", "gemini", "dir"}) {
		t.Fatalf("unexpected: %#v", got)
	}
}

func TestContainsPositionalSource(t *testing.T) {
	if containsPositionalSource([]string{"--config", "x"}) {
		t.Fatalf("unexpected true")
	}
	if containsPositionalSource([]string{"--verbose", "--log-file", "run.log"}) {
		t.Fatalf("unexpected true")
	}
	if !containsPositionalSource([]string{"--config", "x", "a.md"}) {
		t.Fatalf("expected true")
	}
	if !containsPositionalSource([]string{"--", "a.md"}) {
		t.Fatalf("expected true")
	}
}

func TestVersionText(t *testing.T) {
	oldV, oldC, oldB := Version, Commit, BuildTime
	defer func() {
		Version, Commit, BuildTime = oldV, oldC, oldB
	}()
	Version, Commit, BuildTime = "v1", "abc", "t"
	out := versionText()
	if !strings.Contains(out, "v1") || !strings.Contains(out, "abc") || !strings.Contains(out, "occasion-listing") {
		t.Fatalf("unexpected version text: %s", out)
	}
}

func TestRootCmdVersionFlagAndNoArgsHelp(t *testing.T) {
	var out, errb bytes.Buffer
	root := NewRootCmd(&out, &errb)
	root.SetArgs([]string{"--version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute --version failed: %v", err)
	}
	if !strings.Contains(out.String(), "occasion-listing 版本") {
		t.Fatalf("unexpected version output: %q", out.String())
	}

	out.Reset()
	root = NewRootCmd(&out, &errb)
	root.SetArgs([]string{})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute with no args failed: %v", err)
	}
	if !strings.Contains(out.String(), "Usage") {
		t.Fatalf("expected help output, got %q", out.String())
	}

	out.Reset()
	root = NewRootCmd(&out, &errb)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil || !strings.Contains(out.String(), "版本") {
		t.Fatalf("version subcommand failed: %v %q", err, out.String())
	}
}

func TestExecuteWithVersionArg(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"occasion-listing", "--version"}
	if err := Execute(); err != nil {
		t.Fatalf("Execute --version failed: %v", err)
	}
}
