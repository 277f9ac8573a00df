package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

const patch = `
[[nodes]]
id = "osc"
type = "osc~"
args = { frequency = 220 }

[[nodes]]
id = "out"
type = "dac~"

[[connections]]
from = "osc:0"
to = "out:0"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestRun(t *testing.T) {
	color.NoColor = true
	good := writeFile(t, "patch.toml", patch)
	broken := writeFile(t, "broken.toml", "[[nodes]]\nid = \"x\"\ntype = \"nope~\"\n")

	tests := []struct {
		name       string
		args       []string
		wantStatus int
		wantStdout string
		wantStderr string
	}{
		{name: "help", args: []string{"--help"}, wantStatus: 0, wantStderr: "Usage: patchc"},
		{name: "no patch", args: nil, wantStatus: 2, wantStderr: "Usage: patchc"},
		{name: "too many patches", args: []string{good, good}, wantStatus: 2, wantStderr: "expected one patch file"},
		{name: "list nodes", args: []string{"--list-nodes"}, wantStatus: 0, wantStdout: "osc~"},
		{name: "compile to stdout", args: []string{good}, wantStatus: 0, wantStdout: "osc_OUTS_0", wantStderr: "✓ Generated"},
		{name: "systems target", args: []string{"--target", "systems", good}, wantStatus: 0, wantStderr: "Target: systems"},
		{name: "missing file", args: []string{filepath.Join(t.TempDir(), "nope.toml")}, wantStatus: 1, wantStderr: "Error:"},
		{name: "unknown node type", args: []string{broken}, wantStatus: 1, wantStderr: "Error:"},
		{name: "bad verbosity", args: []string{"--verbosity", "loud", good}, wantStatus: 2, wantStderr: "Error:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			got := run(context.Background(), tt.args, &stdout, &stderr)
			if got != tt.wantStatus {
				t.Errorf("Expected status %d, got %d (stderr %q)", tt.wantStatus, got, stderr.String())
			}
			if !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("Expected stdout to contain %q, got %q", tt.wantStdout, stdout.String())
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("Expected stderr to contain %q, got %q", tt.wantStderr, stderr.String())
			}
		})
	}
}

func TestRunWritesOutFile(t *testing.T) {
	color.NoColor = true
	out := filepath.Join(t.TempDir(), "patch.js")

	var stdout, stderr bytes.Buffer
	if status := run(context.Background(), []string{"-o", out, writeFile(t, "patch.toml", patch)}, &stdout, &stderr); status != 0 {
		t.Fatalf("Expected status 0, got %d (stderr %q)", status, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("Expected empty stdout, got %q", stdout.String())
	}
	code, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(code), "OUTPUT[0][FRAME]") {
		t.Errorf("Expected audio loop in generated code, got %q", code)
	}
}

func TestListNodesShowsPortlets(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	if status := run(context.Background(), []string{"--list-nodes"}, &buf, &bytes.Buffer{}); status != 0 {
		t.Fatalf("Expected status 0, got %d", status)
	}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.HasPrefix(line, "dac~") && !strings.Contains(line, "0:signal") {
			t.Errorf("Expected dac~ signal inlets, got %q", line)
		}
	}
}
