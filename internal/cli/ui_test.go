package cli

import (
	"bytes"
	"strings"
	"testing"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func TestPrintStats(t *testing.T) {
	tests := []struct {
		name       string
		operations int
		cached     bool
		want       []string
		notWant    string
	}{
		{"fresh solution", 3, false, []string{"2 boxes", "5 pins", "3 operations", labelFresh}, labelCached},
		{"cached graph", -1, true, []string{"2 boxes", "5 pins", labelCached}, "operations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t)
			printStats(2, 5, tt.operations, tt.cached)
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("output %q missing %q", out.String(), w)
				}
			}
			if strings.Contains(out.String(), tt.notWant) {
				t.Errorf("output %q contains %q", out.String(), tt.notWant)
			}
		})
	}
}

func TestStatusLines(t *testing.T) {
	out := captureOutput(t)
	printSuccess("Solved with cost %s", "1.6")
	printWarning("budget %d", 10)
	printFile("problem.solution.json")
	printKeyValue("expansions", "4")

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], iconSuccess) || !strings.Contains(lines[0], "Solved with cost 1.6") {
		t.Errorf("success line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], iconWarning) {
		t.Errorf("warning line = %q", lines[1])
	}
	if !strings.Contains(lines[2], iconArrow) || !strings.HasSuffix(lines[2], "problem.solution.json") {
		t.Errorf("file line = %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "expansions") || !strings.HasSuffix(lines[3], "4") {
		t.Errorf("key/value line = %q", lines[3])
	}
}
