package proc

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func installTool(t *testing.T, name, script string) {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bin, name), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", bin+":"+os.Getenv("PATH"))
}

func TestRunStreamsMergedOutputInOrder(t *testing.T) {
	installTool(t, "chattytool", `#!/usr/bin/env bash
echo "one"
echo "two" >&2
echo "three"
exit 0
`)

	var lines []string
	code, err := Run(RunOptions{
		Name: "chattytool",
		Line: func(line string) { lines = append(lines, line) },
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "one" || lines[2] != "three" {
		t.Fatalf("stdout order lost: %v", lines)
	}
}

func TestRunReturnsNonZeroExitWithoutError(t *testing.T) {
	installTool(t, "grumpytool", `#!/usr/bin/env bash
echo "giving up"
exit 7
`)

	code, err := Run(RunOptions{Name: "grumpytool"})
	if err != nil {
		t.Fatalf("non-zero exit must not be an error: %v", err)
	}
	if code != 7 {
		t.Fatalf("expected exit 7, got %d", code)
	}
}

func TestRunDistinguishesLaunchFailure(t *testing.T) {
	_, err := Run(RunOptions{Name: "definitely-not-installed-tool-xyz"})
	if err == nil {
		t.Fatal("expected launch failure")
	}
}

func TestRunMirrorsEveryLineToTranscript(t *testing.T) {
	installTool(t, "verbosetool", `#!/usr/bin/env bash
echo "keep me"
echo "drop me"
`)

	var transcript strings.Builder
	var shown []string
	_, err := Run(RunOptions{
		Name:       "verbosetool",
		Transcript: &transcript,
		Line: func(line string) {
			if strings.HasPrefix(line, "keep") {
				shown = append(shown, line)
			}
		},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(shown) != 1 {
		t.Fatalf("filter should have kept one line, got %v", shown)
	}
	got := transcript.String()
	if !strings.Contains(got, "keep me\n") || !strings.Contains(got, "drop me\n") {
		t.Fatalf("transcript must hold every raw line, got %q", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRunTranscriptWriteFailureIsFatal(t *testing.T) {
	installTool(t, "loudtool", `#!/usr/bin/env bash
echo "a line"
exit 0
`)

	_, err := Run(RunOptions{Name: "loudtool", Transcript: failingWriter{}})
	if !errors.Is(err, ErrTranscript) {
		t.Fatalf("expected ErrTranscript, got %v", err)
	}
}

func TestRunSplitsCarriageReturnUpdates(t *testing.T) {
	installTool(t, "redrawtool", `#!/usr/bin/env bash
printf "25%%\r50%%\r100%%\n"
`)

	var lines []string
	_, err := Run(RunOptions{
		Name: "redrawtool",
		Line: func(line string) { lines = append(lines, line) },
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected CR-separated updates as 3 lines, got %v", lines)
	}
}

func TestRunKeepsBlankLinesInTranscript(t *testing.T) {
	installTool(t, "sparsetool", `#!/usr/bin/env bash
printf 'first\n\nlast\r\nend\n'
`)

	var transcript strings.Builder
	var lines []string
	_, err := Run(RunOptions{
		Name:       "sparsetool",
		Transcript: &transcript,
		Line:       func(line string) { lines = append(lines, line) },
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []string{"first", "", "last", "end"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %v", len(want), lines)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Fatalf("line %d = %q, want %q (all: %v)", i, lines[i], w, lines)
		}
	}
	if got := transcript.String(); got != "first\n\nlast\nend\n" {
		t.Fatalf("transcript lost the blank line: %q", got)
	}
}

func TestRunSurfacesOversizedLineAsError(t *testing.T) {
	installTool(t, "firehosetool", `#!/usr/bin/env bash
head -c 1500000 /dev/zero | tr '\0' 'x'
echo
echo "after the flood"
`)

	_, err := Run(RunOptions{Name: "firehosetool"})
	if err == nil {
		t.Fatal("a line past the scanner buffer must not pass as a clean run")
	}
	if !strings.Contains(err.Error(), "firehosetool") {
		t.Fatalf("error should name the tool, got %v", err)
	}
}

func TestLookTool(t *testing.T) {
	installTool(t, "presenttool", "#!/usr/bin/env bash\n")
	if _, err := LookTool("presenttool"); err != nil {
		t.Fatalf("expected tool found: %v", err)
	}
	if _, err := LookTool("absent-tool-abc"); err == nil {
		t.Fatal("expected missing dependency error")
	}
}
