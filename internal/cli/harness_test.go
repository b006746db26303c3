package cli

import (
	"os"
	"path/filepath"
	"testing"

	"slsk-audio-pipeline/internal/model"
	"slsk-audio-pipeline/internal/runstore"
)

// installTools drops fake binaries onto PATH so a full run exercises every
// stage without the real network tools.
func installTools(t *testing.T, scripts map[string]string) {
	t.Helper()
	fakeBin := filepath.Join(t.TempDir(), "bin")
	if err := os.MkdirAll(fakeBin, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, body := range scripts {
		if err := os.WriteFile(filepath.Join(fakeBin, name), []byte(body), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PATH", fakeBin+":"+os.Getenv("PATH"))
}

const fakeSldl = `#!/usr/bin/env bash
set -euo pipefail
dir=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-p" ]; then dir="$a"; fi
  prev="$a"
done
mkdir -p "$dir"
printf 'audio' > "$dir/track one.mp3"
printf 'audio' > "$dir/track two.flac"
echo "Downloading 2 tracks"
echo "Completed: 2 succeeded, 0 failed"
`

const fakeNormalize = `#!/usr/bin/env bash
set -euo pipefail
echo "Measured loudness: -14.2 LUFS"
cp "$1" "$2"
echo "Normalization complete"
`

const fakeBeet = `#!/usr/bin/env bash
set -euo pipefail
echo "import: 2 items"
exit 0
`

func TestHarnessFetchFullRun(t *testing.T) {
	installTools(t, map[string]string{
		"sldl":      fakeSldl,
		"normalize": fakeNormalize,
		"beet":      fakeBeet,
	})

	out := filepath.Join(t.TempDir(), "library")
	err := Run([]string{"fetch",
		"--playlist", "https://open.spotify.com/playlist/abc",
		"--output", out,
		"--user", "alice", "--pass", "hunter2",
		"--workers", "2",
		"--json",
	})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	var summary model.RunSummary
	if err := runstore.ReadJSON(filepath.Join(out, "run_summary.json"), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Verdict != model.VerdictSucceeded {
		t.Fatalf("verdict = %q, want %q", summary.Verdict, model.VerdictSucceeded)
	}
	if summary.FilesNormalized != 2 {
		t.Fatalf("normalized %d files, want 2", summary.FilesNormalized)
	}

	if _, err := os.Stat(filepath.Join(out, "downloads")); !os.IsNotExist(err) {
		t.Fatalf("downloads directory survived cleanup: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(out, "normalized"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("normalized dir has %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".mp3" {
			t.Fatalf("non-audio artifact in the library: %s", e.Name())
		}
	}
	if _, err := os.Stat(filepath.Join(out, "download_log.txt")); err != nil {
		t.Fatalf("transcript missing: %v", err)
	}
}

func TestHarnessFetchFailedVerdictExitsNonZero(t *testing.T) {
	installTools(t, map[string]string{
		"sldl": `#!/usr/bin/env bash
echo "Failed: Big Artist - Gone Song [network]"
exit 1
`,
		"normalize": fakeNormalize,
		"beet":      fakeBeet,
	})

	out := filepath.Join(t.TempDir(), "library")
	err := Run([]string{"fetch",
		"--playlist", "https://open.spotify.com/playlist/abc",
		"--output", out,
		"--user", "alice", "--pass", "hunter2",
	})
	if err == nil {
		t.Fatal("expected non-nil error for a failed run")
	}

	var summary model.RunSummary
	if err := runstore.ReadJSON(filepath.Join(out, "run_summary.json"), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Verdict != model.VerdictFailed {
		t.Fatalf("verdict = %q, want %q", summary.Verdict, model.VerdictFailed)
	}
}

func TestHarnessProcessLocalDir(t *testing.T) {
	installTools(t, map[string]string{
		"normalize": fakeNormalize,
		"beet":      fakeBeet,
	})

	dir := filepath.Join(t.TempDir(), "incoming")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "song.mp3"), []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Run([]string{"process", "--dir", dir, "--json"}); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	// Local input is never deleted.
	if _, err := os.Stat(filepath.Join(dir, "song.mp3")); err != nil {
		t.Fatalf("local input removed: %v", err)
	}
	var summary model.RunSummary
	if err := runstore.ReadJSON(filepath.Join(dir, "run_summary.json"), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.FilesNormalized != 1 {
		t.Fatalf("normalized %d files, want 1", summary.FilesNormalized)
	}
}
