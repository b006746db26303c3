package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bogem/id3v2"

	"slsk-audio-pipeline/internal/model"
)

func TestRenderEnumeratesEveryFailure(t *testing.T) {
	summary := model.RunSummary{
		SourceDir:       "/music/downloads",
		DownloadOutcome: model.Succeeded(),
		FailedTracks: []model.TrackFailure{
			{Raw: "Failed: Artist One - Song One [no sources]", Artist: "Artist One", Title: "Song One"},
			{Raw: "Failed: weird line"},
		},
		FilesDiscovered: 4,
		FilesNormalized: 3,
		NormalizationFailures: []model.NormalizationResult{
			{Source: model.AudioFile{Path: "/music/downloads/broken.flac", Ext: ".flac"}, Reason: "normalize exited with code 1"},
		},
		Enrichment: model.EnrichmentStatus{State: model.EnrichmentWarned, Warning: "beet exited with code 3"},
		CleanupOK:  true,
		Verdict:    model.VerdictPartial,
	}

	out := Render(summary, nil)

	for _, want := range []string{
		"Artist One - Song One",
		"Failed: weird line",
		"/music/downloads/broken.flac",
		"normalize exited with code 1",
		"beet exited with code 3",
		"files discovered: 4, normalized: 3",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSkippedNormalizationMarksFailedRun(t *testing.T) {
	summary := model.RunSummary{
		SourceDir:            "/music/downloads",
		DownloadOutcome:      model.Failed("sldl exited with code 1"),
		NormalizationSkipped: true,
		Enrichment:           model.EnrichmentStatus{State: model.EnrichmentSkipped},
		CleanupOK:            true,
		Verdict:              model.VerdictFailed,
	}

	out := Render(summary, nil)
	if !strings.Contains(out, "normalization skipped") {
		t.Fatalf("skip path must be called out:\n%s", out)
	}
}

func TestLibraryEntriesReadTags(t *testing.T) {
	dir := t.TempDir()

	tagged := filepath.Join(dir, "tagged.mp3")
	if err := os.WriteFile(tagged, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	tag, err := id3v2.Open(tagged, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatal(err)
	}
	tag.SetTitle("Roygbiv")
	tag.SetArtist("Boards of Canada")
	if err := tag.Save(); err != nil {
		t.Fatal(err)
	}
	if err := tag.Close(); err != nil {
		t.Fatal(err)
	}

	untagged := filepath.Join(dir, "untagged.mp3")
	if err := os.WriteFile(untagged, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	entries := LibraryEntries(dir)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %v", entries)
	}
	found := map[string]bool{}
	for _, e := range entries {
		found[e] = true
	}
	if !found["Roygbiv - Boards of Canada"] {
		t.Fatalf("tagged entry missing: %v", entries)
	}
	if !found["untagged"] {
		t.Fatalf("fallback entry missing: %v", entries)
	}
}

func TestLibraryEntriesMissingDirIsEmpty(t *testing.T) {
	if entries := LibraryEntries(filepath.Join(t.TempDir(), "never")); len(entries) != 0 {
		t.Fatalf("expected no entries, got %v", entries)
	}
}
