// Package report renders the final run summary for humans: counts first,
// then the identifying record for every failure, never a bare count.
package report

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/charmbracelet/lipgloss"

	"slsk-audio-pipeline/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Render formats the summary. libraryEntries may be nil when the normalized
// directory has nothing worth listing.
func Render(summary model.RunSummary, libraryEntries []string) string {
	var b strings.Builder

	verdictStyle := okStyle
	switch summary.Verdict {
	case model.VerdictFailed:
		verdictStyle = failStyle
	case model.VerdictPartial:
		verdictStyle = warnStyle
	}
	b.WriteString(headerStyle.Render("run summary") + "  " + verdictStyle.Render(summary.Verdict) + "\n")

	if summary.PlaylistURL != "" {
		b.WriteString(mutedStyle.Render("playlist: "+summary.PlaylistURL) + "\n")
	}
	b.WriteString(mutedStyle.Render("source: "+summary.SourceDir) + "\n")

	if summary.NormalizationSkipped {
		b.WriteString(failStyle.Render("download failed with no usable output; normalization skipped") + "\n")
	}
	if len(summary.FailedTracks) > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("failed tracks: %d", len(summary.FailedTracks))) + "\n")
		for _, f := range summary.FailedTracks {
			b.WriteString("  " + f.Describe() + "\n")
		}
	}

	b.WriteString(fmt.Sprintf("files discovered: %d, normalized: %d\n",
		summary.FilesDiscovered, summary.FilesNormalized))
	if len(summary.NormalizationFailures) > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("normalization failures: %d", len(summary.NormalizationFailures))) + "\n")
		for _, r := range summary.NormalizationFailures {
			b.WriteString("  " + r.Source.Path + ": " + r.Reason + "\n")
		}
	}

	switch summary.Enrichment.State {
	case model.EnrichmentCompleted:
		b.WriteString(okStyle.Render("enrichment: completed") + "\n")
	case model.EnrichmentWarned:
		b.WriteString(warnStyle.Render("enrichment: completed with warnings: "+summary.Enrichment.Warning) + "\n")
	default:
		b.WriteString(mutedStyle.Render("enrichment: skipped") + "\n")
	}

	if !summary.CleanupOK {
		b.WriteString(warnStyle.Render("cleanup warning: "+summary.CleanupWarning) + "\n")
	}

	if len(libraryEntries) > 0 {
		b.WriteString(headerStyle.Render("library") + "\n")
		for _, entry := range libraryEntries {
			b.WriteString("  " + entry + "\n")
		}
	}

	return b.String()
}

// LibraryEntries lists the normalized files as "Title - Artist", read from
// their ID3 tags. Files without readable tags fall back to their base name;
// a missing directory just lists nothing.
func LibraryEntries(dir string) []string {
	var entries []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".mp3") {
			return nil
		}
		entries = append(entries, libraryEntry(path))
		return nil
	})
	sort.Strings(entries)
	return entries
}

func libraryEntry(path string) string {
	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fallback
	}
	defer func() {
		_ = tag.Close()
	}()

	title := strings.TrimSpace(tag.Title())
	artist := strings.TrimSpace(tag.Artist())
	if title == "" || artist == "" {
		return fallback
	}
	return title + " - " + artist
}
