package sldl

import (
	"regexp"
	"strings"

	"slsk-audio-pipeline/internal/model"
)

// LineClass is the structured signal extracted from one line of sldl output.
type LineClass int

const (
	LineOther LineClass = iota
	LineProgress
	LineTrackFailure
)

// The matching rules live here, one named matcher per recognized marker, so a
// format change in sldl's output means touching exactly this file.
var progressMarkers = []string{
	"Downloading",
	"tracks:",
	"Succeeded:",
	"Failed:",
	"Completed:",
}

// A per-track failure reads "Failed: Artist - Title [reason]"; the separator
// between artist and title distinguishes it from the aggregate "Failed: N"
// counter line.
var trackFailurePattern = regexp.MustCompile(`Failed:\s*(.+?)\s+-\s+(.+?)\s*(?:\[[^\]]*\])?\s*$`)

// Classify maps a raw sldl output line to its signal. Track failures win over
// plain progress because their marker set overlaps.
func Classify(line string) LineClass {
	if trackFailurePattern.MatchString(line) {
		return LineTrackFailure
	}
	for _, marker := range progressMarkers {
		if strings.Contains(line, marker) {
			return LineProgress
		}
	}
	return LineOther
}

// ParseTrackFailure extracts the best-effort artist/title from a track
// failure line. The raw line is always kept; extraction may come up empty on
// unexpected shapes.
func ParseTrackFailure(line string) model.TrackFailure {
	failure := model.TrackFailure{Raw: line}
	if m := trackFailurePattern.FindStringSubmatch(line); len(m) > 2 {
		failure.Artist = strings.TrimSpace(m[1])
		failure.Title = strings.TrimSpace(m[2])
	}
	return failure
}
