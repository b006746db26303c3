package model

import (
	"fmt"
	"strings"
)

// RunRequest is the immutable description of one pipeline invocation.
// Acquisition mode fills PlaylistURL/OutputRoot/Username/Password/PrefFormat;
// local-processing mode fills LocalDir and nothing else.
type RunRequest struct {
	PlaylistURL string
	OutputRoot  string
	Username    string
	Password    string
	PrefFormat  string
	LocalDir    string
}

func (r RunRequest) LocalMode() bool {
	return strings.TrimSpace(r.LocalDir) != ""
}

// Validate enforces the mode invariants: all acquisition fields together, or
// LocalDir alone.
func (r RunRequest) Validate() error {
	if r.LocalMode() {
		if strings.TrimSpace(r.PlaylistURL) != "" || strings.TrimSpace(r.OutputRoot) != "" ||
			strings.TrimSpace(r.Username) != "" || strings.TrimSpace(r.Password) != "" {
			return fmt.Errorf("local-processing mode does not accept acquisition fields")
		}
		return nil
	}
	if strings.TrimSpace(r.PlaylistURL) == "" {
		return fmt.Errorf("playlist URL is required")
	}
	if strings.TrimSpace(r.OutputRoot) == "" {
		return fmt.Errorf("output directory is required")
	}
	if strings.TrimSpace(r.Username) == "" || strings.TrimSpace(r.Password) == "" {
		return fmt.Errorf("credentials are required together with a playlist URL")
	}
	return nil
}

type OutcomeKind string

const (
	OutcomeSucceeded       OutcomeKind = "succeeded"
	OutcomeFailed          OutcomeKind = "failed"
	OutcomePartiallyFailed OutcomeKind = "partially_failed"
)

// StageOutcome is the tagged result every stage hands back to the pipeline.
// It lives only for the duration of a run.
type StageOutcome struct {
	Kind      OutcomeKind `json:"kind"`
	Reason    string      `json:"reason,omitempty"`
	Succeeded int         `json:"succeeded,omitempty"`
	Failed    []string    `json:"failed,omitempty"`
}

func Succeeded() StageOutcome {
	return StageOutcome{Kind: OutcomeSucceeded}
}

func Failed(reason string) StageOutcome {
	return StageOutcome{Kind: OutcomeFailed, Reason: reason}
}

func PartiallyFailed(succeeded int, failed []string) StageOutcome {
	return StageOutcome{Kind: OutcomePartiallyFailed, Succeeded: succeeded, Failed: failed}
}

func (o StageOutcome) OK() bool {
	return o.Kind == OutcomeSucceeded
}

// TrackFailure is one per-track failure record extracted from the acquisition
// stream. Records keep stream order and duplicates are not collapsed; the
// same track can fail more than once across retries.
type TrackFailure struct {
	Raw    string `json:"raw"`
	Artist string `json:"artist,omitempty"`
	Title  string `json:"title,omitempty"`
}

func (f TrackFailure) Describe() string {
	if f.Artist != "" && f.Title != "" {
		return f.Artist + " - " + f.Title
	}
	return f.Raw
}

// AudioFile is one discovered media file. Discovery runs fresh every
// invocation; nothing is cached across runs.
type AudioFile struct {
	Path string `json:"path"`
	Ext  string `json:"ext"`
}

// NormalizationResult is one worker's verdict for one AudioFile.
type NormalizationResult struct {
	Source     AudioFile `json:"source"`
	OutputPath string    `json:"output_path,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OK         bool      `json:"ok"`
}

const (
	EnrichmentSkipped   = "skipped"
	EnrichmentCompleted = "completed"
	EnrichmentWarned    = "completed_with_warnings"
)

// EnrichmentStatus never escalates beyond a warning; the enrichment tool's
// exit code is advisory.
type EnrichmentStatus struct {
	State   string `json:"state"`
	Warning string `json:"warning,omitempty"`
}

const (
	VerdictSucceeded = "succeeded"
	VerdictPartial   = "partial"
	VerdictFailed    = "failed"
)

// RunSummary is the final aggregate for one pipeline invocation.
type RunSummary struct {
	PlaylistURL string `json:"playlist_url,omitempty"`
	SourceDir   string `json:"source_dir"`

	DownloadOutcome StageOutcome   `json:"download_outcome"`
	FailedTracks    []TrackFailure `json:"failed_tracks,omitempty"`

	NormalizationSkipped  bool                  `json:"normalization_skipped"`
	FilesDiscovered       int                   `json:"files_discovered"`
	FilesNormalized       int                   `json:"files_normalized"`
	NormalizationFailures []NormalizationResult `json:"normalization_failures,omitempty"`

	Enrichment EnrichmentStatus `json:"enrichment"`

	CleanupOK      bool   `json:"cleanup_ok"`
	CleanupWarning string `json:"cleanup_warning,omitempty"`

	Verdict string `json:"verdict"`
}
