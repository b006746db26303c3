// Package beets invokes the metadata/tagging tool over the normalized output
// directory. Enrichment is best-effort value-add: nothing in here can fail
// the pipeline, only downgrade to a warning.
package beets

import (
	"fmt"
	"path/filepath"
	"strings"

	"slsk-audio-pipeline/internal/model"
	"slsk-audio-pipeline/internal/proc"
	"slsk-audio-pipeline/internal/runstore"
)

const toolName = "beet"

// Bucket groups enrichment output lines for display only.
type Bucket string

const (
	BucketTagging Bucket = "tagging"
	BucketArtwork Bucket = "artwork"
	BucketError   Bucket = "error"
	BucketOther   Bucket = "other"
)

// ClassifyLine assigns one output line to its display bucket. Keyword rules
// are centralized here; the tool's format is undocumented and may drift.
func ClassifyLine(line string) Bucket {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "error"):
		return BucketError
	case strings.Contains(lower, "fetchart"), strings.Contains(lower, "cover art"), strings.Contains(lower, "artwork"):
		return BucketArtwork
	case strings.Contains(lower, "tagging"), strings.Contains(lower, "import"), strings.Contains(lower, "match"):
		return BucketTagging
	default:
		return BucketOther
	}
}

type RunOptions struct {
	Dir string

	// ConfigDir receives the generated config and library db, keeping them
	// out of the user-facing library. Defaults to the parent of Dir.
	ConfigDir string

	// TranscriptPath is optional for enrichment; an empty path keeps the
	// stream display-only.
	TranscriptPath string

	// Display receives each classified line. Optional.
	Display func(bucket Bucket, line string)
}

// Run enriches the directory and reports status. The tool's exit code is
// advisory; non-zero exits and launch problems come back as
// completed-with-warnings, never as errors.
func Run(opts RunOptions) model.EnrichmentStatus {
	if _, err := proc.LookTool(toolName); err != nil {
		return model.EnrichmentStatus{State: model.EnrichmentWarned, Warning: err.Error()}
	}

	configDir := strings.TrimSpace(opts.ConfigDir)
	if configDir == "" {
		configDir = filepath.Dir(filepath.Clean(opts.Dir))
	}
	configPath, err := WriteConfig(configDir, opts.Dir)
	if err != nil {
		return model.EnrichmentStatus{State: model.EnrichmentWarned, Warning: err.Error()}
	}

	runOpts := proc.RunOptions{
		Name: toolName,
		Args: []string{"--config", configPath, "import", "-q", opts.Dir},
		Line: func(line string) {
			if opts.Display != nil {
				opts.Display(ClassifyLine(line), line)
			}
		},
	}

	if strings.TrimSpace(opts.TranscriptPath) != "" {
		transcript, err := runstore.OpenTranscript(opts.TranscriptPath)
		if err != nil {
			return model.EnrichmentStatus{State: model.EnrichmentWarned, Warning: err.Error()}
		}
		defer func() {
			_ = transcript.Close()
		}()
		runOpts.Transcript = transcript
	}

	exitCode, err := proc.Run(runOpts)
	if err != nil {
		return model.EnrichmentStatus{State: model.EnrichmentWarned, Warning: err.Error()}
	}
	if exitCode != 0 {
		return model.EnrichmentStatus{
			State:   model.EnrichmentWarned,
			Warning: fmt.Sprintf("%s exited with code %d", toolName, exitCode),
		}
	}
	return model.EnrichmentStatus{State: model.EnrichmentCompleted}
}
