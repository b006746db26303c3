// Package sldl drives the sldl acquisition tool: it builds the command line,
// filters the stream for readable progress, and extracts per-track failure
// records while the full output goes to the transcript.
package sldl

import (
	"fmt"
	"runtime"
	"strconv"

	"slsk-audio-pipeline/internal/model"
	"slsk-audio-pipeline/internal/proc"
	"slsk-audio-pipeline/internal/runstore"
)

const toolName = "sldl"

// maxConcurrentDownloads caps the concurrency hint handed to sldl; the remote
// peer network expects clients to stay polite regardless of local core count.
const maxConcurrentDownloads = 4

type RunOptions struct {
	PlaylistURL    string
	OutputDir      string
	Username       string
	Password       string
	PrefFormat     string
	TranscriptPath string

	// Display receives progress-classified lines. Defaults to stdout.
	Display func(line string)

	// Concurrency overrides the download concurrency hint. Zero means
	// DefaultConcurrency.
	Concurrency int
}

func DefaultConcurrency() int {
	n := runtime.NumCPU()
	if n > maxConcurrentDownloads {
		return maxConcurrentDownloads
	}
	if n < 1 {
		return 1
	}
	return n
}

// Command builds the sldl argv for one acquisition run.
func Command(opts RunOptions) []string {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency()
	}
	return []string{
		opts.PlaylistURL,
		"-p", opts.OutputDir,
		"--user", opts.Username,
		"--pass", opts.Password,
		"--pref-format", opts.PrefFormat,
		"--concurrent-downloads", strconv.Itoa(concurrency),
	}
}

// Run executes the acquisition tool and classifies its stream. The returned
// failure list is populated in stream order for successful and failed runs
// alike: sldl accepts partial results and can exit zero with tracks missing.
func Run(opts RunOptions) (model.StageOutcome, []model.TrackFailure, error) {
	if _, err := proc.LookTool(toolName); err != nil {
		return model.StageOutcome{}, nil, err
	}

	transcript, err := runstore.OpenTranscript(opts.TranscriptPath)
	if err != nil {
		return model.StageOutcome{}, nil, err
	}
	defer func() {
		_ = transcript.Close()
	}()

	display := opts.Display
	if display == nil {
		display = func(line string) { fmt.Println(line) }
	}

	var failures []model.TrackFailure
	exitCode, err := proc.Run(proc.RunOptions{
		Name:       toolName,
		Args:       Command(opts),
		Transcript: transcript,
		Line: func(line string) {
			switch Classify(line) {
			case LineTrackFailure:
				failures = append(failures, ParseTrackFailure(line))
				display(line)
			case LineProgress:
				display(line)
			}
		},
	})
	if err != nil {
		return model.StageOutcome{}, failures, err
	}

	if exitCode != 0 {
		return model.Failed(fmt.Sprintf("%s exited with code %d", toolName, exitCode)), failures, nil
	}
	return model.Succeeded(), failures, nil
}
