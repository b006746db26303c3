// Package normalize fans the discovered audio files out over a bounded
// worker pool, one external transform invocation per file, and fans the
// per-file verdicts back in to a single stage report.
package normalize

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"slsk-audio-pipeline/internal/model"
	"slsk-audio-pipeline/internal/proc"
	"slsk-audio-pipeline/internal/runstore"
)

const (
	toolName  = "normalize"
	outputExt = ".mp3"
)

// Markers the transform prints; recognized purely for live display. The
// target loudness is baked into the tool, never passed from here.
const (
	loudnessMarker   = "Measured loudness"
	completionMarker = "Normalization complete"
)

type EventKind int

const (
	EventDiscovered EventKind = iota
	EventFileStarted
	EventFileMeasured
	EventFileFinished
)

// Event is one progress signal for a live dashboard. Events are advisory;
// a nil sink costs nothing.
type Event struct {
	Kind   EventKind
	Total  int
	File   model.AudioFile
	Result model.NormalizationResult
}

type Options struct {
	InputDir  string
	OutputDir string
	Workers   int
	Events    chan<- Event
}

type Report struct {
	Outcome    model.StageOutcome
	Results    []model.NormalizationResult
	Discovered int
}

func DefaultWorkers() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		return 1
	}
	return n
}

// OutputDirFor places the flat normalized directory next to the discovery
// root, under its parent.
func OutputDirFor(inputDir string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(inputDir)), "normalized")
}

// Run discovers, dispatches, and aggregates. One file's failure never aborts
// sibling workers; the pool always drains completely.
func Run(opts Options) (Report, error) {
	files, err := Discover(opts.InputDir)
	if err != nil {
		return Report{}, fmt.Errorf("discover audio files in %s: %w", opts.InputDir, err)
	}
	if len(files) == 0 {
		return Report{Outcome: model.Succeeded()}, nil
	}
	emit(opts.Events, Event{Kind: EventDiscovered, Total: len(files)})

	outputDir := strings.TrimSpace(opts.OutputDir)
	if outputDir == "" {
		outputDir = OutputDirFor(opts.InputDir)
	}
	if err := runstore.Mkdir(outputDir); err != nil {
		return Report{}, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	destinations := destinationNames(opts.InputDir, files)

	var g errgroup.Group
	g.SetLimit(workers)

	// Workers never share mutable state; the channel is the fan-in boundary.
	resultCh := make(chan model.NormalizationResult, len(files))
	for _, file := range files {
		file := file
		g.Go(func() error {
			emit(opts.Events, Event{Kind: EventFileStarted, File: file})
			result := normalizeOne(file, filepath.Join(outputDir, destinations[file.Path]), opts.Events)
			resultCh <- result
			emit(opts.Events, Event{Kind: EventFileFinished, File: file, Result: result})
			return nil
		})
	}
	_ = g.Wait()
	close(resultCh)

	results := make([]model.NormalizationResult, 0, len(files))
	for result := range resultCh {
		results = append(results, result)
	}
	// Collection order is completion order; user-facing output sorts instead
	// of relying on it.
	sort.Slice(results, func(i, j int) bool {
		return results[i].Source.Path < results[j].Source.Path
	})

	succeeded := 0
	var failed []string
	for _, r := range results {
		if r.OK {
			succeeded++
		} else {
			failed = append(failed, r.Source.Path)
		}
	}

	report := Report{Results: results, Discovered: len(files)}
	if len(failed) == 0 {
		report.Outcome = model.Succeeded()
	} else {
		report.Outcome = model.PartiallyFailed(succeeded, failed)
	}
	return report, nil
}

func normalizeOne(file model.AudioFile, destPath string, events chan<- Event) model.NormalizationResult {
	exitCode, err := proc.Run(proc.RunOptions{
		Name: toolName,
		Args: []string{file.Path, destPath},
		Line: func(line string) {
			// Completion is confirmed by the exit code; only the loudness
			// measurement is worth surfacing mid-flight.
			if strings.Contains(line, loudnessMarker) {
				emit(events, Event{Kind: EventFileMeasured, File: file})
			}
		},
	})
	if err != nil {
		return model.NormalizationResult{Source: file, Reason: err.Error()}
	}
	if exitCode != 0 {
		return model.NormalizationResult{Source: file, Reason: fmt.Sprintf("%s exited with code %d", toolName, exitCode)}
	}
	return model.NormalizationResult{Source: file, OutputPath: destPath, OK: true}
}

// destinationNames maps each source path to a flat output file name. Base
// names are reused as-is unless two differently-pathed inputs share one, in
// which case a short hash of the relative source path keeps the outputs from
// contending for the same destination.
func destinationNames(inputDir string, files []model.AudioFile) map[string]string {
	baseCount := make(map[string]int, len(files))
	for _, f := range files {
		baseCount[strings.ToLower(stem(f.Path))]++
	}

	names := make(map[string]string, len(files))
	for _, f := range files {
		base := stem(f.Path)
		if baseCount[strings.ToLower(base)] > 1 {
			base = base + "_" + pathHash(inputDir, f.Path)
		}
		names[f.Path] = base + outputExt
	}
	return names
}

func stem(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func pathHash(inputDir, path string) string {
	rel, err := filepath.Rel(inputDir, path)
	if err != nil {
		rel = path
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(rel))
	return fmt.Sprintf("%08x", h.Sum32())
}

// emit never blocks a worker on a slow or detached observer; a dropped
// progress event is invisible noise, a stalled pool is not.
func emit(events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	default:
	}
}
