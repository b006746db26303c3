// Package pipeline sequences the stages of one acquisition run: download,
// normalize, enrich, clean up. It owns the RunRequest and the final
// RunSummary; stages own their intermediates and hand back outcomes only.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"slsk-audio-pipeline/internal/beets"
	"slsk-audio-pipeline/internal/model"
	"slsk-audio-pipeline/internal/normalize"
	"slsk-audio-pipeline/internal/runstore"
	"slsk-audio-pipeline/internal/sldl"
)

const (
	downloadsDirName   = "downloads"
	transcriptFileName = "download_log.txt"
	summaryFileName    = "run_summary.json"
)

type Options struct {
	Workers     int
	Concurrency int

	// NormalizeEvents feeds a live dashboard. Optional.
	NormalizeEvents chan<- normalize.Event

	// DownloadDisplay receives progress-filtered acquisition lines.
	// Optional; defaults to stdout inside the download stage.
	DownloadDisplay func(line string)

	// EnrichDisplay receives classified enrichment lines. Optional.
	EnrichDisplay func(bucket beets.Bucket, line string)
}

// deps are the stage seams. Production runs use defaultDeps; tests inject
// counters and failure stubs.
type deps struct {
	download  func(sldl.RunOptions) (model.StageOutcome, []model.TrackFailure, error)
	normalize func(normalize.Options) (normalize.Report, error)
	enrich    func(beets.RunOptions) model.EnrichmentStatus
	cleanup   func(path string) error
}

func defaultDeps() deps {
	return deps{
		download:  sldl.Run,
		normalize: normalize.Run,
		enrich:    beets.Run,
		cleanup:   os.RemoveAll,
	}
}

// Run executes the full pipeline for one request and returns the summary.
// A non-nil error means the run aborted (pre-flight failure, lost transcript,
// filesystem trouble); item-level failures travel inside the summary instead.
func Run(req model.RunRequest, opts Options) (model.RunSummary, error) {
	return runWith(req, opts, defaultDeps())
}

func runWith(req model.RunRequest, opts Options, d deps) (model.RunSummary, error) {
	if err := req.Validate(); err != nil {
		return model.RunSummary{}, err
	}

	root := req.OutputRoot
	if req.LocalMode() {
		root = req.LocalDir
	}
	lock, err := runstore.AcquireRunLock(root)
	if err != nil {
		return model.RunSummary{}, err
	}
	defer func() {
		_ = lock.Release()
	}()

	state := model.StateIdle
	summary := model.RunSummary{PlaylistURL: req.PlaylistURL}

	downloadDir := req.LocalDir
	removeDownloads := false
	if !req.LocalMode() {
		downloadDir = filepath.Join(req.OutputRoot, downloadsDirName)
		removeDownloads = true
	}
	summary.SourceDir = downloadDir

	var stageErr error
	downloadOutcome := model.Succeeded()

	if req.LocalMode() {
		// No acquisition stage; the directory is taken as-is.
		summary.DownloadOutcome = model.Succeeded()
		if err := model.Transition(&state, model.StateNormalizing); err != nil {
			return summary, err
		}
	} else {
		if err := model.Transition(&state, model.StateDownloading); err != nil {
			return summary, err
		}
		if err := runstore.Mkdir(downloadDir); err != nil {
			return summary, err
		}

		outcome, failures, err := d.download(sldl.RunOptions{
			PlaylistURL:    req.PlaylistURL,
			OutputDir:      downloadDir,
			Username:       req.Username,
			Password:       req.Password,
			PrefFormat:     req.PrefFormat,
			TranscriptPath: filepath.Join(req.OutputRoot, transcriptFileName),
			Display:        opts.DownloadDisplay,
			Concurrency:    opts.Concurrency,
		})
		downloadOutcome = outcome
		summary.DownloadOutcome = outcome
		summary.FailedTracks = failures
		if err != nil {
			// Never launched or lost its transcript: nothing to normalize,
			// but cleanup below still runs.
			stageErr = err
			downloadOutcome = model.Failed(err.Error())
			summary.DownloadOutcome = downloadOutcome
		}

		// Acquisition tools can fail late with partial output already on
		// disk; partial results are still worth normalizing.
		if stageErr == nil && (downloadOutcome.OK() || dirNonEmpty(downloadDir)) {
			if err := model.Transition(&state, model.StateNormalizing); err != nil {
				return summary, err
			}
		} else {
			if err := model.Transition(&state, model.StateSkippedNormalization); err != nil {
				return summary, err
			}
			summary.NormalizationSkipped = true
		}
	}

	summary.Enrichment = model.EnrichmentStatus{State: model.EnrichmentSkipped}

	if state == model.StateNormalizing {
		report, err := d.normalize(normalize.Options{
			InputDir: downloadDir,
			Workers:  opts.Workers,
			Events:   opts.NormalizeEvents,
		})
		if err != nil && stageErr == nil {
			stageErr = err
		}

		summary.FilesDiscovered = report.Discovered
		succeeded := 0
		for _, r := range report.Results {
			if r.OK {
				succeeded++
			} else {
				summary.NormalizationFailures = append(summary.NormalizationFailures, r)
			}
		}
		summary.FilesNormalized = succeeded

		// Enrichment runs exactly once, only after the pool has fully
		// drained, and only when it has something to read.
		if succeeded > 0 {
			if err := model.Transition(&state, model.StateEnriching); err != nil {
				return summary, err
			}
			summary.Enrichment = d.enrich(beets.RunOptions{
				Dir:       normalize.OutputDirFor(downloadDir),
				ConfigDir: root,
				Display:   opts.EnrichDisplay,
			})
		}
	}

	if err := model.Transition(&state, model.StateCleaningUp); err != nil {
		return summary, err
	}
	summary.CleanupOK = true
	if removeDownloads {
		if err := d.cleanup(downloadDir); err != nil {
			summary.CleanupOK = false
			summary.CleanupWarning = fmt.Sprintf("remove %s: %v", downloadDir, err)
		}
	}

	if err := model.Transition(&state, model.StateDone); err != nil {
		return summary, err
	}
	summary.Verdict = verdict(summary, stageErr)

	if err := runstore.WriteJSON(filepath.Join(root, summaryFileName), summary); err != nil && stageErr == nil {
		stageErr = err
	}
	return summary, stageErr
}

// verdict derives the run result from stage outcomes alone; enrichment and
// cleanup warnings never change it.
func verdict(summary model.RunSummary, stageErr error) string {
	switch {
	case stageErr != nil:
		return model.VerdictFailed
	case summary.NormalizationSkipped:
		return model.VerdictFailed
	case summary.DownloadOutcome.Kind == model.OutcomeFailed,
		len(summary.FailedTracks) > 0,
		len(summary.NormalizationFailures) > 0:
		return model.VerdictPartial
	default:
		return model.VerdictSucceeded
	}
}

func dirNonEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	return len(entries) > 0
}
