package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"slsk-audio-pipeline/internal/config"
	"slsk-audio-pipeline/internal/model"
	"slsk-audio-pipeline/internal/normalize"
	"slsk-audio-pipeline/internal/pipeline"
	"slsk-audio-pipeline/internal/report"
	"slsk-audio-pipeline/internal/sldl"
	"slsk-audio-pipeline/internal/tui"
)

func runFetch(args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	playlist := fs.String("playlist", "", "playlist URL to acquire")
	output := fs.String("output", "", "output root directory")
	user := fs.String("user", "", "peer network username (overrides SLSK_USER)")
	pass := fs.String("pass", "", "peer network password (overrides SLSK_PASS)")
	prefFormat := fs.String("pref-format", "mp3", "preferred source format")
	envFile := fs.String("env-file", "", "env file with SLSK_USER/SLSK_PASS (default .env)")
	workers := fs.Int("workers", 0, "normalization workers (0 = half the CPUs)")
	concurrency := fs.Int("concurrency", sldl.DefaultConcurrency(), "concurrent track downloads")
	progress := fs.Bool("progress", false, "show the live normalization dashboard")
	jsonOut := fs.Bool("json", false, "print the run summary as JSON")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	url := strings.TrimSpace(*playlist)
	if url == "" {
		var err error
		url, err = promptRequired("playlist URL")
		if err != nil {
			return err
		}
	}
	if strings.TrimSpace(*output) == "" {
		return errors.New("--output is required")
	}

	creds := config.LoadCredentials(*envFile, *user, *pass)
	if creds.Username == "" || creds.Password == "" {
		return fmt.Errorf("credentials missing: pass --user/--pass, set %s/%s, or add them to .env",
			config.EnvUser, config.EnvPass)
	}

	req := model.RunRequest{
		PlaylistURL: url,
		OutputRoot:  strings.TrimSpace(*output),
		Username:    creds.Username,
		Password:    creds.Password,
		PrefFormat:  strings.TrimSpace(*prefFormat),
	}
	return executeRun(req, runSettings{
		Workers:     *workers,
		Concurrency: *concurrency,
		Progress:    *progress,
		JSON:        *jsonOut,
	})
}

type runSettings struct {
	Workers     int
	Concurrency int
	Progress    bool
	JSON        bool
}

// executeRun drives one pipeline invocation and renders its summary. With the
// dashboard active the pipeline runs on a goroutine so the terminal belongs
// to the TUI; closing the event channel releases it.
func executeRun(req model.RunRequest, settings runSettings) error {
	opts := pipeline.Options{Workers: settings.Workers, Concurrency: settings.Concurrency}

	var summary model.RunSummary
	var runErr error
	if settings.Progress && stdinIsTTY() {
		events := make(chan normalize.Event, 64)
		opts.NormalizeEvents = events
		// The dashboard owns the terminal; raw download chatter would
		// tear it up. The transcript still captures every line.
		opts.DownloadDisplay = func(string) {}

		done := make(chan struct{})
		go func() {
			defer close(done)
			defer close(events)
			summary, runErr = pipeline.Run(req, opts)
		}()
		if err := tui.Run(events); err != nil {
			// A dead dashboard is cosmetic; the run itself decides the exit.
			fmt.Printf("dashboard unavailable: %v\n", err)
		}
		<-done
	} else {
		summary, runErr = pipeline.Run(req, opts)
	}
	if runErr != nil {
		return runErr
	}

	if settings.JSON {
		if err := printJSON(summary); err != nil {
			return err
		}
	} else {
		entries := report.LibraryEntries(normalize.OutputDirFor(summary.SourceDir))
		fmt.Print(report.Render(summary, entries))
	}

	if summary.Verdict == model.VerdictFailed {
		return errors.New("run failed")
	}
	return nil
}
