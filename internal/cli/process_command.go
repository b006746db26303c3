package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"slsk-audio-pipeline/internal/model"
)

func runProcess(args []string) error {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	dir := fs.String("dir", "", "existing directory of audio files to process")
	workers := fs.Int("workers", 0, "normalization workers (0 = half the CPUs)")
	progress := fs.Bool("progress", false, "show the live normalization dashboard")
	jsonOut := fs.Bool("json", false, "print the run summary as JSON")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	target := strings.TrimSpace(*dir)
	if target == "" && fs.NArg() > 0 {
		target = strings.TrimSpace(fs.Arg(0))
	}
	if target == "" {
		return errors.New("--dir is required")
	}
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", target)
	}

	return executeRun(model.RunRequest{LocalDir: target}, runSettings{
		Workers:  *workers,
		Progress: *progress,
		JSON:     *jsonOut,
	})
}
