// Package proc runs external tools and streams their merged output
// line-by-line to the caller. Every stage of the pipeline talks to its tool
// through this adapter; retries and timeouts are caller concerns.
package proc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// ErrTranscript marks a failed transcript write. The transcript is the
// durable record of a run, so losing it aborts the adapter call instead of
// being swallowed.
var ErrTranscript = errors.New("transcript write failed")

// ErrToolMissing marks a failed pre-flight lookup; callers branch on it to
// refuse a run before launching anything.
var ErrToolMissing = errors.New("missing dependency")

// RunOptions describes one external tool invocation.
type RunOptions struct {
	Name string
	Args []string

	// Transcript receives every raw line regardless of what Line does with
	// it. Optional.
	Transcript io.Writer

	// Line is invoked synchronously for each merged stdout/stderr line, as
	// soon as the tool emits it. Optional.
	Line func(line string)
}

// Run launches the tool and blocks until it exits. It returns the exit code
// for any process that started, including non-zero exits; a non-nil error
// means the process could not be launched or the transcript was lost.
func Run(opts RunOptions) (int, error) {
	cmd := exec.Command(opts.Name, opts.Args...)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", opts.Name, err)
	}

	var transcriptErr error
	var scanErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		scanner.Split(splitByNewlineOrCR)
		for scanner.Scan() {
			line := scanner.Text()
			if opts.Transcript != nil && transcriptErr == nil {
				if _, err := io.WriteString(opts.Transcript, line+"\n"); err != nil {
					transcriptErr = fmt.Errorf("%w: %v", ErrTranscript, err)
				}
			}
			if opts.Line != nil {
				opts.Line(line)
			}
		}
		// A scanner that gives up (oversized line) silently truncates the
		// transcript; that loss must not pass for a clean run.
		scanErr = scanner.Err()
		if scanErr != nil {
			// Keep draining so the tool never blocks on a full pipe.
			_, _ = io.Copy(io.Discard, pr)
		}
	}()

	waitErr := cmd.Wait()
	_ = pw.Close()
	<-done

	if transcriptErr != nil {
		return 0, transcriptErr
	}
	if scanErr != nil {
		return 0, fmt.Errorf("read %s output: %w", opts.Name, scanErr)
	}
	if waitErr == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("wait for %s: %w", opts.Name, waitErr)
}

// LookTool reports where a tool lives on PATH, or a pre-flight error usable
// before any launch is attempted.
func LookTool(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s is not installed or not on PATH", ErrToolMissing, name)
	}
	return path, nil
}

// Progress-bar tools redraw with bare carriage returns; treating CR as a
// line boundary keeps those updates observable as they happen. Blank lines
// are kept as empty tokens so the transcript stays faithful, and a CRLF pair
// counts as a single boundary.
func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\n':
			return i + 1, data[:i], nil
		case '\r':
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if atEOF {
				return i + 1, data[:i], nil
			}
			// Possibly the first half of a CRLF pair; wait for more bytes.
			return 0, nil, nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
