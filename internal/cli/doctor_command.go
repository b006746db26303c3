package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"slsk-audio-pipeline/internal/proc"
	"slsk-audio-pipeline/internal/runstore"
)

type DoctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type DoctorResult struct {
	OK     bool          `json:"ok"`
	Checks []DoctorCheck `json:"checks"`
}

// requiredTools are the external binaries a full run shells out to.
var requiredTools = []string{"sldl", "normalize", "beet"}

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	output := fs.String("output", ".", "output root to verify for writability")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	res := doctor(strings.TrimSpace(*output))
	if *jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		for _, c := range res.Checks {
			status := "ok"
			if !c.OK {
				status = "fail"
			}
			fmt.Printf("%s: %s (%s)\n", c.Name, status, c.Message)
		}
	}
	if !res.OK {
		return errors.New("doctor checks failed")
	}
	if !*jsonOut {
		fmt.Println("doctor: all checks passed")
	}
	return nil
}

func doctor(outputRoot string) DoctorResult {
	checks := make([]DoctorCheck, 0, len(requiredTools)+1)
	for _, tool := range requiredTools {
		path, err := proc.LookTool(tool)
		msg := tool + " found at " + path
		if err != nil {
			msg = err.Error()
		}
		checks = append(checks, DoctorCheck{
			Name:    "dependency:" + tool,
			OK:      err == nil,
			Message: msg,
		})
	}

	dirOK, dirMessage := ensureWritableDir(outputRoot)
	checks = append(checks, DoctorCheck{
		Name:    "directory:output",
		OK:      dirOK,
		Message: dirMessage,
	})

	ok := true
	for _, c := range checks {
		if !c.OK {
			ok = false
			break
		}
	}
	return DoctorResult{OK: ok, Checks: checks}
}

func ensureWritableDir(path string) (bool, string) {
	if strings.TrimSpace(path) == "" {
		return false, "empty path"
	}
	if err := runstore.Mkdir(path); err != nil {
		return false, err.Error()
	}
	f, err := os.CreateTemp(path, "slsk-audio-pipeline-check-*.tmp")
	if err != nil {
		return false, err.Error()
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return true, "writable"
}
