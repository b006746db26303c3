package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "fetch":
		return runFetch(args[1:])
	case "process":
		return runProcess(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("slsk-audio-pipeline: playlist acquisition and loudness pipeline")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  slsk-audio-pipeline doctor")
	fmt.Println("  slsk-audio-pipeline fetch --playlist <url> --output <dir>")
	fmt.Println("  slsk-audio-pipeline process --dir <dir>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  fetch    download a playlist, then normalize, enrich, and clean up")
	fmt.Println("  process  normalize and enrich an existing local directory")
	fmt.Println("  doctor   run dependency and filesystem preflight checks")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - Credentials resolve from flags, then SLSK_USER/SLSK_PASS, then .env")
}
