package model

import "fmt"

const (
	StateIdle                 = "idle"
	StateDownloading          = "downloading"
	StateNormalizing          = "normalizing"
	StateSkippedNormalization = "skipped_normalization"
	StateEnriching            = "enriching"
	StateCleaningUp           = "cleaning_up"
	StateDone                 = "done"
)

var allowedTransitions = map[string]map[string]bool{
	StateIdle: {
		StateDownloading: true,
		StateNormalizing: true, // local-processing mode has no download stage
	},
	StateDownloading: {
		StateNormalizing:          true,
		StateSkippedNormalization: true,
	},
	StateNormalizing: {
		StateEnriching:  true,
		StateCleaningUp: true, // zero successes: enrichment is skipped
	},
	StateSkippedNormalization: {
		StateCleaningUp: true,
	},
	StateEnriching: {
		StateCleaningUp: true,
	},
	StateCleaningUp: {
		StateDone: true,
	},
	StateDone: {},
}

func IsKnownState(state string) bool {
	_, ok := allowedTransitions[state]
	return ok
}

func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// Transition advances the pipeline state or reports a sequencing bug.
func Transition(current *string, to string) error {
	if !CanTransition(*current, to) {
		return fmt.Errorf("invalid pipeline state transition: %q -> %q", *current, to)
	}
	*current = to
	return nil
}
