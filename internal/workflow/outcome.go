package workflow

// Outcome classifies a pipeline run for the caller's exit code.
type Outcome int

const (
	// OutcomeSuccess means every processed episode advanced cleanly.
	OutcomeSuccess Outcome = iota
	// OutcomePartial means the run finished but some episodes failed or the
	// failure report could not be sent.
	OutcomePartial
	// OutcomeFatal means the run itself could not proceed.
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePartial:
		return "partial"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ExitCode maps the outcome to the process exit code contract.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeSuccess:
		return 0
	case OutcomePartial:
		return 1
	default:
		return 2
	}
}

// RunStats summarizes one pipeline run.
type RunStats struct {
	Admitted  int
	Processed int
	Completed int
	Failed    int
}
