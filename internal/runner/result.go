package runner

// RawExecution holds the unprocessed result of one invocation.
type RawExecution struct {
	RunID    string // unique identifier for this run, for log correlation
	ExitCode int    // process exit code, or a sentinel (1, 124, 127)
	Stdout   string // captured stdout, whitespace-trimmed (may be truncated)
	Stderr   string // captured stderr, whitespace-trimmed (may be truncated)
	Diag     string // runner diagnostic for not-found, timeout, and spawn failure
}

// Outcome is the normalised result surfaced to callers.
//
// OK and Error are mutually consistent: a successful Outcome carries no
// error message, a failed one always carries a non-empty message.
type Outcome struct {
	OK       bool   `json:"success"`
	Payload  any    `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode int    `json:"exit_code"`
}
