package runner

import (
	"strings"
	"testing"
)

func TestExtract_JSONAfterBanner(t *testing.T) {
	raw := &RawExecution{
		ExitCode: 0,
		Stdout:   "Cloning...\n{\"success\": true, \"data\": {\"path\": \"/x\"}}",
	}

	out := Extract(raw)
	if !out.OK {
		t.Fatalf("OK = false, want true (error: %s)", out.Error)
	}
	payload, ok := out.Payload.(map[string]any)
	if !ok {
		t.Fatalf("Payload = %T, want map", out.Payload)
	}
	if payload["path"] != "/x" {
		t.Errorf(`Payload["path"] = %v, want "/x"`, payload["path"])
	}
	if out.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", out.ExitCode)
	}
}

func TestExtract_BackwardScanPrefersLastCandidate(t *testing.T) {
	// Two lines start with "{": the first is not valid JSON, only the last
	// decodes and carries a success field.
	raw := &RawExecution{
		ExitCode: 0,
		Stdout: strings.Join([]string{
			`{this is not json`,
			`{"success": true, "data": {"which": "last"}}`,
		}, "\n"),
	}

	out := Extract(raw)
	if !out.OK {
		t.Fatalf("OK = false, want true")
	}
	payload := out.Payload.(map[string]any)
	if payload["which"] != "last" {
		t.Errorf(`Payload["which"] = %v, want "last"`, payload["which"])
	}
}

func TestExtract_SkipsJSONWithoutSuccessField(t *testing.T) {
	raw := &RawExecution{
		ExitCode: 0,
		Stdout: strings.Join([]string{
			`{"success": true, "data": {"which": "first"}}`,
			`{"progress": 100}`,
		}, "\n"),
	}

	out := Extract(raw)
	if !out.OK {
		t.Fatal("OK = false, want true")
	}
	payload := out.Payload.(map[string]any)
	if payload["which"] != "first" {
		t.Errorf(`Payload["which"] = %v, want "first" (last line lacks a success field)`, payload["which"])
	}
}

func TestExtract_PlainTextIsSuccess(t *testing.T) {
	raw := &RawExecution{ExitCode: 0, Stdout: "plain text, no JSON"}

	out := Extract(raw)
	if !out.OK {
		t.Fatal("OK = false, want true")
	}
	if out.Payload != nil {
		t.Errorf("Payload = %v, want nil", out.Payload)
	}
	if out.Stdout != "plain text, no JSON" {
		t.Errorf("Stdout = %q, want preserved verbatim", out.Stdout)
	}
}

func TestExtract_ReportedFailure(t *testing.T) {
	raw := &RawExecution{
		ExitCode: 0,
		Stdout:   `{"success": false, "error": "worktree already exists"}`,
	}

	out := Extract(raw)
	if out.OK {
		t.Fatal("OK = true, want false")
	}
	if out.Error != "worktree already exists" {
		t.Errorf("Error = %q, want the reported error", out.Error)
	}
	if out.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0 (process exited cleanly)", out.ExitCode)
	}
}

func TestExtract_ReportedFailureWithoutMessage(t *testing.T) {
	raw := &RawExecution{ExitCode: 0, Stdout: `{"success": false}`}

	out := Extract(raw)
	if out.OK {
		t.Fatal("OK = true, want false")
	}
	if out.Error == "" {
		t.Error("Error is empty, want a non-empty message on failure")
	}
}

func TestExtract_NonZeroExitPrefersStderr(t *testing.T) {
	raw := &RawExecution{ExitCode: 2, Stdout: "some output", Stderr: "permission denied"}

	out := Extract(raw)
	if out.OK {
		t.Fatal("OK = true, want false")
	}
	if out.Error != "permission denied" {
		t.Errorf("Error = %q, want %q", out.Error, "permission denied")
	}
	if out.ExitCode != 2 {
		t.Errorf("ExitCode = %d, want 2", out.ExitCode)
	}
	if out.Stdout != "some output" {
		t.Errorf("Stdout = %q, want retained", out.Stdout)
	}
}

func TestExtract_NonZeroExitFallsBackToStdout(t *testing.T) {
	raw := &RawExecution{ExitCode: 3, Stdout: "written to stdout"}

	out := Extract(raw)
	if out.Error != "written to stdout" {
		t.Errorf("Error = %q, want stdout fallback", out.Error)
	}
}

func TestExtract_NonZeroExitGeneratedMessage(t *testing.T) {
	raw := &RawExecution{ExitCode: 5}

	out := Extract(raw)
	if out.Error != "Command failed with exit code 5" {
		t.Errorf("Error = %q, want generated message", out.Error)
	}
}

func TestExtract_SentinelDiagnosticWins(t *testing.T) {
	raw := &RawExecution{ExitCode: ExitTimeout, Diag: "command timed out after 30s"}

	out := Extract(raw)
	if out.Error != "command timed out after 30s" {
		t.Errorf("Error = %q, want the runner diagnostic", out.Error)
	}
	if out.ExitCode != ExitTimeout {
		t.Errorf("ExitCode = %d, want %d", out.ExitCode, ExitTimeout)
	}
}

func TestExtract_TruthySuccessValues(t *testing.T) {
	cases := []struct {
		stdout string
		want   bool
	}{
		{`{"success": true}`, true},
		{`{"success": false}`, false},
		{`{"success": null}`, false},
		{`{"success": 1}`, true},
		{`{"success": 0}`, false},
		{`{"success": "yes"}`, true},
		{`{"success": ""}`, false},
	}
	for _, c := range cases {
		out := Extract(&RawExecution{ExitCode: 0, Stdout: c.stdout})
		if out.OK != c.want {
			t.Errorf("Extract(%s).OK = %v, want %v", c.stdout, out.OK, c.want)
		}
	}
}
