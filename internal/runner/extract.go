package runner

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Extract converts a RawExecution into an Outcome.
//
// On a clean exit, stdout is scanned line by line from the last line to the
// first for a JSON object carrying a "success" field. imi prints
// human-oriented progress and banners before its final machine-readable
// line, so later lines win. Lines that fail to decode or lack the field are
// skipped. If no such line exists, the run still counts as a success with
// the raw text retained: some imi commands only produce human output.
//
// On a non-zero exit the error message prefers the runner diagnostic, then
// stderr, then stdout, then a generated fallback.
func Extract(raw *RawExecution) Outcome {
	if raw.ExitCode != ExitOK {
		return Outcome{
			OK:       false,
			Error:    failureMessage(raw),
			Stdout:   raw.Stdout,
			Stderr:   raw.Stderr,
			ExitCode: raw.ExitCode,
		}
	}

	lines := strings.Split(raw.Stdout, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			continue
		}
		v, found := obj["success"]
		if !found {
			continue
		}

		out := Outcome{
			OK:       truthy(v),
			Payload:  obj["data"],
			Stdout:   raw.Stdout,
			ExitCode: ExitOK,
		}
		if !out.OK {
			out.Error = stringify(obj["error"])
			if out.Error == "" {
				out.Error = "command reported failure"
			}
		}
		return out
	}

	// No structured line anywhere: plain text is still a success.
	return Outcome{
		OK:       true,
		Stdout:   raw.Stdout,
		Stderr:   raw.Stderr,
		ExitCode: ExitOK,
	}
}

func failureMessage(raw *RawExecution) string {
	switch {
	case raw.Diag != "":
		return raw.Diag
	case raw.Stderr != "":
		return raw.Stderr
	case raw.Stdout != "":
		return raw.Stdout
	}
	return fmt.Sprintf("Command failed with exit code %d", raw.ExitCode)
}

// truthy mirrors the loose truthiness of the wrapped CLI's JSON: null,
// false, zero, and empty string read as failure, anything else as success.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	}
	return true
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	return fmt.Sprint(v)
}
