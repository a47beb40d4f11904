// Package policy maps a scan result and enforcement mode to a run outcome.
package policy

import "github.com/aifoundary/aifoundary/internal/domain"

// Outcome is the terminal state of a run
type Outcome string

const (
	Pass Outcome = "PASS"
	Fail Outcome = "FAIL"
)

// Process exit codes
const (
	ExitPass  = 0
	ExitFail  = 1
	ExitError = 2
)

// Decide returns Fail only when risks were found in enforce mode
func Decide(result *domain.ScanResult, mode domain.Mode) Outcome {
	if result.Empty() {
		return Pass
	}
	if mode == domain.ModeEnforce {
		return Fail
	}
	return Pass
}

// ExitCode converts an outcome to the process exit status
func ExitCode(o Outcome) int {
	if o == Fail {
		return ExitFail
	}
	return ExitPass
}

// Banner returns the closing console line for a run with findings, or ""
// when there is nothing to explain.
func Banner(result *domain.ScanResult, mode domain.Mode) string {
	if result.Empty() {
		return ""
	}
	if Decide(result, mode) == Fail {
		return "❌ ENFORCE MODE: Build failed due to unsafe AI patterns."
	}
	return "⚠️ WARN MODE: Build will continue, but AI risks were detected."
}
