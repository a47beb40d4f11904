package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aifoundary/aifoundary/internal/domain"
)

// Console summary lines
const (
	ConsoleSuccess = "✅ No AI guardrail violations found."
	ConsoleHeader  = "🚨 AI RISK DETECTED"
)

// Console writes a plain-text summary of the result
type Console struct {
	out io.Writer
}

// NewConsole creates a console sink writing to out
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Name implements Sink.
func (c *Console) Name() string {
	return "console"
}

// Report implements Sink.
func (c *Console) Report(ctx context.Context, result *domain.ScanResult) error {
	_, err := io.WriteString(c.out, FormatConsole(result))
	return err
}

// FormatConsole renders the console summary
func FormatConsole(result *domain.ScanResult) string {
	if result.Empty() {
		return ConsoleSuccess + "\n"
	}

	var sb strings.Builder
	sb.WriteString("\n" + ConsoleHeader + "\n")
	for _, f := range result.Files {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", f.Path, JoinKinds(f.Kinds)))
	}
	return sb.String()
}

// JoinKinds renders kinds as a comma separated list
func JoinKinds(kinds []domain.RiskKind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
