package policy

import (
	"testing"

	"github.com/aifoundary/aifoundary/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	risky := domain.Aggregate([]domain.Finding{{Path: "a.py", Kind: domain.RiskLLMDirectExec}})
	empty := domain.Aggregate(nil)

	tests := []struct {
		name     string
		result   *domain.ScanResult
		mode     domain.Mode
		want     Outcome
		wantExit int
	}{
		{"empty warn", empty, domain.ModeWarn, Pass, 0},
		{"empty enforce", empty, domain.ModeEnforce, Pass, 0},
		{"nil enforce", nil, domain.ModeEnforce, Pass, 0},
		{"risky warn", risky, domain.ModeWarn, Pass, 0},
		{"risky enforce", risky, domain.ModeEnforce, Fail, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.result, tt.mode)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantExit, ExitCode(got))
		})
	}
}

func TestBanner(t *testing.T) {
	risky := domain.Aggregate([]domain.Finding{{Path: "a.py", Kind: domain.RiskHardcodedPrompt}})

	assert.Empty(t, Banner(domain.Aggregate(nil), domain.ModeEnforce))
	assert.Contains(t, Banner(risky, domain.ModeEnforce), "ENFORCE MODE")
	assert.Contains(t, Banner(risky, domain.ModeWarn), "WARN MODE")
}
