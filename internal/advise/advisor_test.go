package advise

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/aifoundary/aifoundary/internal/config"
	"github.com/aifoundary/aifoundary/internal/domain"
	"github.com/aifoundary/aifoundary/internal/patterns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubAdvisor(gen generateFunc) *Advisor {
	return &Advisor{
		registry: patterns.Default(),
		logger:   log.New(io.Discard, "", 0),
		modelID:  "openai/test",
		generate: gen,
	}
}

func sample() *domain.ScanResult {
	return &domain.ScanResult{Files: []domain.FileRisks{
		{Path: "a.py", Kinds: []domain.RiskKind{domain.RiskHardcodedPrompt, domain.RiskLLMDirectExec}},
		{Path: "b.js", Kinds: []domain.RiskKind{domain.RiskLLMDirectExec}},
	}}
}

func TestAdvise(t *testing.T) {
	var prompt string
	a := newStubAdvisor(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "```markdown\n- Move prompts to templates\n```", nil
	})

	advice, err := a.Advise(context.Background(), sample())
	require.NoError(t, err)
	assert.Equal(t, "- Move prompts to templates", advice)

	assert.Contains(t, prompt, "- a.py: HARDCODED_PROMPT, LLM_DIRECT_EXEC\n")
	assert.Contains(t, prompt, "- b.js: LLM_DIRECT_EXEC\n")
	assert.Equal(t, 1, strings.Count(prompt, "- LLM_DIRECT_EXEC: "), "categories listed once")
}

func TestAdvise_EmptyResultSkipsModel(t *testing.T) {
	called := false
	a := newStubAdvisor(func(context.Context, string) (string, error) {
		called = true
		return "", nil
	})

	advice, err := a.Advise(context.Background(), &domain.ScanResult{})
	require.NoError(t, err)
	assert.Empty(t, advice)
	assert.False(t, called)
}

func TestAdvise_Errors(t *testing.T) {
	a := newStubAdvisor(func(context.Context, string) (string, error) {
		return "", errors.New("rate limited")
	})
	_, err := a.Advise(context.Background(), sample())
	assert.ErrorContains(t, err, "rate limited")

	a = newStubAdvisor(func(context.Context, string) (string, error) {
		return "   ", nil
	})
	_, err = a.Advise(context.Background(), sample())
	assert.Error(t, err)
}

func TestCleanResponse(t *testing.T) {
	assert.Equal(t, "- fix it", cleanResponse("  - fix it \n"))
	assert.Equal(t, "- fix it", cleanResponse("```\n- fix it\n```"))

	long := cleanResponse(strings.Repeat("x", maxAdviceLen+100))
	assert.True(t, strings.HasSuffix(long, "…"))
	assert.Equal(t, maxAdviceLen+len("…"), len(long))
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "openai/gpt-4o-mini", qualify("openai", "", "gpt-4o-mini"))
	assert.Equal(t, "openai/glm-4.7", qualify("openai", "glm-4.7", "gpt-4o-mini"))
	assert.Equal(t, "vertexai/gemini", qualify("googleai", "vertexai/gemini", "x"))
}

func TestNew_RequiresKey(t *testing.T) {
	for _, env := range []string{"OPENAI_API_KEY", "ZHIPU_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(env, "")
	}

	_, err := New(context.Background(), config.AdvisorConfig{Provider: "openai"}, patterns.Default(), nil)
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = New(context.Background(), config.AdvisorConfig{Provider: "googleai"}, patterns.Default(), nil)
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = New(context.Background(), config.AdvisorConfig{Provider: "bedrock", APIKey: "k"}, patterns.Default(), nil)
	assert.ErrorContains(t, err, "unknown provider")
}
