// Package advise asks an LLM for a short remediation note on scan results.
package advise

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aifoundary/aifoundary/internal/config"
	"github.com/aifoundary/aifoundary/internal/domain"
	"github.com/aifoundary/aifoundary/internal/patterns"
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	oai "github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/openai/openai-go/option"
)

// ErrNoAPIKey is returned when no credential is configured for the provider
var ErrNoAPIKey = errors.New("advisor: no API key configured")

const (
	adviceTimeout = 30 * time.Second
	maxAdviceLen  = 4000
)

// generateFunc produces model text for a prompt
type generateFunc func(ctx context.Context, prompt string) (string, error)

// Advisor writes remediation notes with an LLM
type Advisor struct {
	registry *patterns.Registry
	logger   *log.Logger
	modelID  string
	generate generateFunc
}

// New initializes the configured provider. It fails fast when no key is
// available so callers can skip the advisor entirely.
func New(ctx context.Context, cfg config.AdvisorConfig, registry *patterns.Registry, logger *log.Logger) (*Advisor, error) {
	if logger == nil {
		logger = log.Default()
	}

	var g *genkit.Genkit
	var modelID string

	switch cfg.Provider {
	case "openai":
		// OpenAI-compatible API (Zhipu AI, etc.)
		apiKey := firstNonEmpty(cfg.APIKey, os.Getenv("OPENAI_API_KEY"), os.Getenv("ZHIPU_API_KEY"))
		if apiKey == "" {
			return nil, ErrNoAPIKey
		}

		var opts []option.RequestOption
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}

		modelID = qualify("openai", cfg.Model, "gpt-4o-mini")
		g = genkit.Init(ctx,
			genkit.WithDefaultModel(modelID),
			genkit.WithPlugins(&oai.OpenAI{
				APIKey: apiKey,
				Opts:   opts,
			}),
		)

	case "googleai":
		apiKey := firstNonEmpty(cfg.APIKey, os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY"))
		if apiKey == "" {
			return nil, ErrNoAPIKey
		}

		modelID = qualify("googleai", cfg.Model, "gemini-2.0-flash")
		g = genkit.Init(ctx,
			genkit.WithDefaultModel(modelID),
			genkit.WithPlugins(&googlegenai.GoogleAI{
				APIKey: apiKey,
			}),
		)

	default:
		return nil, fmt.Errorf("advisor: unknown provider %q", cfg.Provider)
	}

	a := &Advisor{
		registry: registry,
		logger:   logger,
		modelID:  modelID,
	}
	a.generate = func(ctx context.Context, prompt string) (string, error) {
		return genkit.GenerateText(ctx, g,
			ai.WithModelName(modelID),
			ai.WithPrompt(prompt),
		)
	}
	return a, nil
}

// Model returns the provider-qualified model name
func (a *Advisor) Model() string {
	return a.modelID
}

// Advise returns a markdown remediation note for result
func (a *Advisor) Advise(ctx context.Context, result *domain.ScanResult) (string, error) {
	if result.Empty() {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, adviceTimeout)
	defer cancel()

	answer, err := a.generate(ctx, a.buildPrompt(result))
	if err != nil {
		return "", fmt.Errorf("generating advice: %w", err)
	}

	advice := cleanResponse(answer)
	if advice == "" {
		return "", errors.New("advisor returned an empty response")
	}
	return advice, nil
}

func (a *Advisor) buildPrompt(result *domain.ScanResult) string {
	var sb strings.Builder

	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n## Risk Categories\n\n")

	seen := make(map[domain.RiskKind]bool)
	for _, f := range result.Files {
		for _, k := range f.Kinds {
			if seen[k] {
				continue
			}
			seen[k] = true
			if d, ok := a.registry.Lookup(k); ok {
				sb.WriteString(fmt.Sprintf("- %s: %s. %s\n", k, d.Description, d.Rationale))
			} else {
				sb.WriteString(fmt.Sprintf("- %s\n", k))
			}
		}
	}

	sb.WriteString("\n## Flagged Files\n\n")
	for _, f := range result.Files {
		kinds := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			kinds[i] = string(k)
		}
		sb.WriteString(fmt.Sprintf("- %s: %s\n", f.Path, strings.Join(kinds, ", ")))
	}

	sb.WriteString(outputInstructions)
	return sb.String()
}

// cleanResponse strips a wrapping code fence and bounds the length
func cleanResponse(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		if nl := strings.IndexByte(text, '\n'); nl != -1 {
			text = text[nl+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
		if idx := strings.LastIndex(text, "```"); idx != -1 {
			text = text[:idx]
		}
	}

	text = strings.TrimSpace(text)
	if len(text) > maxAdviceLen {
		text = strings.ToValidUTF8(text[:maxAdviceLen], "") + "…"
	}
	return text
}

func qualify(provider, model, fallback string) string {
	if model == "" {
		model = fallback
	}
	// Genkit expects provider-prefixed model names
	if !strings.Contains(model, "/") {
		model = provider + "/" + model
	}
	return model
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

const systemPrompt = `You are a security engineer reviewing how a codebase integrates large language models. A lexical scanner flagged the files below. You only see file paths and risk categories, not the code.

Write a short remediation note for the pull request author:
- One bullet per risk category, with a concrete fix
- Mention file paths only when it helps
- No more than 150 words
- Do not speculate about code you have not seen`

const outputInstructions = `
Respond with GitHub-flavored markdown bullets only, no headings and no preamble.`
