// Package patterns holds the lexical detectors applied to scanned files.
package patterns

import (
	"fmt"
	"regexp"

	"github.com/aifoundary/aifoundary/internal/domain"
)

// Detector pairs a risk kind with the case-insensitive pattern that flags it
type Detector struct {
	Kind        domain.RiskKind
	Description string
	Rationale   string
	re          *regexp.Regexp
}

// Pattern returns the source of the detector's expression
func (d Detector) Pattern() string {
	return d.re.String()
}

// Match reports whether the pattern occurs anywhere in content
func (d Detector) Match(content []byte) bool {
	return d.re.Match(content)
}

// NewDetector compiles pattern case-insensitively.
func NewDetector(kind domain.RiskKind, pattern, description, rationale string) (Detector, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return Detector{}, fmt.Errorf("compiling %s pattern: %w", kind, err)
	}
	return Detector{
		Kind:        kind,
		Description: description,
		Rationale:   rationale,
		re:          re,
	}, nil
}

// Registry is an ordered, immutable set of detectors with unique kinds
type Registry struct {
	detectors []Detector
}

// NewRegistry builds a registry, rejecting duplicate risk kinds
func NewRegistry(detectors ...Detector) (*Registry, error) {
	seen := make(map[domain.RiskKind]struct{}, len(detectors))
	out := make([]Detector, 0, len(detectors))
	for _, d := range detectors {
		if d.re == nil {
			return nil, fmt.Errorf("detector %s has no pattern", d.Kind)
		}
		if _, dup := seen[d.Kind]; dup {
			return nil, fmt.Errorf("duplicate detector: %s", d.Kind)
		}
		seen[d.Kind] = struct{}{}
		out = append(out, d)
	}
	return &Registry{detectors: out}, nil
}

// Detectors returns a copy of the registered detectors in registration order
func (r *Registry) Detectors() []Detector {
	out := make([]Detector, len(r.detectors))
	copy(out, r.detectors)
	return out
}

// Lookup finds the detector registered for kind
func (r *Registry) Lookup(kind domain.RiskKind) (Detector, bool) {
	for _, d := range r.detectors {
		if d.Kind == kind {
			return d, true
		}
	}
	return Detector{}, false
}

// Match returns the kinds whose detectors match content, in registry order
func (r *Registry) Match(content []byte) []domain.RiskKind {
	var kinds []domain.RiskKind
	for _, d := range r.detectors {
		if d.Match(content) {
			kinds = append(kinds, d.Kind)
		}
	}
	return kinds
}

// Default returns the built-in detector set
func Default() *Registry {
	reg, err := NewRegistry(
		mustDetector(domain.RiskHardcodedPrompt,
			`prompt\s*=\s*["'].*["']`,
			"Hardcoded prompt string assigned in source",
			"Prompts embedded in code cannot be reviewed, versioned or filtered separately from the application."),
		mustDetector(domain.RiskOpenAINoGuard,
			`openai\.ChatCompletion\.create`,
			"OpenAI chat completion call without a guard layer",
			"Model calls made directly from application code bypass input and output moderation."),
		mustDetector(domain.RiskLLMDirectExec,
			`(exec|eval)\s*\(`,
			"Dynamic code execution via exec or eval",
			"Executing strings at runtime lets model output become code."),
	)
	if err != nil {
		panic(err)
	}
	return reg
}

func mustDetector(kind domain.RiskKind, pattern, description, rationale string) Detector {
	d, err := NewDetector(kind, pattern, description, rationale)
	if err != nil {
		panic(err)
	}
	return d
}
