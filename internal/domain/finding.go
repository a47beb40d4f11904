package domain

// RiskKind names a category of risky AI-integration pattern
type RiskKind string

const (
	RiskHardcodedPrompt RiskKind = "HARDCODED_PROMPT"
	RiskOpenAINoGuard   RiskKind = "OPENAI_NO_GUARD"
	RiskLLMDirectExec   RiskKind = "LLM_DIRECT_EXEC"
)

// Finding records that a risk kind occurs at least once in a file
type Finding struct {
	Path string   `json:"path"`
	Kind RiskKind `json:"kind"`
}
