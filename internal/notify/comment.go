// Package notify delivers scan results to remote services.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aifoundary/aifoundary/internal/config"
	"github.com/aifoundary/aifoundary/internal/domain"
	"github.com/aifoundary/aifoundary/internal/report"
)

// DefaultTimeout bounds every outbound request
const DefaultTimeout = 10 * time.Second

const commentFooter = "> AIFoundary flags hardcoded prompts, model calls without a guard layer and dynamic code execution, " +
	"because each lets untrusted model input or output reach production without review."

// Advisor produces an optional remediation note for a result
type Advisor interface {
	Advise(ctx context.Context, result *domain.ScanResult) (string, error)
}

// CommentPoster posts a summary comment on the current pull request
type CommentPoster struct {
	config  config.GitHubConfig
	client  *http.Client
	advisor Advisor
	logger  *log.Logger
}

// NewCommentPoster creates a comment sink. advisor may be nil.
func NewCommentPoster(cfg config.GitHubConfig, advisor Advisor, logger *log.Logger) *CommentPoster {
	if logger == nil {
		logger = log.Default()
	}
	return &CommentPoster{
		config:  cfg,
		client:  &http.Client{Timeout: DefaultTimeout},
		advisor: advisor,
		logger:  logger,
	}
}

// Name implements report.Sink.
func (p *CommentPoster) Name() string {
	return "comment"
}

// Report implements report.Sink. Without a token or a pull request context
// it does nothing.
func (p *CommentPoster) Report(ctx context.Context, result *domain.ScanResult) error {
	if result.Empty() || p.config.Token == "" {
		return nil
	}

	endpoint, err := CommentURL(p.config)
	if err != nil {
		p.logger.Printf("Warning: cannot derive comment endpoint: %v", err)
		return nil
	}
	if endpoint == "" {
		return nil
	}

	advice := ""
	if p.advisor != nil {
		advice, err = p.advisor.Advise(ctx, result)
		if err != nil {
			p.logger.Printf("Warning: remediation advice unavailable: %v", err)
			advice = ""
		}
	}

	return p.post(ctx, endpoint, BuildCommentBody(result, advice))
}

func (p *CommentPoster) post(ctx context.Context, endpoint, body string) error {
	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return fmt.Errorf("encoding comment: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.config.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting comment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("comment endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// BuildCommentBody renders the pull request comment
func BuildCommentBody(result *domain.ScanResult, advice string) string {
	var sb strings.Builder

	sb.WriteString("## 🚨 AIFoundary: AI risks detected\n\n")
	for _, f := range result.Files {
		sb.WriteString(fmt.Sprintf("- `%s`: %s\n", f.Path, report.JoinKinds(f.Kinds)))
	}

	if advice = strings.TrimSpace(advice); advice != "" {
		sb.WriteString("\n### Suggested remediation\n\n")
		sb.WriteString(advice)
		sb.WriteString("\n")
	}

	sb.WriteString("\n---\n")
	sb.WriteString(commentFooter)
	sb.WriteString("\n")

	return sb.String()
}

// pullRequestEvent is the part of the host event payload we need
type pullRequestEvent struct {
	PullRequest *struct {
		Number      int    `json:"number"`
		CommentsURL string `json:"comments_url"`
	} `json:"pull_request"`
	Issue *struct {
		CommentsURL string           `json:"comments_url"`
		PullRequest *json.RawMessage `json:"pull_request"`
	} `json:"issue"`
}

// CommentURL derives the comments endpoint for the current pull request from
// the host event payload. It returns "" when the run is not tied to one.
func CommentURL(cfg config.GitHubConfig) (string, error) {
	if cfg.EventPath == "" {
		return "", nil
	}

	data, err := os.ReadFile(cfg.EventPath)
	if err != nil {
		return "", fmt.Errorf("reading event payload: %w", err)
	}

	var evt pullRequestEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return "", fmt.Errorf("parsing event payload: %w", err)
	}

	if pr := evt.PullRequest; pr != nil {
		if pr.CommentsURL != "" {
			return pr.CommentsURL, nil
		}
		if pr.Number > 0 && cfg.Repository != "" && cfg.APIURL != "" {
			return fmt.Sprintf("%s/repos/%s/issues/%d/comments",
				strings.TrimSuffix(cfg.APIURL, "/"), cfg.Repository, pr.Number), nil
		}
	}

	// Comments on a pull request arrive as issue events carrying a pull_request link
	if issue := evt.Issue; issue != nil && issue.PullRequest != nil {
		return issue.CommentsURL, nil
	}

	return "", nil
}
