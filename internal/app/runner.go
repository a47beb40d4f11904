package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aifoundary/aifoundary/internal/advise"
	"github.com/aifoundary/aifoundary/internal/config"
	"github.com/aifoundary/aifoundary/internal/domain"
	"github.com/aifoundary/aifoundary/internal/git"
	"github.com/aifoundary/aifoundary/internal/notify"
	"github.com/aifoundary/aifoundary/internal/patterns"
	"github.com/aifoundary/aifoundary/internal/policy"
	"github.com/aifoundary/aifoundary/internal/report"
	"github.com/aifoundary/aifoundary/internal/scanner"
	"github.com/aifoundary/aifoundary/internal/util"
)

// Runner orchestrates a single scan, report and policy pass
type Runner struct {
	config   *config.Config
	logger   *log.Logger
	out      io.Writer
	registry *patterns.Registry
	scanner  *scanner.Scanner
	git      *git.Client
	advisor  notify.Advisor
}

// NewRunner creates a new Runner writing its report to out
func NewRunner(cfg *config.Config, out io.Writer) *Runner {
	logger := log.New(os.Stderr, "[aifoundary] ", log.LstdFlags)
	registry := patterns.Default()

	return &Runner{
		config:   cfg,
		logger:   logger,
		out:      out,
		registry: registry,
		scanner:  scanner.New(registry, cfg.Workers, logger),
		git:      git.NewClient(),
		// advisor initialized in Run() after validation
	}
}

// Run executes the pipeline. The error is non-nil only for failures that
// prevent a decision, such as an unreadable scan root.
func (r *Runner) Run(ctx context.Context) (policy.Outcome, error) {
	startTime := time.Now()

	if err := r.config.Validate(); err != nil {
		return "", fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Fprintf(r.out, "🔍 AIFoundary scanning path: %s\n", r.config.RootPath)
	fmt.Fprintf(r.out, "🛡️ Mode: %s\n", strings.ToUpper(string(r.config.Mode)))

	r.log("Scanning for files ending in %v...", r.config.Extensions)
	result, err := r.scanner.Scan(ctx, r.config.RootPath, r.config.Extensions)
	if err != nil {
		return "", fmt.Errorf("scanning %s: %w", r.config.RootPath, err)
	}
	r.log("Found %d risks in %d files", result.FindingCount(), result.Len())

	if r.config.Advisor.Enabled && !result.Empty() {
		r.initAdvisor(ctx)
	}

	failures := report.Dispatch(ctx, r.logger, result, r.sinks(ctx, result)...)
	if len(failures) > 0 {
		r.log("%d report sinks failed", len(failures))
	}

	outcome := policy.Decide(result, r.config.Mode)
	if banner := policy.Banner(result, r.config.Mode); banner != "" {
		fmt.Fprintf(r.out, "\n%s\n", banner)
	}

	r.log("Scan complete in %s: %s", time.Since(startTime).Round(time.Millisecond), outcome)
	return outcome, nil
}

func (r *Runner) sinks(ctx context.Context, result *domain.ScanResult) []report.Sink {
	sinks := []report.Sink{
		report.NewConsole(r.out),
		report.NewSARIFWriter(r.config.Reports.OutputDir, r.registry),
	}

	// Remote sinks never fire on an empty result, so skip resolving identity
	if result.Empty() {
		return sinks
	}

	repo := r.repository(ctx)
	sinks = append(sinks,
		notify.NewCommentPoster(r.config.GitHub, r.advisor, r.logger),
		notify.NewWebhook(r.config.Webhook, repo, r.config.Mode),
	)
	if r.config.Email.Enabled {
		sinks = append(sinks, notify.NewEmail(r.config.Email, repo, r.config.Mode, r.logger))
	}
	return sinks
}

// repository prefers the configured identifier and falls back to the origin remote
func (r *Runner) repository(ctx context.Context) string {
	if r.config.GitHub.Repository != "" {
		return r.config.GitHub.Repository
	}

	dir := r.config.RootPath
	if util.FileExists(dir) {
		dir = filepath.Dir(dir)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	id, err := r.git.RepoIdentifier(ctx, dir)
	if err != nil {
		r.log("No repository identifier: %v", err)
		return ""
	}
	return id
}

func (r *Runner) initAdvisor(ctx context.Context) {
	if r.advisor != nil {
		return
	}

	r.log("Initializing remediation advisor...")
	a, err := advise.New(ctx, r.config.Advisor, r.registry, r.logger)
	if err != nil {
		if errors.Is(err, advise.ErrNoAPIKey) {
			r.logger.Printf("Warning: advisor enabled but no API key found, skipping remediation notes")
		} else {
			r.logger.Printf("Warning: advisor unavailable: %v", err)
		}
		return
	}
	r.log("Using model %s", a.Model())
	r.advisor = a
}

func (r *Runner) log(format string, args ...interface{}) {
	if r.config.Verbose {
		r.logger.Printf(format, args...)
	}
}
