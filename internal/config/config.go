package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aifoundary/aifoundary/internal/domain"
	"github.com/aifoundary/aifoundary/internal/util"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when present; a missing file means defaults
const DefaultConfigPath = ".aifoundary.yml"

// Environment variables provided by the CI host
const (
	envScanPath       = "INPUT_SCAN-PATH"
	envMode           = "INPUT_MODE"
	envExtensions     = "INPUT_EXTENSIONS"
	envWorkers        = "INPUT_WORKERS"
	envOutputDir      = "INPUT_OUTPUT-DIR"
	envWebhookEnabled = "INPUT_WEBHOOK-ENABLED"
	envWebhookURL     = "INPUT_WEBHOOK-URL"
	envWebhookSecret  = "INPUT_WEBHOOK-SECRET"
	envToken          = "INPUT_GITHUB-TOKEN"
	envGitHubToken    = "GITHUB_TOKEN"
	envRepository     = "GITHUB_REPOSITORY"
	envEventPath      = "GITHUB_EVENT_PATH"
	envAPIURL         = "GITHUB_API_URL"
	envAdvisorEnabled = "INPUT_ADVISOR-ENABLED"
)

// Config holds all application configuration
type Config struct {
	RootPath   string        `yaml:"scan_path"`
	Mode       domain.Mode   `yaml:"mode"`
	Extensions []string      `yaml:"extensions"`
	Workers    int           `yaml:"workers"`
	Reports    ReportsConfig `yaml:"reports"`
	Webhook    WebhookConfig `yaml:"webhook"`
	GitHub     GitHubConfig  `yaml:"github"`
	Email      EmailConfig   `yaml:"email"`
	Advisor    AdvisorConfig `yaml:"advisor"`
	Verbose    bool          `yaml:"-"` // Set via CLI only
}

// ReportsConfig holds structured-results output settings
type ReportsConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// WebhookConfig holds external webhook delivery settings
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// GitHubConfig holds the change-request context used by the comment poster
type GitHubConfig struct {
	Token      string `yaml:"-"` // Never read from file
	Repository string `yaml:"repository"`
	EventPath  string `yaml:"event_path"`
	APIURL     string `yaml:"api_url"`
}

// EmailConfig holds email delivery settings
type EmailConfig struct {
	Enabled      bool   `yaml:"enabled"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromAddress  string `yaml:"from_address"`
	FromName     string `yaml:"from_name"`
	ToAddress    string `yaml:"to_address"`
}

// AdvisorConfig holds LLM remediation-note settings
type AdvisorConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"` // openai, googleai
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"` // Custom OpenAI-compatible endpoint
}

// Overrides captures values coming from CLI flags
type Overrides struct {
	RootPath   string
	Mode       string
	Extensions []string
	Verbose    bool
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		RootPath:   ".",
		Mode:       domain.ModeWarn,
		Extensions: []string{".py", ".js", ".ts"},
		Reports: ReportsConfig{
			OutputDir: ".",
		},
		GitHub: GitHubConfig{
			APIURL: "https://api.github.com",
		},
		Email: EmailConfig{
			SMTPPort: 587,
			FromName: "AIFoundary",
		},
		Advisor: AdvisorConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
	}
}

// Load reads the optional config file and the environment, in that order
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with an injectable environment lookup
func LoadWithEnv(path string, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}
	path = util.ExpandPath(path)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Use defaults if the implicit file doesn't exist
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg.applyEnv(getenv)

	cfg.Mode = domain.ParseMode(string(cfg.Mode))
	cfg.RootPath = util.ExpandPath(cfg.RootPath)
	cfg.Reports.OutputDir = util.ExpandPath(cfg.Reports.OutputDir)

	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(envScanPath); v != "" {
		c.RootPath = v
	}
	if v := getenv(envMode); v != "" {
		c.Mode = domain.ParseMode(v)
	}
	if v := getenv(envExtensions); v != "" {
		c.Extensions = ParseList(v)
	}
	if v := getenv(envWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := getenv(envOutputDir); v != "" {
		c.Reports.OutputDir = v
	}
	if v := getenv(envWebhookEnabled); v != "" {
		c.Webhook.Enabled = parseBool(v)
	}
	if v := getenv(envWebhookURL); v != "" {
		c.Webhook.URL = v
	}
	if v := getenv(envWebhookSecret); v != "" {
		c.Webhook.Secret = v
	}
	if v := getenv(envToken); v != "" {
		c.GitHub.Token = v
	} else if v := getenv(envGitHubToken); v != "" {
		c.GitHub.Token = v
	}
	if v := getenv(envRepository); v != "" {
		c.GitHub.Repository = v
	}
	if v := getenv(envEventPath); v != "" {
		c.GitHub.EventPath = v
	}
	if v := getenv(envAPIURL); v != "" {
		c.GitHub.APIURL = v
	}
	if v := getenv(envAdvisorEnabled); v != "" {
		c.Advisor.Enabled = parseBool(v)
	}
}

// Apply merges CLI flag overrides on top of the loaded configuration
func (c *Config) Apply(ov Overrides) {
	if ov.RootPath != "" {
		c.RootPath = util.ExpandPath(ov.RootPath)
	}
	if ov.Mode != "" {
		c.Mode = domain.ParseMode(ov.Mode)
	}
	if len(ov.Extensions) > 0 {
		c.Extensions = ov.Extensions
	}
	c.Verbose = ov.Verbose
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.RootPath == "" {
		return fmt.Errorf("scan_path is required")
	}

	if !c.Mode.Valid() {
		return fmt.Errorf("mode must be warn or enforce (got %q)", c.Mode)
	}

	if len(c.Extensions) == 0 {
		return fmt.Errorf("at least one file extension is required")
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative (got %d)", c.Workers)
	}

	if c.Email.Enabled {
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("smtp_host is required when email is enabled")
		}
		if c.Email.ToAddress == "" {
			return fmt.Errorf("to_address is required when email is enabled")
		}
	}

	return nil
}

// ParseList splits comma or newline separated values, dropping blanks
func ParseList(input string) []string {
	parts := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})

	var out []string
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
