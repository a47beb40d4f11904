package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aifoundary/aifoundary/internal/config"
	"github.com/aifoundary/aifoundary/internal/domain"
	"github.com/google/uuid"
)

// Webhook request headers
const (
	HeaderSignature = "X-AIFoundary-Signature"
	HeaderDelivery  = "X-AIFoundary-Delivery"
)

// WebhookPayload is the document posted to the webhook endpoint
type WebhookPayload struct {
	Repository string             `json:"repository"`
	Risks      []domain.FileRisks `json:"risks"`
	Mode       domain.Mode        `json:"mode"`
}

// Webhook posts the full result to an external endpoint. Delivery is a
// single attempt.
type Webhook struct {
	config     config.WebhookConfig
	repository string
	mode       domain.Mode
	client     *http.Client
}

// NewWebhook creates a webhook sink
func NewWebhook(cfg config.WebhookConfig, repository string, mode domain.Mode) *Webhook {
	return &Webhook{
		config:     cfg,
		repository: repository,
		mode:       mode,
		client:     &http.Client{Timeout: DefaultTimeout},
	}
}

// Name implements report.Sink.
func (w *Webhook) Name() string {
	return "webhook"
}

// Report implements report.Sink.
func (w *Webhook) Report(ctx context.Context, result *domain.ScanResult) error {
	if result.Empty() || !w.config.Enabled || w.config.URL == "" {
		return nil
	}

	body, err := json.Marshal(WebhookPayload{
		Repository: w.repository,
		Risks:      result.Files,
		Mode:       w.mode,
	})
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderDelivery, uuid.NewString())
	if w.config.Secret != "" {
		req.Header.Set(HeaderSignature, "sha256="+Sign(body, w.config.Secret))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of payload keyed by secret
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
