package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/template"
	"time"

	json "github.com/goccy/go-json"

	"github.com/Dicklesworthstone/parabank-qa/internal/config"
)

// DefaultWebhookTemplate posts the subject and body as a JSON object.
// Fields: .Subject, .Body, .Text (subject and body joined).
const DefaultWebhookTemplate = `{"subject": "{{jsonEscape .Subject}}", "text": "{{jsonEscape .Text}}"}`

// Webhook posts a templated JSON payload.
type Webhook struct {
	url    string
	tmpl   *template.Template
	client *http.Client
}

// NewWebhook parses the payload template. Environment variables in the URL
// are expanded.
func NewWebhook(cfg config.WebhookConfig) (*Webhook, error) {
	text := cfg.Template
	if text == "" {
		text = DefaultWebhookTemplate
	}
	tmpl, err := template.New("webhook").Funcs(template.FuncMap{
		"jsonEscape": jsonEscape,
	}).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse webhook template: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{
		url:    os.ExpandEnv(cfg.URL),
		tmpl:   tmpl,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Name implements Channel.
func (w *Webhook) Name() string { return ChannelWebhook }

// Send implements Channel.
func (w *Webhook) Send(ctx context.Context, msg Message) error {
	var buf bytes.Buffer
	if err := w.tmpl.Execute(&buf, struct {
		Subject string
		Body    string
		Text    string
	}{msg.Subject, msg.Body, strings.TrimSpace(msg.Subject + "\n\n" + msg.Body)}); err != nil {
		return fmt.Errorf("render webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// jsonEscape escapes s for embedding inside a JSON string literal.
func jsonEscape(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(b[1 : len(b)-1])
}
