package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/Dicklesworthstone/parabank-qa/internal/config"
)

// ErrMissingAPIKey is returned when no Resend API key is configured.
var ErrMissingAPIKey = errors.New("RESEND_API_KEY is not set")

// ErrNoRecipients is returned when the email has nowhere to go.
var ErrNoRecipients = errors.New("EMAIL_RECIPIENT is not set")

// Email sends plain-text mail through Resend.
type Email struct {
	from   string
	to     []string
	apiKey string
	client *resend.Client
}

// EmailOption configures the Resend client.
type EmailOption func(*emailSettings)

type emailSettings struct {
	httpClient *http.Client
	baseURL    string
}

// WithEmailHTTPClient sets the HTTP client used for the Resend API.
func WithEmailHTTPClient(hc *http.Client) EmailOption {
	return func(s *emailSettings) { s.httpClient = hc }
}

// WithEmailBaseURL points the client at another API root.
func WithEmailBaseURL(u string) EmailOption {
	return func(s *emailSettings) { s.baseURL = u }
}

// NewEmail returns the email channel.
func NewEmail(cfg config.EmailConfig, opts ...EmailOption) *Email {
	var s emailSettings
	for _, opt := range opts {
		opt(&s)
	}
	key := strings.TrimSpace(cfg.APIKey)
	client := resend.NewCustomClient(s.httpClient, key)
	if s.baseURL != "" {
		base := s.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		if u, err := url.Parse(base); err == nil {
			client.BaseURL = u
		}
	}
	var to []string
	for _, addr := range cfg.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	return &Email{from: cfg.From, to: to, apiKey: key, client: client}
}

// Name implements Channel.
func (e *Email) Name() string { return ChannelEmail }

// Send implements Channel.
func (e *Email) Send(ctx context.Context, msg Message) error {
	if e.apiKey == "" {
		return ErrMissingAPIKey
	}
	if len(e.to) == 0 {
		return ErrNoRecipients
	}
	resp, err := e.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    e.from,
		To:      e.to,
		Subject: msg.Subject,
		Text:    msg.Body,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	if resp == nil || resp.Id == "" {
		return errors.New("resend: empty response")
	}
	return nil
}
