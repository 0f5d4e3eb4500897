// Package notify delivers the run report through the configured channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/parabank-qa/internal/config"
	"github.com/Dicklesworthstone/parabank-qa/internal/logging"
)

// Channel names.
const (
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
)

// Message is a plain-text notification.
type Message struct {
	Subject string
	Body    string
}

// Channel delivers messages to one destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Notifier fans a message out to every channel.
type Notifier struct {
	channels []Channel
	logger   *log.Logger
}

// New returns a Notifier over channels.
func New(logger *log.Logger, channels ...Channel) *Notifier {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Notifier{channels: channels, logger: logger.WithPrefix("notify")}
}

// FromConfig builds the enabled channels. Email without an API key or
// recipient is still built and fails on Send, so the problem shows up in the
// run log rather than silently dropping the report.
func FromConfig(cfg config.NotifyConfig, logger *log.Logger, opts ...EmailOption) (*Notifier, error) {
	var channels []Channel
	if cfg.Email.Enabled {
		channels = append(channels, NewEmail(cfg.Email, opts...))
	}
	if cfg.Webhook.Enabled {
		wh, err := NewWebhook(cfg.Webhook)
		if err != nil {
			return nil, err
		}
		channels = append(channels, wh)
	}
	return New(logger, channels...), nil
}

// Channels lists the channel names in order.
func (n *Notifier) Channels() []string {
	names := make([]string, len(n.channels))
	for i, c := range n.channels {
		names[i] = c.Name()
	}
	return names
}

// Notify sends msg on every channel concurrently. One channel failing does
// not stop the others; all failures are joined.
func (n *Notifier) Notify(ctx context.Context, msg Message) error {
	if len(n.channels) == 0 {
		n.logger.Debug("no notification channels enabled")
		return nil
	}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	for _, c := range n.channels {
		g.Go(func() error {
			if err := c.Send(ctx, msg); err != nil {
				n.logger.Warn("notification failed", "channel", c.Name(), "err", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
				mu.Unlock()
				return nil
			}
			n.logger.Info("notification sent", "channel", c.Name())
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
