package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/Dicklesworthstone/parabank-qa/internal/logging"
	"github.com/Dicklesworthstone/parabank-qa/internal/notify"
	"github.com/Dicklesworthstone/parabank-qa/internal/redaction"
	"github.com/Dicklesworthstone/parabank-qa/internal/results"
)

// Sender delivers the rendered body.
type Sender interface {
	Notify(ctx context.Context, msg notify.Message) error
}

// Emitter loads the results artifact, writes the report body and sends it.
type Emitter struct {
	ResultsPath string
	OutputPath  string
	Subject     string
	Run         RunInfo
	// Redact scrubs credentials and personal data from the body. The zero
	// value leaves it untouched.
	Redact redaction.Mode
	// Sender may be nil, in which case nothing is sent.
	Sender Sender
	Logger *log.Logger
}

// Outcome describes what Emit did.
type Outcome struct {
	Body     string
	Fallback bool
	// Cause is why the fallback body was written.
	Cause error
	// SendErr is the delivery failure, if any. It never affects the body.
	SendErr error
	// Findings lists what redaction matched.
	Findings []redaction.Finding
}

// Emit writes the report to OutputPath and sends it. When the report cannot
// be built a fallback naming the failure is written instead and nothing is
// sent. The returned error is non-nil only when not even the fallback could
// be written.
func (e *Emitter) Emit(ctx context.Context) (*Outcome, error) {
	logger := e.logger()
	out := &Outcome{}
	body, err := e.build()
	if err == nil && e.Redact != "" {
		res := redaction.Apply(body, e.Redact)
		body, out.Findings = res.Output, res.Findings
		for _, f := range res.Findings {
			logger.Warn("sensitive value in report", "category", f.Category, "mode", e.Redact, "placeholder", f.Redacted)
		}
	}
	if err == nil {
		err = writeBody(e.OutputPath, body)
	}
	if err != nil {
		return e.Fail(err)
	}
	out.Body = body
	logger.Info("email body generated", "path", e.OutputPath)

	if e.Sender != nil {
		logger.Info("sending report")
		if serr := e.Sender.Notify(ctx, notify.Message{Subject: e.Subject, Body: body}); serr != nil {
			out.SendErr = serr
			logger.Warn("failed to send report", "err", serr)
		}
	}
	return out, nil
}

// Fail writes the fallback body naming cause without reading the results.
// Callers use it when the report cannot even be attempted, such as when the
// configuration does not load.
func (e *Emitter) Fail(cause error) (*Outcome, error) {
	e.logger().Error("failed to generate email report", "err", cause)
	out := &Outcome{Fallback: true, Cause: cause, Body: Fallback(cause, e.Run)}
	if werr := writeBody(e.OutputPath, out.Body); werr != nil {
		out.Body = ""
		return out, errors.Join(cause, werr)
	}
	return out, nil
}

func (e *Emitter) logger() *log.Logger {
	l := e.Logger
	if l == nil {
		l = logging.Discard()
	}
	return l.WithPrefix("report")
}

// build loads and renders, converting a panic into an error.
func (e *Emitter) build() (body string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("render: %v", p)
		}
	}()
	rep, err := results.Load(e.ResultsPath)
	if err != nil {
		return "", err
	}
	return Render(rep, e.Run), nil
}

func writeBody(path, body string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
