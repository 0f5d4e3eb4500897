package output

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
)

// Formatter writes command results either as text or as JSON.
type Formatter struct {
	w    io.Writer
	json bool
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithWriter sets the destination. Defaults to stdout.
func WithWriter(w io.Writer) Option {
	return func(f *Formatter) { f.w = w }
}

// WithJSON switches to JSON output.
func WithJSON(enabled bool) Option {
	return func(f *Formatter) { f.json = enabled }
}

// New returns a Formatter.
func New(opts ...Option) *Formatter {
	f := &Formatter{w: os.Stdout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// IsJSON reports whether the formatter emits JSON.
func (f *Formatter) IsJSON() bool { return f.json }

// Writer returns the destination.
func (f *Formatter) Writer() io.Writer { return f.w }

// JSON writes v as indented JSON.
func (f *Formatter) JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(f.w, string(data))
	return err
}

// Text writes a line in text mode only.
func (f *Formatter) Text(format string, args ...any) {
	if f.json {
		return
	}
	fmt.Fprintf(f.w, format+"\n", args...)
}

type errorPayload struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// CodedError carries a stable code for scripting.
type CodedError struct {
	Code    string
	Message string
}

func (e *CodedError) Error() string { return e.Code + ": " + e.Message }

// Error returns err unchanged. In JSON mode it is also written out.
func (f *Formatter) Error(err error) error {
	if f.json {
		_ = f.JSON(errorPayload{Error: err.Error()})
	}
	return err
}

// ErrorMsg is Error for a plain message.
func (f *Formatter) ErrorMsg(msg string) error {
	return f.Error(fmt.Errorf("%s", msg))
}

// ErrorWithCode returns a CodedError, writing it out in JSON mode.
func (f *Formatter) ErrorWithCode(code, msg string) error {
	err := &CodedError{Code: code, Message: msg}
	if f.json {
		_ = f.JSON(errorPayload{Error: msg, Code: code})
	}
	return err
}
