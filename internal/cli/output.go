package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/classcal/internal/calendar"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Request rejected (validation, unknown id) or degraded health
	ExitCommandError = 2 // Command error (bad config, storage unreachable, bad arguments)
)

// Error codes reported by the CLI for failures outside the calendar taxonomy.
const (
	ErrCodeConfig  = "CONFIG"
	ErrCodeUsage   = "USAGE"
	ErrCodeGeneric = "ERROR"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set once an OutputFormatter has written the error, so
	// callers do not print it again.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // calendar error code or one of the ErrCode constants
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result. Text output prints data with %v unless
// it implements fmt.Stringer.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Usage reports a command-line mistake (unknown flag, wrong argument count,
// malformed id) and returns an ExitCommandError.
func (f *OutputFormatter) Usage(err error) error {
	_ = f.Error(ErrCodeUsage, err.Error(), nil)
	return reported(WrapExitError(ExitCommandError, "usage", err))
}

// Fail reports err and returns the ExitError the command should return.
// Validation and not-found errors exit 1; everything else exits 2 and only
// shows the cause in verbose mode.
func (f *OutputFormatter) Fail(err error) error {
	var ce *calendar.Error
	if errors.As(err, &ce) {
		switch ce.Code {
		case calendar.ErrCodeValidation, calendar.ErrCodeNotFound:
			_ = f.Error(string(ce.Code), ce.Message, nil)
			return reported(WrapExitError(ExitFailure, ce.Message, err))
		default:
			var details any
			if ce.Err != nil {
				details = ce.Err.Error()
			}
			_ = f.Error(string(ce.Code), ce.Message, details)
			return reported(WrapExitError(ExitCommandError, ce.Message, err))
		}
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		_ = f.Error(ErrCodeGeneric, exitErr.Error(), nil)
		return reported(exitErr)
	}
	_ = f.Error(ErrCodeGeneric, err.Error(), nil)
	return reported(WrapExitError(ExitCommandError, "command failed", err))
}

func reported(e *ExitError) *ExitError {
	e.Reported = true
	return e
}

// IsReported reports whether err carries an ExitError that was already
// written by an OutputFormatter.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// encode writes v as one JSON line. Event text is stored escaped, so HTML
// escaping is disabled here.
func (f *OutputFormatter) encode(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
