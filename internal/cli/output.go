package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/ammo/internal/core"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The operation ran and failed (bad file, store error, invalid item)
	ExitCommandError = 2 // The command itself was wrong (flags, arguments, configuration)
)

// ExitError carries the exit code for a failed command.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string // Shown when Err is nil or unmapped
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// fail marks an error returned by the service as an operation failure.
func fail(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: ExitFailure, Err: err}
}

// usageError reports a command that cannot run as given.
func usageError(format string, args ...any) error {
	return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf(format, args...)}
}

// GetExitCode extracts the exit code from an error. Errors raised by
// cobra itself (unknown flags, wrong argument counts) are command errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Text errors and diagnostics; defaults to Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope for every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string            `json:"code"` // MapError code, or USAGE
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Details string            `json:"details,omitempty"`
}

// Success writes data as JSON, or text for humans.
func (f *OutputFormatter) Success(data any, text string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

// Error reports err. Operation failures are shown as "CODE: message"
// using the user-facing text from core.MapError.
func (f *OutputFormatter) Error(err error) error {
	cliErr := describeError(err)
	if !f.Verbose && cliErr.Code != "ERR000" {
		cliErr.Details = ""
	}

	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "error", Error: cliErr})
	}

	w := f.errWriter()
	msg := cliErr.Message
	if cliErr.Action != "" {
		msg += ". " + cliErr.Action
	}
	fmt.Fprintf(w, "%s: %s\n", cliErr.Code, msg)
	for _, spec := range core.FieldSpecs {
		if m, ok := cliErr.Fields[spec.Name]; ok {
			fmt.Fprintf(w, "  %s: %s\n", spec.Name, m)
		}
	}
	if cliErr.Details != "" {
		fmt.Fprintf(w, "  details: %s\n", cliErr.Details)
	}
	return nil
}

// VerboseLog writes a diagnostic line when verbose mode is on.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func describeError(err error) *CLIError {
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Err == nil {
		return &CLIError{Code: "USAGE", Message: err.Error()}
	}

	msg := core.MapError(exitErr.Err)
	cliErr := &CLIError{
		Code:    msg.Code,
		Message: msg.Message,
		Action:  msg.Action,
		Details: exitErr.Error(),
	}
	var verrs core.ValidationErrors
	if errors.As(exitErr.Err, &verrs) {
		cliErr.Fields = verrs.ByField()
	}
	return cliErr
}
