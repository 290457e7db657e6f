// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/jeranaias/oneshot-tui/internal/api"
	"github.com/jeranaias/oneshot-tui/internal/config"
	"github.com/jeranaias/oneshot-tui/internal/export"
	"github.com/jeranaias/oneshot-tui/internal/session"
)

// Handlers always return errors; main decides how to display them and which
// exit code to use.

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitAuthError    = 4
	ExitNetworkError = 5
	ExitNotFound     = 7
	ExitTimeout      = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError wraps a failure with the command and action that produced it.
type CommandError struct {
	Command string
	Action  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError is bad user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += "\nExample: " + e.Example
	}
	return msg
}

// NotFoundError is a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewCommandError wraps err for command/action.
func NewCommandError(command, action string, err error) error {
	return &CommandError{Command: command, Action: action, Err: err}
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewValidationErrorWithExample builds a ValidationError with a usage hint.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// ErrMissingArgument reports a required positional argument.
func ErrMissingArgument(name, usage string) error {
	return &ValidationError{Field: name, Reason: "is required", Example: usage}
}

// notFoundOr maps a backend 404 to a NotFoundError.
func notFoundOr(err error, resource, id string) error {
	if api.IsNotFound(err) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return err
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w, as JSON when jsonMode is set.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.Encode(errorDetails(err))
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

func errorDetails(err error) map[string]any {
	out := map[string]any{
		"success":    false,
		"error":      err.Error(),
		"error_type": "generic_error",
		"exit_code":  GetExitCode(err),
	}

	var (
		valErr *ValidationError
		nfErr  *NotFoundError
		cmdErr *CommandError
		apiErr *api.APIError
	)
	switch {
	case errors.As(err, &valErr):
		out["error_type"] = "validation_error"
		out["field"] = valErr.Field
		if valErr.Example != "" {
			out["example"] = valErr.Example
		}
	case errors.As(err, &nfErr):
		out["error_type"] = "not_found_error"
		out["resource"] = nfErr.Resource
		out["id"] = nfErr.ID
	case errors.As(err, &apiErr):
		out["error_type"] = "api_error"
		out["status"] = apiErr.Status
	}
	if errors.As(err, &cmdErr) {
		out["command"] = cmdErr.Command
		if cmdErr.Action != "" {
			out["action"] = cmdErr.Action
		}
	}
	return out
}

// HandleErrorAndExit displays err on stderr and exits with its exit code.
func HandleErrorAndExit(err error, jsonMode bool) {
	if err == nil {
		return
	}
	w := io.Writer(os.Stderr)
	if jsonMode {
		w = os.Stdout
	}
	DisplayError(w, err, jsonMode)
	os.Exit(GetExitCode(err))
}

// GetExitCode maps err to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		valErr  *ValidationError
		nfErr   *NotFoundError
		cfgErrs config.ValidateErrors
		netErr  net.Error
		opErr   *net.OpError
		ttyErr  *TTYRequiredError
	)
	switch {
	case errors.As(err, &valErr),
		errors.As(err, &ttyErr),
		errors.Is(err, session.ErrEmptyInput),
		errors.Is(err, api.ErrInvalidArgument),
		errors.Is(err, export.ErrUnknownFormat):
		return ExitUsageError
	case errors.As(err, &cfgErrs):
		return ExitConfigError
	case errors.As(err, &nfErr), api.IsNotFound(err):
		return ExitNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	}

	switch api.StatusCode(err) {
	case 401, 403:
		return ExitAuthError
	case 408, 504:
		return ExitTimeout
	}

	if errors.As(err, &netErr) && netErr.Timeout() {
		return ExitTimeout
	}
	if errors.As(err, &opErr) {
		return ExitNetworkError
	}
	return ExitGeneralError
}
