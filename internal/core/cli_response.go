package core

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
)

// CLIResponse is the envelope every command prints in --json mode.
//
// Schema:
//
//	{
//	  "success": true|false,
//	  "data": { ... },          // Command-specific payload (omitted on error)
//	  "error": {                 // Present only on failure
//	    "code": "CONFIG_ERROR",
//	    "message": "Human-readable description"
//	  }
//	}
type CLIResponse struct {
	Success bool            `json:"success"`
	Data    any             `json:"data,omitempty"`
	Error   *CLIErrorDetail `json:"error,omitempty"`
}

// CLIErrorDetail contains machine-readable error code and human-readable message.
type CLIErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CLI exit codes.
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitConfigError      = 2
	ExitInvalidArguments = 3
	ExitLookupError      = 4
	ExitNetworkError     = 5
	ExitCancelled        = 130
)

// CLI error codes for structured JSON error responses.
const (
	ErrCodeConfigError      = "CONFIG_ERROR"
	ErrCodeGroupNotFound    = "SET_NOT_FOUND"
	ErrCodeNotInstalled     = "PACKAGE_NOT_INSTALLED"
	ErrCodeInvalidArguments = "INVALID_ARGUMENTS"
	ErrCodeSubmitRejected   = "SUBMIT_REJECTED"
	ErrCodeNetworkError     = "NETWORK_ERROR"
	ErrCodeCancelled        = "CANCELLED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout

// EmitCLISuccess writes a successful CLIResponse as JSON to stdout.
func EmitCLISuccess(data any) {
	resp := CLIResponse{Success: true, Data: data}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp) //nolint:errcheck
}

// EmitCLIError writes an error CLIResponse as JSON to stdout.
// Returns the exit code for the caller to use with os.Exit.
func EmitCLIError(code string, message string, exitCode int) int {
	resp := CLIResponse{
		Success: false,
		Error:   &CLIErrorDetail{Code: code, Message: message},
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp) //nolint:errcheck
	return exitCode
}

// CLIExitCodeForError maps structured error types to CLI exit codes.
func CLIExitCodeForError(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled):
		return ExitCancelled
	case IsConfigurationError(err), errors.Is(err, ErrNoCredentials):
		return ExitConfigError
	case IsLookupError(err):
		return ExitLookupError
	case IsSubmitError(err), isNetworkError(err):
		return ExitNetworkError
	default:
		return ExitGeneralError
	}
}

// CLIErrorCodeForError maps structured error types to CLI error code strings.
func CLIErrorCodeForError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return ErrCodeCancelled
	case IsConfigurationError(err), errors.Is(err, ErrNoCredentials):
		return ErrCodeConfigError
	case IsGroupNotFound(err):
		return ErrCodeGroupNotFound
	case IsPackageNotInstalled(err):
		return ErrCodeNotInstalled
	case IsSubmitError(err):
		return ErrCodeSubmitRejected
	case isNetworkError(err):
		return ErrCodeNetworkError
	default:
		return ErrCodeInternalError
	}
}
