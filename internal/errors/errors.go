// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides structured, user-facing errors for the symdex CLI.
//
// A UserError carries three pieces of information for the person at the
// terminal: what went wrong (Message), why it happened (Cause) and how to
// fix it (Fix). Each UserError also carries the exit code the process
// should terminate with.
//
// # Creating Errors
//
//	err := errors.NewGitError(
//	    "Cannot clone repository",
//	    "git exited with status 128: repository not found",
//	    "Check the URL and that --token-env names a variable holding a valid token",
//	    underlyingErr,
//	)
//	errors.FatalError(err, false)
//
// Library errors from pkg/repo and pkg/symbols are mapped with FromError,
// which inspects the error chain for known sentinels:
//
//	if err := acq.CloneRepo(ctx, url, opts); err != nil {
//	    errors.FatalError(errors.FromError(err, "Cannot clone repository"), jsonMode)
//	}
//
// # Formatted Output
//
// Format renders colored sections for terminal display:
//
//	Error: Cannot clone repository
//	Cause: clone exceeded 5m0s
//	Fix:   Increase clone.timeout in .symdex/config.yaml or use --depth 1
//
// ToJSON returns the same information for --json mode:
//
//	{
//	  "error": "Cannot clone repository",
//	  "cause": "clone exceeded 5m0s",
//	  "fix": "Increase clone.timeout in .symdex/config.yaml or use --depth 1",
//	  "exit_code": 3
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0): Successful execution
//   - ExitConfig (1): Configuration errors (unreadable or invalid config)
//   - ExitGit (2): git failures (clone, pull, not a repository)
//   - ExitTimeout (3): An operation exceeded its deadline
//   - ExitInput (4): Invalid user input (URL, target name, branch, flags)
//   - ExitLimit (5): A resource limit was exceeded (repository size)
//   - ExitNotFound (6): Resource not found (file, ref, checkout)
//   - ExitInternal (10): Internal errors (bugs, panics)
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/kraklabs/symdex/pkg/repo"
)

// Exit codes for different error categories.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitConfig indicates configuration errors.
	ExitConfig = 1

	// ExitGit indicates a failed git operation.
	ExitGit = 2

	// ExitTimeout indicates an operation ran past its deadline or was canceled.
	ExitTimeout = 3

	// ExitInput indicates invalid user input (bad arguments, validation errors).
	ExitInput = 4

	// ExitLimit indicates a configured resource limit was exceeded.
	ExitLimit = 5

	// ExitNotFound indicates resource not found errors (file, ref, checkout).
	ExitNotFound = 6

	// ExitInternal indicates internal errors (bugs, unexpected panics).
	// Exit code 10 signals "this is a bug that should be reported".
	ExitInternal = 10
)

// UserError represents an error with structured context for end users.
//
// It provides three levels of information:
//   - Message: What went wrong (user-facing error description)
//   - Cause: Why it happened (diagnostic information)
//   - Fix: How to fix it (actionable suggestion)
//
// UserError also carries an exit code for consistent CLI exit behavior
// and optionally wraps an underlying error for error chain compatibility.
type UserError struct {
	// Message describes what went wrong in user-friendly language.
	Message string

	// Cause explains why the error occurred (diagnostic information).
	Cause string

	// Fix provides an actionable suggestion on how to resolve the error.
	Fix string

	// ExitCode is the exit code that should be used when exiting due to this error.
	ExitCode int

	// Err is the underlying error, kept for errors.Is/As.
	Err error
}

// Error implements the error interface.
func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *UserError) Unwrap() error {
	return e.Err
}

func newUserError(code int, msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: code,
		Err:      err,
	}
}

// NewConfigError creates a configuration error with exit code ExitConfig.
//
// Example:
//
//	return NewConfigError(
//	    "Cannot load symdex configuration",
//	    "yaml: line 3: did not find expected key",
//	    "Fix the syntax in .symdex/config.yaml or run 'symdex init --force'",
//	    err,
//	)
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitConfig, msg, cause, fix, err)
}

// NewGitError creates a git failure with exit code ExitGit.
func NewGitError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitGit, msg, cause, fix, err)
}

// NewTimeoutError creates a deadline error with exit code ExitTimeout.
func NewTimeoutError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitTimeout, msg, cause, fix, err)
}

// NewInputError creates an input validation error with exit code ExitInput.
// Input errors typically do not wrap an underlying error.
//
// Example:
//
//	return NewInputError(
//	    "Missing repository URL",
//	    "symdex clone needs exactly one URL argument",
//	    "Run: symdex clone https://github.com/owner/repo",
//	)
func NewInputError(msg, cause, fix string) *UserError {
	return newUserError(ExitInput, msg, cause, fix, nil)
}

// NewLimitError creates a resource limit error with exit code ExitLimit.
func NewLimitError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitLimit, msg, cause, fix, err)
}

// NewNotFoundError creates a resource not found error with exit code ExitNotFound.
func NewNotFoundError(msg, cause, fix string) *UserError {
	return newUserError(ExitNotFound, msg, cause, fix, nil)
}

// NewInternalError creates an internal error with exit code ExitInternal.
//
// Use this for unexpected errors that indicate bugs in the program.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitInternal, msg, cause, fix, err)
}

// FromError maps err onto a UserError using the sentinels exported by
// pkg/repo and the context package. msg becomes the Message. A UserError
// already in the chain is returned as is; unknown errors are internal.
func FromError(err error, msg string) *UserError {
	if err == nil {
		return nil
	}
	var ue *UserError
	if stderrors.As(err, &ue) {
		return ue
	}

	cause := err.Error()
	var cloneErr *repo.CloneError
	if stderrors.As(err, &cloneErr) && cloneErr.Stderr != "" {
		cause = cloneErr.Stderr
	}

	switch {
	case stderrors.Is(err, repo.ErrInvalidURL):
		return newUserError(ExitInput, msg, cause,
			"Use an https://, http://, ssh://, git@host:path or file:// URL, or a local directory", err)
	case stderrors.Is(err, repo.ErrInvalidTargetName):
		return newUserError(ExitInput, msg, cause,
			"Use a relative name without '..' segments, e.g. --name owner/repo", err)
	case stderrors.Is(err, repo.ErrInvalidBranch):
		return newUserError(ExitInput, msg, cause,
			"Branch names may contain letters, digits, '.', '_', '-' and '/'", err)
	case stderrors.Is(err, repo.ErrCloneTimeout), stderrors.Is(err, context.DeadlineExceeded):
		return newUserError(ExitTimeout, msg, cause,
			"Increase clone.timeout in .symdex/config.yaml or clone with --depth 1", err)
	case stderrors.Is(err, context.Canceled):
		return newUserError(ExitTimeout, msg, "operation canceled", "", err)
	case stderrors.Is(err, repo.ErrRepoTooLarge):
		return newUserError(ExitLimit, msg, cause,
			"Raise clone.max_repo_size_bytes or clone a shallower history", err)
	case stderrors.Is(err, repo.ErrNotAGitRepository):
		return newUserError(ExitGit, msg, cause,
			"Point the command at a directory created by 'symdex clone'", err)
	case stderrors.Is(err, repo.ErrCloneFailed), stderrors.Is(err, repo.ErrPullFailed):
		return newUserError(ExitGit, msg, cause,
			"Check the URL, network access and that --token-env names a valid token", err)
	case stderrors.Is(err, repo.ErrFileNotFound), stderrors.Is(err, os.ErrNotExist):
		return newUserError(ExitNotFound, msg, cause, "", err)
	}
	return newUserError(ExitInternal, msg, cause,
		"This is a bug. Please report it at github.com/kraklabs/symdex/issues", err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Color definitions for error formatting.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a formatted error message for terminal display.
//
// The output includes colored sections for Error (red/bold), Cause (yellow),
// and Fix (green). Color output respects the NO_COLOR environment variable
// and can be explicitly disabled with the noColor parameter. Empty Cause or
// Fix fields are omitted.
//
// Note: This method temporarily modifies the global color.NoColor state
// and restores it after formatting.
func (e *UserError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// ErrorJSON represents error information in JSON format.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the UserError to a JSON-serializable structure.
func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.ExitCode,
	}
}

// Write renders err to w in the requested mode and returns the exit code
// the process should use. Non-UserError values are reported as internal.
func Write(w io.Writer, err error, jsonOutput, noColor bool) int {
	ue, ok := err.(*UserError)
	if !ok {
		fmt.Fprintf(w, "Error: %v\n", err)
		return ExitInternal
	}
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		// We're about to exit; an encode failure still exits with the right code.
		_ = enc.Encode(ue.ToJSON())
	} else {
		fmt.Fprint(w, ue.Format(noColor))
	}
	return ue.ExitCode
}

// FatalError prints the error to stderr and exits with the appropriate code.
// A nil error is a no-op.
//
// This function never returns for a non-nil error.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}
	os.Exit(Write(os.Stderr, err, jsonOutput, false))
}
