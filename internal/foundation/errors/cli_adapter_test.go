package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

type customError struct{ msg string }

func (e *customError) Error() string { return e.msg }

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("invalid input").Build(), expected: 2},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "git", err: GitError("clone failed").Build(), expected: 8},
		{name: "filesystem", err: FileSystemError("write failed").Build(), expected: 11},
		{name: "internal", err: InternalError("bug").Build(), expected: 10},
		{name: "unclassified error", err: &customError{msg: "unknown error"}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		err      error
		contains string
	}{
		{name: "nil error", err: nil, contains: ""},
		{name: "non-verbose shows message and cause", err: WrapError(errors.New("tag not found"), CategoryGit, "fetch repository").Build(), contains: "Error: fetch repository: tag not found"},
		{name: "verbose shows classification", verbose: true, err: GitError("fetch repository").Build(), contains: "[git:fatal]"},
		{name: "unclassified", err: errors.New("plain"), contains: "Error: plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewCLIErrorAdapter(tt.verbose, slog.Default())
			got := adapter.FormatError(tt.err)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("FormatError() = %q, want it to contain %q", got, tt.contains)
			}
		})
	}
}

func TestCLIErrorAdapter_Handle(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out

	code := adapter.Handle(GitError("fetch repository").WithContext("repository", "sdk").Build())

	if code != 8 {
		t.Errorf("Handle() = %d, want 8", code)
	}
	if !strings.Contains(logs.String(), "repository=sdk") {
		t.Errorf("expected context in log output, got %q", logs.String())
	}
	if !strings.Contains(out.String(), "fetch repository") {
		t.Errorf("expected message on stderr writer, got %q", out.String())
	}
}
