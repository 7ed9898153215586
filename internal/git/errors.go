package git

import (
	"errors"
	"fmt"
	"strings"

	ggit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// FailureKind classifies why a fetch failed.
type FailureKind string

const (
	FailureAuth       FailureKind = "auth"
	FailureNotFound   FailureKind = "not_found"
	FailureRefMissing FailureKind = "ref_missing"
	FailureNetwork    FailureKind = "network"
	FailureFileSystem FailureKind = "filesystem"
	FailureUnknown    FailureKind = "unknown"
)

// FetchError reports a failed checkout of one repository.
type FetchError struct {
	Repository string
	URL        string
	Ref        string
	Kind       FailureKind
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s@%s): %s: %v", e.Repository, e.URL, e.Ref, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// classify maps go-git and transport errors onto a FailureKind.
func classify(err error) FailureKind {
	var noMatch ggit.NoMatchingRefSpecError
	switch {
	case errors.As(err, &noMatch), errors.Is(err, plumbing.ErrReferenceNotFound):
		return FailureRefMissing
	case errors.Is(err, transport.ErrAuthenticationRequired), errors.Is(err, transport.ErrAuthorizationFailed):
		return FailureAuth
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return FailureNotFound
	}

	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "couldn't find remote ref") || strings.Contains(l, "reference not found"):
		return FailureRefMissing
	case strings.Contains(l, "authentication") || strings.Contains(l, "invalid username or password"):
		return FailureAuth
	case strings.Contains(l, "repository not found") || strings.Contains(l, "does not exist"):
		return FailureNotFound
	case strings.Contains(l, "timeout") || strings.Contains(l, "connection reset") || strings.Contains(l, "no such host") || strings.Contains(l, "connection refused"):
		return FailureNetwork
	default:
		return FailureUnknown
	}
}
