package git

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	ggit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/refgen/internal/auth"
	"git.home.luguber.info/inful/refgen/internal/config"
	"git.home.luguber.info/inful/refgen/internal/logfields"
)

// DefaultDepth is the clone depth used for documentation checkouts.
const DefaultDepth = 1

// Checkout is the result of a successful fetch.
type Checkout struct {
	Path   string
	Ref    string
	Commit string
}

// Fetcher clones repositories into a workspace directory.
type Fetcher struct {
	workspaceDir string
	depth        int
	auth         *auth.Manager
	progress     io.Writer
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithDepth overrides the clone depth; 0 clones full history.
func WithDepth(depth int) Option { return func(f *Fetcher) { f.depth = depth } }

// WithAuthManager overrides the credential provider registry.
func WithAuthManager(m *auth.Manager) Option { return func(f *Fetcher) { f.auth = m } }

// WithProgress streams go-git's sideband progress to w.
func WithProgress(w io.Writer) Option { return func(f *Fetcher) { f.progress = w } }

// NewFetcher creates a Fetcher that checks repositories out under workspaceDir.
func NewFetcher(workspaceDir string, opts ...Option) *Fetcher {
	f := &Fetcher{workspaceDir: workspaceDir, depth: DefaultDepth, auth: auth.DefaultManager}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch replaces any previous checkout of repo with a shallow clone of ref.
//
// ref is tried as a tag first and then as a branch, like `git clone -b`.
func (f *Fetcher) Fetch(ctx context.Context, repo config.Repository, ref string) (*Checkout, error) {
	repoPath := filepath.Join(f.workspaceDir, repo.Name)
	fail := func(kind FailureKind, err error) error {
		return &FetchError{Repository: repo.Name, URL: repo.URL, Ref: ref, Kind: kind, Err: err}
	}

	if err := os.RemoveAll(repoPath); err != nil {
		return nil, fail(FailureFileSystem, fmt.Errorf("remove previous checkout: %w", err))
	}
	if err := os.MkdirAll(f.workspaceDir, 0o750); err != nil {
		return nil, fail(FailureFileSystem, fmt.Errorf("create workspace: %w", err))
	}

	method, err := f.auth.CreateAuth(repo.Auth)
	if err != nil {
		return nil, fail(FailureAuth, err)
	}

	slog.Info("Cloning repository", logfields.Repository(repo.Name), logfields.URL(repo.URL), logfields.Ref(ref), logfields.Path(repoPath))

	var cloned *ggit.Repository
	for _, name := range []plumbing.ReferenceName{plumbing.NewTagReferenceName(ref), plumbing.NewBranchReferenceName(ref)} {
		opts := &ggit.CloneOptions{
			URL:           repo.URL,
			ReferenceName: name,
			SingleBranch:  true,
			Depth:         f.depth,
			Auth:          method,
			Progress:      f.progress,
		}
		cloned, err = ggit.PlainCloneContext(ctx, repoPath, false, opts)
		if err == nil {
			break
		}
		// A failed attempt may leave a partial .git behind.
		_ = os.RemoveAll(repoPath)
		if classify(err) != FailureRefMissing {
			break
		}
		slog.Debug("Reference not found, trying next form", logfields.Ref(name.String()))
	}
	if err != nil {
		return nil, fail(classify(err), err)
	}

	checkout := &Checkout{Path: repoPath, Ref: ref}
	if head, herr := cloned.Head(); herr == nil {
		checkout.Commit = head.Hash().String()
		slog.Info("Repository cloned", logfields.Repository(repo.Name), logfields.Commit(head.Hash().String()[:8]), logfields.Path(repoPath))
	} else {
		slog.Info("Repository cloned", logfields.Repository(repo.Name), logfields.Path(repoPath))
	}
	return checkout, nil
}
