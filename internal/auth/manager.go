// Package auth turns repository auth configuration into go-git transport credentials.
package auth

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/refgen/internal/config"
)

// Provider handles one authentication method.
type Provider interface {
	Type() config.AuthType
	// CreateAuth returns nil, nil when no credentials are needed.
	CreateAuth(cfg *config.AuthConfig) (transport.AuthMethod, error)
	ValidateConfig(cfg *config.AuthConfig) error
}

// Error describes a failure to build credentials for a repository.
type Error struct {
	Type    config.AuthType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s auth: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s auth: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Manager dispatches to the provider registered for an auth type.
type Manager struct {
	providers map[config.AuthType]Provider
}

// NewManager creates a manager with the none, token, basic and ssh providers.
func NewManager() *Manager {
	m := &Manager{providers: make(map[config.AuthType]Provider)}
	m.Register(noneProvider{})
	m.Register(tokenProvider{})
	m.Register(basicProvider{})
	m.Register(sshProvider{})
	return m
}

// Register adds or replaces a provider.
func (m *Manager) Register(p Provider) { m.providers[p.Type()] = p }

// CreateAuth validates cfg and builds the matching credentials.
func (m *Manager) CreateAuth(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	if cfg.IsZero() {
		return nil, nil
	}
	p, ok := m.providers[cfg.Type]
	if !ok {
		return nil, &Error{Type: cfg.Type, Message: "unsupported authentication type"}
	}
	if err := p.ValidateConfig(cfg); err != nil {
		return nil, &Error{Type: cfg.Type, Message: "configuration validation failed", Cause: err}
	}
	method, err := p.CreateAuth(cfg)
	if err != nil {
		return nil, &Error{Type: cfg.Type, Message: "failed to create authentication", Cause: err}
	}
	return method, nil
}

// DefaultManager is a package-level instance for convenience.
var DefaultManager = NewManager()

// CreateAuth is a convenience function that uses the default manager.
func CreateAuth(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	return DefaultManager.CreateAuth(cfg)
}
