package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/refgen/internal/config"
)

type noneProvider struct{}

func (noneProvider) Type() config.AuthType { return config.AuthTypeNone }
func (noneProvider) CreateAuth(*config.AuthConfig) (transport.AuthMethod, error) {
	return nil, nil
}
func (noneProvider) ValidateConfig(*config.AuthConfig) error { return nil }

type tokenProvider struct{}

func (tokenProvider) Type() config.AuthType { return config.AuthTypeToken }

// CreateAuth uses the "token" username GitHub and GitLab accept for PATs.
func (tokenProvider) CreateAuth(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	username := cfg.Username
	if username == "" {
		username = "token"
	}
	return &http.BasicAuth{Username: username, Password: cfg.Token}, nil
}

func (tokenProvider) ValidateConfig(cfg *config.AuthConfig) error {
	if cfg.Token == "" {
		return errors.New("token authentication requires a token")
	}
	return nil
}

type basicProvider struct{}

func (basicProvider) Type() config.AuthType { return config.AuthTypeBasic }
func (basicProvider) CreateAuth(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	return &http.BasicAuth{Username: cfg.Username, Password: cfg.Password}, nil
}

func (basicProvider) ValidateConfig(cfg *config.AuthConfig) error {
	if cfg.Username == "" {
		return errors.New("basic authentication requires a username")
	}
	if cfg.Password == "" {
		return errors.New("basic authentication requires a password")
	}
	return nil
}

type sshProvider struct{}

func (sshProvider) Type() config.AuthType { return config.AuthTypeSSH }

func (sshProvider) CreateAuth(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	keyPath := sshKeyPath(cfg)
	keys, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key from %s: %w", keyPath, err)
	}
	return keys, nil
}

func (sshProvider) ValidateConfig(cfg *config.AuthConfig) error {
	keyPath := sshKeyPath(cfg)
	if _, err := os.Stat(keyPath); err != nil {
		return fmt.Errorf("SSH key file %s: %w", keyPath, err)
	}
	return nil
}

func sshKeyPath(cfg *config.AuthConfig) string {
	if cfg.KeyPath != "" {
		return cfg.KeyPath
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ssh", "id_rsa")
}
