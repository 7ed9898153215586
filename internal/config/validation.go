package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	ferrors "git.home.luguber.info/inful/refgen/internal/foundation/errors"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the invariants the generator relies on.
func Validate(cfg *Config) error {
	if len(cfg.Repositories) == 0 {
		return ferrors.ValidationError("no repositories configured").Build()
	}
	names := make(map[string]bool, len(cfg.Repositories))
	for i := range cfg.Repositories {
		repo := &cfg.Repositories[i]
		if err := validateRepository(repo); err != nil {
			return err
		}
		if names[repo.Name] {
			return repoError(repo, "duplicate repository name")
		}
		names[repo.Name] = true
	}
	return nil
}

func validateRepository(repo *Repository) error {
	switch {
	case repo.Name == "":
		return repoError(repo, "repository name cannot be empty")
	case strings.ContainsAny(repo.Name, `/\`) || repo.Name == "." || repo.Name == "..":
		return repoError(repo, "repository name must be a single path element")
	case repo.URL == "":
		return repoError(repo, "repository url cannot be empty")
	case repo.Version == "":
		return repoError(repo, "repository version cannot be empty")
	case repo.PackageName == "":
		return repoError(repo, "package_name cannot be empty")
	case repo.OutputDir == "":
		return repoError(repo, "output_dir cannot be empty")
	case repo.Language != LanguagePython:
		return repoError(repo, fmt.Sprintf("unsupported language %q", repo.Language))
	case len(repo.Modules) == 0:
		return repoError(repo, "no modules configured")
	}
	for _, part := range strings.Split(repo.PackageName, ".") {
		if !identifierPattern.MatchString(part) {
			return repoError(repo, fmt.Sprintf("package_name %q is not a dotted identifier", repo.PackageName))
		}
	}
	if !repo.Auth.IsZero() {
		if !repo.Auth.Type.IsValid() {
			return repoError(repo, fmt.Sprintf("unsupported auth type %q", repo.Auth.Type))
		}
	}

	paths := make(map[string]bool, len(repo.Modules))
	outputs := make(map[string]string, len(repo.Modules))
	for _, m := range repo.Modules {
		if err := validateModule(repo, m); err != nil {
			return err
		}
		if paths[m.Path] {
			return moduleError(repo, m, "duplicate module path")
		}
		paths[m.Path] = true
		out := filepath.Clean(filepath.FromSlash(m.GeneratedFilePath))
		if prev, ok := outputs[out]; ok {
			return moduleError(repo, m, fmt.Sprintf("generated_file_path collides with module %q", prev))
		}
		outputs[out] = m.Path
	}
	return nil
}

func validateModule(repo *Repository, m Module) error {
	if m.Path == "" {
		return moduleError(repo, m, "module path cannot be empty")
	}
	if m.Title == "" {
		return moduleError(repo, m, "module title cannot be empty")
	}
	if !m.IsRoot() {
		for _, part := range strings.Split(m.Path, "/") {
			if !identifierPattern.MatchString(part) {
				return moduleError(repo, m, fmt.Sprintf("path segment %q is not an identifier", part))
			}
		}
	}
	if m.GeneratedFilePath == "" {
		return moduleError(repo, m, "generated_file_path cannot be empty")
	}
	if !filepath.IsLocal(filepath.FromSlash(m.GeneratedFilePath)) {
		return moduleError(repo, m, "generated_file_path must stay inside output_dir")
	}
	seen := make(map[string]bool, len(m.SubModules))
	for _, sub := range m.SubModules {
		if !identifierPattern.MatchString(sub) {
			return moduleError(repo, m, fmt.Sprintf("sub-module %q is not an identifier", sub))
		}
		if seen[sub] {
			return moduleError(repo, m, fmt.Sprintf("duplicate sub-module %q", sub))
		}
		seen[sub] = true
	}
	return nil
}

func repoError(repo *Repository, msg string) error {
	return ferrors.ValidationError(msg).WithContext("repository", repo.Name).Build()
}

func moduleError(repo *Repository, m Module, msg string) error {
	return ferrors.ValidationError(msg).
		WithContext("repository", repo.Name).
		WithContext("module", m.Path).
		Build()
}
