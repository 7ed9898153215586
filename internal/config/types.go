package config

import "strings"

// RootModulePath is the module path that denotes the package root (its __init__ file).
const RootModulePath = "__init__"

// LanguagePython is the only language with an extraction adapter.
const LanguagePython = "python"

// Config is the declarative description of every documentation set refgen produces.
type Config struct {
	Workspace    WorkspaceConfig `yaml:"workspace"`
	Repositories []Repository    `yaml:"repositories"`
}

// WorkspaceConfig controls where repositories are checked out.
type WorkspaceConfig struct {
	Dir string `yaml:"dir"`
	// Ephemeral checkouts live in a timestamped directory removed after the run.
	Ephemeral bool `yaml:"ephemeral,omitempty"`
}

// Repository describes one source repository and the reference pages generated from it.
type Repository struct {
	Name        string      `yaml:"name"`
	URL         string      `yaml:"url"`
	Version     string      `yaml:"version"`
	Language    string      `yaml:"language,omitempty"`
	PackageName string      `yaml:"package_name"`
	OutputDir   string      `yaml:"output_dir"`
	Auth        *AuthConfig `yaml:"auth,omitempty"`
	// SourceLink is a template with {url}, {ref}, {path} and {line} placeholders.
	SourceLink string   `yaml:"source_link,omitempty"`
	Category   Manifest `yaml:"category"`
	Modules    []Module `yaml:"modules"`
}

// Tag returns the git tag checked out for the repository.
func (r Repository) Tag() string { return "v" + r.Version }

// Module describes one generated page.
type Module struct {
	Path              string   `yaml:"path"`
	Title             string   `yaml:"title"`
	SidebarPosition   int      `yaml:"sidebar_position"`
	PackageName       string   `yaml:"package_name"`
	GeneratedFilePath string   `yaml:"generated_file_path"`
	SubModules        []string `yaml:"sub_modules,omitempty"`
}

// IsRoot reports whether the module documents the package root.
func (m Module) IsRoot() bool { return m.Path == RootModulePath }

// QualifiedName resolves the dotted import name of the module inside pkg.
func (m Module) QualifiedName(pkg string) string {
	if m.IsRoot() {
		return pkg
	}
	return pkg + "." + strings.ReplaceAll(m.Path, "/", ".")
}

// DisplayName is the label used in log lines and reports.
func (m Module) DisplayName() string {
	if m.PackageName != "" {
		return m.PackageName
	}
	return m.Path
}
