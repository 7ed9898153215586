package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/refgen/internal/config"
	"git.home.luguber.info/inful/refgen/internal/frontmatter"
	"git.home.luguber.info/inful/refgen/internal/generator"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct{}

func (v *ValidateCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	out := g.out()
	for _, repo := range cfg.Repositories {
		_, _ = fmt.Fprintf(out, "%s %s (%s) -> %s\n", repo.Name, repo.Tag(), repo.URL, repo.OutputDir)
		for _, m := range repo.Modules {
			path := filepath.Join(repo.OutputDir, filepath.FromSlash(m.GeneratedFilePath))
			_, _ = fmt.Fprintf(out, "  %s -> %s%s\n", m.QualifiedName(repo.PackageName), path, pageState(path, m))
			if len(m.SubModules) > 0 {
				subs := make([]string, 0, len(m.SubModules))
				for _, sub := range m.SubModules {
					subs = append(subs, generator.SubModuleName(repo.PackageName, m, sub))
				}
				_, _ = fmt.Fprintf(out, "    sections: %s\n", strings.Join(subs, ", "))
			}
		}
	}
	_, _ = fmt.Fprintln(out, "configuration is valid")
	return nil
}

// pageState annotates pages already on disk whose header no longer matches
// the module configuration.
func pageState(path string, m config.Module) string {
	doc, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return " (not generated)"
	}
	if err != nil {
		return " (unreadable)"
	}
	h, ok, err := frontmatter.ReadHeader(doc)
	if err != nil || !ok {
		return " (no header)"
	}
	if h.Title != m.Title || h.SidebarPosition != m.SidebarPosition {
		return " (stale header)"
	}
	return ""
}
