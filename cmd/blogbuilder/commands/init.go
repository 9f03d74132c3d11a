package commands

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/blogbuilder/internal/archetype"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

//go:embed templates/publish.yml
var publishWorkflow string

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing files"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	site, err := filepath.Abs(root.Site)
	if err != nil {
		return errors.ConfigError("invalid site directory").WithCause(err).Build()
	}
	cfgPath := root.Config
	if cfgPath == "" {
		cfgPath = config.DefaultFileName
	}
	if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(site, cfgPath)
	}

	w := g.out()
	_, _ = fmt.Fprintln(w, "Initializing blogbuilder site")
	if err := config.WriteExample(cfgPath, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Wrote %s\n", cfgPath)

	files := []struct {
		rel, body string
	}{
		{filepath.Join("archetypes", "default.md"), archetype.DefaultArchetype()},
		{filepath.Join(".github", "workflows", "publish.yml"), publishWorkflow},
	}
	for _, f := range files {
		p := filepath.Join(site, f.rel)
		wrote, err := writeScaffold(p, f.body, i.Force)
		if err != nil {
			return err
		}
		if wrote {
			_, _ = fmt.Fprintf(w, "Wrote %s\n", p)
		} else {
			_, _ = fmt.Fprintf(w, "Kept existing %s\n", p)
		}
	}

	posts := filepath.Join(site, "content", "posts")
	if err := os.MkdirAll(posts, 0o750); err != nil {
		return errors.FileSystemError("create content directory").WithCause(err).Build()
	}
	_, _ = fmt.Fprintln(w, "initialized successfully")
	return nil
}

// writeScaffold writes body to p unless p exists and force is unset.
func writeScaffold(p, body string, force bool) (bool, error) {
	if _, err := os.Stat(p); err == nil && !force {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return false, errors.FileSystemError("create directory").WithCause(err).WithContext("path", p).Build()
	}
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		return false, errors.FileSystemError("write file").WithCause(err).WithContext("path", p).Build()
	}
	return true, nil
}
