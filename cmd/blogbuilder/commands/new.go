package commands

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/archetype"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// NewCmd implements the 'new' command.
type NewCmd struct {
	Path   string `arg:"" help:"Post path relative to the posts section (e.g. 2026/hello-world)"`
	Bundle bool   `help:"Create a page bundle (<path>/index.md)"`
	Edit   bool   `help:"Open the new post in $EDITOR"`
}

func (n *NewCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	tmpl, err := archetype.LoadTemplate(cfg.SiteDir)
	if err != nil {
		return err
	}
	created, err := archetype.Create(archetype.Request{
		SectionDir: cfg.SectionDir(),
		Path:       n.Path,
		Bundle:     n.Bundle,
		Template:   tmpl,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Created %s\n", created.Path)
	if n.Edit {
		return openEditor(created.Path)
	}
	return nil
}

// openEditor runs $EDITOR (which may carry arguments) on path.
func openEditor(path string) error {
	fields := strings.Fields(os.Getenv("EDITOR"))
	if len(fields) == 0 {
		return errors.ValidationError("--edit requires $EDITOR to be set").Build()
	}
	cmd := exec.Command(fields[0], append(fields[1:], path)...) // #nosec G204 -- editor comes from the user's own environment
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errors.RuntimeError("editor failed").WithCause(err).WithContext("editor", fields[0]).Build()
	}
	return nil
}
