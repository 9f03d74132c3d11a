package commands

import (
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/lint"
)

// LintCmd implements the 'lint' command.
type LintCmd struct {
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
	Strict bool   `help:"Fail on any issue, not only errors"`
}

func (l *LintCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	formatter, err := lint.FormatterFor(l.Format)
	if err != nil {
		return err
	}
	result, err := lint.NewLinter().Lint(cfg.SectionDir())
	if err != nil {
		return err
	}
	if err := formatter.Format(g.out(), result, cfg.SectionDir()); err != nil {
		return errors.InternalError("failed to format lint output").WithCause(err).Build()
	}
	if result.Failed(l.Strict) {
		return errors.ValidationError("lint found issues").
			WithContext("errors", result.ErrorCount()).
			WithContext("warnings", result.WarningCount()).
			WithContext("strict", l.Strict).
			Build()
	}
	return nil
}
