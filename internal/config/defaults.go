package config

import "time"

const defaultRenderTimeout = 5 * time.Minute

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

type siteDefaults struct{}

func (siteDefaults) Domain() string { return "site" }

func (siteDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Title == "" {
		cfg.Title = "My Blog"
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-us"
	}
	if len(cfg.Taxonomies) == 0 {
		cfg.Taxonomies = map[string]string{"tag": "tags"}
	}
}

type contentDefaults struct{}

func (contentDefaults) Domain() string { return "content" }

func (contentDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Content.Dir == "" {
		cfg.Content.Dir = "content"
	}
	if cfg.Content.Section == "" {
		cfg.Content.Section = "posts"
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "public"
	}
}

type renderDefaults struct{}

func (renderDefaults) Domain() string { return "render" }

func (renderDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Render.Engine == "" {
		cfg.Render.Engine = RenderEngineHugo
	}
	if cfg.Render.HugoBinary == "" {
		cfg.Render.HugoBinary = "hugo"
	}
	if cfg.Render.Timeout == "" {
		cfg.Render.Timeout = defaultRenderTimeout.String()
	}
}

type deployDefaults struct{}

func (deployDefaults) Domain() string { return "deploy" }

func (deployDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Deploy.Target == "" {
		cfg.Deploy.Target = DeployNone
	}
	g := &cfg.Deploy.Git
	if cfg.Deploy.Target != DeployGit {
		return
	}
	if g.Branch == "" {
		g.Branch = "gh-pages"
	}
	if g.AuthorName == "" {
		g.AuthorName = "blogbuilder"
	}
	if g.AuthorEmail == "" {
		g.AuthorEmail = "blogbuilder@localhost"
	}
	if g.Message == "" {
		g.Message = "Publish site"
	}
	if g.Auth.Type == "" {
		switch {
		case g.Auth.Token != "":
			g.Auth.Type = AuthToken
		case g.Auth.Username != "":
			g.Auth.Type = AuthBasic
		default:
			g.Auth.Type = AuthNone
		}
	}
}

type runtimeDefaults struct{}

func (runtimeDefaults) Domain() string { return "runtime" }

func (runtimeDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Preview.Port == 0 {
		cfg.Preview.Port = 1313
	}
	if cfg.History.Path == "" {
		cfg.History.Path = ".blogbuilder/history.db"
	}
	if cfg.Events.NATSURL != "" && cfg.Events.Subject == "" {
		cfg.Events.Subject = "blogbuilder"
	}
}

func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{siteDefaults{}, contentDefaults{}, renderDefaults{}, deployDefaults{}, runtimeDefaults{}}
}

// ApplyDefaults fills every unset field.
func ApplyDefaults(cfg *Config) {
	for _, a := range defaultAppliers() {
		a.ApplyDefaults(cfg)
	}
}
