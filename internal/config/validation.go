package config

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// Validate checks a defaulted configuration.
func Validate(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	for _, check := range []func() error{
		cv.validateSite,
		cv.validatePaths,
		cv.validateRender,
		cv.validateDeploy,
		cv.validatePreview,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return errors.ConfigError(fmt.Sprintf(format, args...)).WithContext("field", field).Build()
}

func (cv *configurationValidator) validateSite() error {
	if cv.config.BaseURL == "" {
		return nil
	}
	u, err := url.Parse(cv.config.BaseURL)
	if err != nil {
		return errors.ConfigError("base_url is not a valid URL").WithCause(err).WithContext("field", "base_url").Build()
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return invalid("base_url", "base_url scheme must be http or https, got %q", u.Scheme)
	}
	for singular, plural := range cv.config.Taxonomies {
		if singular == "" || plural == "" {
			return invalid("taxonomies", "taxonomy names must not be empty")
		}
	}
	if cv.config.Theme.Name != "" && cv.config.Theme.Module != "" {
		return invalid("theme", "set either theme.name or theme.module, not both")
	}
	return nil
}

func (cv *configurationValidator) validatePaths() error {
	section := cv.config.Content.Section
	if path.IsAbs(section) || strings.HasPrefix(path.Clean(section), "..") {
		return invalid("content.section", "content.section must be a relative path inside content.dir")
	}
	out := cv.config.OutputDir()
	if out != "" && cv.config.SiteDir != "" && out == cv.config.SiteDir {
		return invalid("output.directory", "output.directory must not be the site directory")
	}
	return nil
}

func (cv *configurationValidator) validateRender() error {
	r := cv.config.Render
	switch r.Engine {
	case RenderEngineHugo, RenderEngineBuiltin:
	default:
		return invalid("render.engine", "render.engine must be one of %v, got %q", renderEngines.ValidKeys(), r.Engine)
	}
	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return errors.ConfigError("render.timeout is not a duration").WithCause(err).WithContext("field", "render.timeout").Build()
	}
	if d <= 0 {
		return invalid("render.timeout", "render.timeout must be positive")
	}
	return nil
}

func (cv *configurationValidator) validateDeploy() error {
	d := cv.config.Deploy
	switch d.Target {
	case DeployNone:
	case DeployDirectory:
		if d.Directory == "" {
			return invalid("deploy.directory", "deploy.directory is required for the directory target")
		}
	case DeployGit:
		if d.Git.URL == "" {
			return invalid("deploy.git.url", "deploy.git.url is required for the git target")
		}
		switch d.Git.Auth.Type {
		case AuthNone:
		case AuthToken:
			if d.Git.Auth.Token == "" {
				return invalid("deploy.git.auth.token", "token auth requires deploy.git.auth.token")
			}
		case AuthBasic:
			if d.Git.Auth.Username == "" || d.Git.Auth.Password == "" {
				return invalid("deploy.git.auth", "basic auth requires username and password")
			}
		default:
			return invalid("deploy.git.auth.type", "unknown auth type %q (valid: %v)", d.Git.Auth.Type, authTypes.ValidKeys())
		}
	default:
		return invalid("deploy.target", "unknown deploy target %q (valid: %v)", d.Target, deployTargets.ValidKeys())
	}
	return nil
}

func (cv *configurationValidator) validatePreview() error {
	p := cv.config.Preview
	if p.Port < 1 || p.Port > 65535 {
		return invalid("preview.port", "preview.port out of range: %d", p.Port)
	}
	if p.RebuildSchedule != "" {
		d, err := time.ParseDuration(p.RebuildSchedule)
		if err != nil || d < time.Second {
			return invalid("preview.rebuild_schedule", "preview.rebuild_schedule must be a duration of at least 1s, got %q", p.RebuildSchedule)
		}
	}
	return nil
}
