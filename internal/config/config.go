// Package config loads the site configuration (blogbuilder.yaml).
//
// A Config is loaded once per build and passed explicitly to every stage.
// Callers treat it as read-only after Load returns.
package config

import (
	"path/filepath"
	"time"
)

// DefaultFileName is looked up relative to the site directory.
const DefaultFileName = "blogbuilder.yaml"

// Config is the site configuration.
type Config struct {
	Title        string            `yaml:"title"`
	BaseURL      string            `yaml:"base_url"`
	Description  string            `yaml:"description,omitempty"`
	Author       string            `yaml:"author,omitempty"`
	LanguageCode string            `yaml:"language_code,omitempty"`
	Theme        ThemeConfig       `yaml:"theme,omitempty"`
	Menu         map[string][]Menu `yaml:"menu,omitempty"`
	Social       []SocialLink      `yaml:"social,omitempty"`
	Taxonomies   map[string]string `yaml:"taxonomies,omitempty"`
	Params       map[string]any    `yaml:"params,omitempty"`
	Content      ContentConfig     `yaml:"content"`
	Output       OutputConfig      `yaml:"output"`
	Render       RenderConfig      `yaml:"render"`
	Deploy       DeployConfig      `yaml:"deploy"`
	Preview      PreviewConfig     `yaml:"preview"`
	History      HistoryConfig     `yaml:"history"`
	Events       EventsConfig      `yaml:"events,omitempty"`
	Metrics      MetricsConfig     `yaml:"metrics,omitempty"`

	// SiteDir is the directory relative paths resolve against. Set by Load.
	SiteDir string `yaml:"-"`
}

// ThemeConfig selects a Hugo theme, either a directory under themes/ (Name)
// or a Hugo module import path (Module).
type ThemeConfig struct {
	Name   string `yaml:"name,omitempty"`
	Module string `yaml:"module,omitempty"`
}

// Menu is a navigation entry.
type Menu struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Weight int    `yaml:"weight,omitempty"`
}

// SocialLink is rendered into the footer menu.
type SocialLink struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Icon string `yaml:"icon,omitempty"`
}

type ContentConfig struct {
	Dir     string `yaml:"dir"`
	Section string `yaml:"section"`
}

type OutputConfig struct {
	Directory string `yaml:"directory"`
	Minify    *bool  `yaml:"minify,omitempty"`
}

// RenderEngine selects the renderer implementation.
type RenderEngine string

const (
	RenderEngineHugo    RenderEngine = "hugo"
	RenderEngineBuiltin RenderEngine = "builtin"
)

type RenderConfig struct {
	Engine     RenderEngine `yaml:"engine"`
	HugoBinary string       `yaml:"hugo_binary"`
	Timeout    string       `yaml:"timeout"`
	ExtraArgs  []string     `yaml:"extra_args,omitempty"`
}

// DeployTarget selects where published output goes.
type DeployTarget string

const (
	DeployNone      DeployTarget = "none"
	DeployDirectory DeployTarget = "directory"
	DeployGit       DeployTarget = "git"
)

type DeployConfig struct {
	Target    DeployTarget `yaml:"target"`
	Directory string       `yaml:"directory,omitempty"`
	Git       GitDeploy    `yaml:"git,omitempty"`
}

// GitDeploy pushes the output to a branch, e.g. gh-pages.
type GitDeploy struct {
	URL         string  `yaml:"url"`
	Branch      string  `yaml:"branch"`
	Auth        GitAuth `yaml:"auth,omitempty"`
	AuthorName  string  `yaml:"author_name"`
	AuthorEmail string  `yaml:"author_email"`
	Message     string  `yaml:"message"`
}

// AuthType is the git credential kind.
type AuthType string

const (
	AuthNone  AuthType = "none"
	AuthToken AuthType = "token"
	AuthBasic AuthType = "basic"
)

type GitAuth struct {
	Type     AuthType `yaml:"type,omitempty"`
	Token    string   `yaml:"token,omitempty"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
}

type PreviewConfig struct {
	Port       int   `yaml:"port"`
	LiveReload *bool `yaml:"live_reload,omitempty"`
	// RebuildSchedule is a duration ("15m"); empty disables scheduled rebuilds.
	RebuildSchedule string `yaml:"rebuild_schedule,omitempty"`
}

type HistoryConfig struct {
	Path string `yaml:"path"`
}

type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// ContentDir is the absolute content root.
func (c *Config) ContentDir() string { return c.resolve(c.Content.Dir) }

// SectionDir is where posts live.
func (c *Config) SectionDir() string {
	return filepath.Join(c.ContentDir(), filepath.FromSlash(c.Content.Section))
}

// OutputDir is the absolute build output directory.
func (c *Config) OutputDir() string { return c.resolve(c.Output.Directory) }

// DeployDir is the absolute target of the directory deployer.
func (c *Config) DeployDir() string { return c.resolve(c.Deploy.Directory) }

// HistoryPath is the absolute path of the build history database.
func (c *Config) HistoryPath() string { return c.resolve(c.History.Path) }

// ReportPath is where the last build report is persisted, outside the output.
func (c *Config) ReportPath() string {
	return c.resolve(filepath.Join(".blogbuilder", "build-report.json"))
}

// MetricsTextfile is the absolute textfile path, empty when disabled.
func (c *Config) MetricsTextfile() string {
	if c.Metrics.Textfile == "" {
		return ""
	}
	return c.resolve(c.Metrics.Textfile)
}

// Minify reports whether output should be minified (default true).
func (c *Config) Minify() bool { return c.Output.Minify == nil || *c.Output.Minify }

// LiveReload reports whether the preview injects the reload script (default true).
func (c *Config) LiveReload() bool { return c.Preview.LiveReload == nil || *c.Preview.LiveReload }

// RenderTimeout parses render.timeout. Validation guarantees it parses.
func (c *Config) RenderTimeout() time.Duration {
	d, err := time.ParseDuration(c.Render.Timeout)
	if err != nil || d <= 0 {
		return defaultRenderTimeout
	}
	return d
}

// RebuildInterval parses preview.rebuild_schedule; zero means disabled.
func (c *Config) RebuildInterval() time.Duration {
	if c.Preview.RebuildSchedule == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Preview.RebuildSchedule)
	return d
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.SiteDir, filepath.FromSlash(p))
}

// Clone returns a copy the caller may modify (CLI flag overrides) without
// affecting the loaded value.
func (c *Config) Clone() *Config {
	cp := *c
	if c.Output.Minify != nil {
		v := *c.Output.Minify
		cp.Output.Minify = &v
	}
	if c.Preview.LiveReload != nil {
		v := *c.Preview.LiveReload
		cp.Preview.LiveReload = &v
	}
	cp.Render.ExtraArgs = append([]string(nil), c.Render.ExtraArgs...)
	return &cp
}

// BoolPtr is a helper for the optional boolean fields.
func BoolPtr(b bool) *bool { return &b }
