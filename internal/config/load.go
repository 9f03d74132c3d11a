package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// Environment overrides applied after the file is read.
const (
	EnvOutput       = "BLOGBUILDER_OUTPUT"
	EnvRenderEngine = "BLOGBUILDER_RENDER_ENGINE"
	EnvHugoBinary   = "BLOGBUILDER_HUGO_BINARY"
)

// Load reads configPath (DefaultFileName inside siteDir when empty),
// expands ${VAR} references, applies defaults and environment overrides,
// and validates the result. Every failure is a configuration error.
func Load(siteDir, configPath string) (*Config, error) {
	absSite, err := filepath.Abs(siteDir)
	if err != nil {
		return nil, errors.ConfigError("invalid site directory").WithCause(err).Build()
	}
	if configPath == "" {
		configPath = filepath.Join(absSite, DefaultFileName)
	} else if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(absSite, configPath)
	}

	loadEnvFiles(absSite)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.ConfigError("failed to read configuration").WithCause(err).WithContext("path", configPath).Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return nil, ce.WithContext("path", configPath)
		}
		return nil, err
	}
	cfg.SiteDir = absSite
	return cfg, nil
}

// envRef matches ${NAME}. Bare $NAME is left alone so literal dollar signs
// in titles and descriptions survive.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

// Parse decodes, defaults and validates raw configuration bytes.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.ConfigError("invalid configuration YAML").WithCause(err).Build()
	}
	normalizeEnums(&cfg)
	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFiles loads .env and .env.local from the site directory. Variables
// already present in the environment win.
func loadEnvFiles(siteDir string) {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(siteDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", logfields.Path(path), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment file", logfields.Path(path))
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvOutput); v != "" {
		cfg.Output.Directory = v
	}
	if v := os.Getenv(EnvRenderEngine); v != "" {
		cfg.Render.Engine = renderEngines.Normalize(RenderEngine(v))
	}
	if v := os.Getenv(EnvHugoBinary); v != "" {
		cfg.Render.HugoBinary = v
	}
}
