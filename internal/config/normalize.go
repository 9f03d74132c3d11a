package config

import "git.home.luguber.info/inful/blogbuilder/internal/foundation/normalization"

var (
	renderEngines = normalization.New(map[string]RenderEngine{
		"hugo":    RenderEngineHugo,
		"builtin": RenderEngineBuiltin,
	})
	deployTargets = normalization.New(map[string]DeployTarget{
		"none":      DeployNone,
		"directory": DeployDirectory,
		"dir":       DeployDirectory,
		"git":       DeployGit,
	})
	authTypes = normalization.New(map[string]AuthType{
		"none":  AuthNone,
		"token": AuthToken,
		"basic": AuthBasic,
	})
)

// normalizeEnums canonicalizes enum fields so "Hugo" or " GIT " behave like
// their lowercase spelling. Unknown values are left for validation.
func normalizeEnums(cfg *Config) {
	cfg.Render.Engine = renderEngines.Normalize(cfg.Render.Engine)
	cfg.Deploy.Target = deployTargets.Normalize(cfg.Deploy.Target)
	cfg.Deploy.Git.Auth.Type = authTypes.Normalize(cfg.Deploy.Git.Auth.Type)
}
