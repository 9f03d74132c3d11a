package hugo

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

// hugoConfig builds the hugo.yaml document. It contains nothing derived from
// the clock so identical inputs produce identical files.
func hugoConfig(cfg *config.Config) map[string]any {
	params := map[string]any{}
	if cfg.Description != "" {
		params["description"] = cfg.Description
	}
	if cfg.Author != "" {
		params["author"] = cfg.Author
	}
	params["mainSections"] = []string{cfg.Content.Section}
	mergeParams(params, cfg.Params)

	root := map[string]any{
		"title":        cfg.Title,
		"baseURL":      cfg.BaseURL,
		"languageCode": cfg.LanguageCode,
		"taxonomies":   cfg.Taxonomies,
		"markup": map[string]any{
			"goldmark": map[string]any{"renderer": map[string]any{"unsafe": true}},
		},
		"params": params,
	}

	switch {
	case cfg.Theme.Module != "":
		root["module"] = map[string]any{"imports": []map[string]any{{"path": cfg.Theme.Module}}}
	case cfg.Theme.Name != "":
		root["theme"] = cfg.Theme.Name
	}

	if menus := hugoMenus(cfg); len(menus) > 0 {
		root["menus"] = menus
	}
	return root
}

// hugoMenus merges configured menus with the social links, which go to a
// "social" menu themes can pick up.
func hugoMenus(cfg *config.Config) map[string]any {
	menus := map[string]any{}
	names := make([]string, 0, len(cfg.Menu))
	for name := range cfg.Menu {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		items := make([]map[string]any, 0, len(cfg.Menu[name]))
		for _, m := range cfg.Menu[name] {
			item := map[string]any{"name": m.Name, "url": m.URL}
			if m.Weight != 0 {
				item["weight"] = m.Weight
			}
			items = append(items, item)
		}
		menus[name] = items
	}
	if len(cfg.Social) > 0 {
		items := make([]map[string]any, 0, len(cfg.Social))
		for i, s := range cfg.Social {
			item := map[string]any{"name": s.Name, "url": s.URL, "weight": i + 1}
			if s.Icon != "" {
				item["params"] = map[string]any{"icon": s.Icon}
			}
			items = append(items, item)
		}
		menus["social"] = items
	}
	return menus
}

// mergeParams deep-merges src into dst; src wins on conflicts.
func mergeParams(dst, src map[string]any) {
	for k, v := range src {
		if sm, ok := v.(map[string]any); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				mergeParams(dm, sm)
				continue
			}
			cp := make(map[string]any, len(sm))
			maps.Copy(cp, sm)
			dst[k] = cp
			continue
		}
		dst[k] = v
	}
}

func writeHugoConfig(projectDir string, cfg *config.Config) error {
	data, err := yaml.Marshal(hugoConfig(cfg))
	if err != nil {
		return fmt.Errorf("marshal hugo config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, "hugo.yaml"), data, 0o600); err != nil {
		return fmt.Errorf("write hugo config: %w", err)
	}
	return nil
}
