package config

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

const exampleConfig = `# blogbuilder site configuration
title: "My Blog"
base_url: "https://example.com/"
description: "Notes and essays"
author: "Your Name"
language_code: "en-us"

theme:
  # name: "mytheme"                          # directory under themes/
  # module: "github.com/example/hugo-theme"  # or a Hugo module

menu:
  main:
    - name: "Posts"
      url: "/posts/"
      weight: 10
    - name: "Tags"
      url: "/tags/"
      weight: 20

social:
  - name: "RSS"
    url: "/index.xml"

taxonomies:
  tag: "tags"

content:
  dir: "content"
  section: "posts"

output:
  directory: "public"
  minify: true

render:
  engine: "hugo"   # or "builtin"
  hugo_binary: "hugo"
  timeout: "5m"

deploy:
  target: "none"   # none | directory | git
  # git:
  #   url: "https://github.com/you/you.github.io.git"
  #   branch: "gh-pages"
  #   auth:
  #     type: "token"
  #     token: "${BLOGBUILDER_DEPLOY_TOKEN}"

preview:
  port: 1313
  live_reload: true
`

// WriteExample writes an example configuration to path. An existing file is
// only replaced when force is set.
func WriteExample(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.AlreadyExistsError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.FileSystemError("create config directory").WithCause(err).Build()
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o600); err != nil {
		return errors.FileSystemError("write configuration").WithCause(err).Build()
	}
	return nil
}
