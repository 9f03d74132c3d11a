package hugo

import (
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

// urlBuilder maps site paths ("/posts/x/") to links honoring base_url.
type urlBuilder struct {
	base     string // scheme://host without trailing slash, may be empty
	basePath string // path prefix without trailing slash
}

func newURLBuilder(cfg *config.Config) urlBuilder {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || cfg.BaseURL == "" {
		return urlBuilder{}
	}
	b := urlBuilder{basePath: strings.TrimSuffix(u.Path, "/")}
	if u.Scheme != "" && u.Host != "" {
		b.base = u.Scheme + "://" + u.Host
	}
	return b
}

// rel is the root-relative link.
func (b urlBuilder) rel(p string) string {
	return b.basePath + p
}

// abs is the absolute link, or rel when no base URL is configured.
func (b urlBuilder) abs(p string) string {
	return b.base + b.rel(p)
}

// filePath is the output file serving a directory-style site path.
func filePath(p string) string {
	return path.Join(strings.TrimPrefix(p, "/"), "index.html")
}

// sitePath inverts filePath.
func sitePath(file string) string {
	dir := path.Dir(file)
	if dir == "." {
		return "/"
	}
	return "/" + dir + "/"
}
