package hugo

import (
	"encoding/xml"
	"sort"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description,omitempty"`
}

// renderFeed builds the RSS 2.0 feed. lastBuildDate is the newest post date
// rather than the wall clock.
func renderFeed(cfg *config.Config, urls urlBuilder, views []*postView, latest time.Time) []byte {
	ch := rssChannel{
		Title:       cfg.Title,
		Link:        urls.abs("/"),
		Description: cfg.Description,
		Language:    cfg.LanguageCode,
	}
	if ch.Description == "" {
		ch.Description = "Recent posts on " + cfg.Title
	}
	if !latest.IsZero() {
		ch.LastBuildDate = latest.Format(time.RFC1123Z)
	}
	for _, v := range views {
		ch.Items = append(ch.Items, rssItem{
			Title:       v.Title,
			Link:        v.Permalink,
			GUID:        v.Permalink,
			PubDate:     v.Date.Format(time.RFC1123Z),
			Description: v.Summary,
		})
	}
	return marshalXML(rssFeed{Version: "2.0", Channel: ch})
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func renderSitemap(urls urlBuilder, views []*postView, pages []string) []byte {
	lastmod := make(map[string]string, len(views))
	for _, v := range views {
		lastmod[v.Path] = v.Date.Format("2006-01-02")
	}
	paths := make([]string, 0, len(pages))
	for _, p := range pages {
		paths = append(paths, sitePath(p))
	}
	sort.Strings(paths)

	set := sitemapURLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, p := range paths {
		set.URLs = append(set.URLs, sitemapURL{Loc: urls.abs(p), LastMod: lastmod[p]})
	}
	return marshalXML(set)
}

func marshalXML(v any) []byte {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		// Only plain string fields are marshaled; this cannot fail.
		panic(err)
	}
	return append([]byte(xml.Header), append(out, '\n')...)
}
