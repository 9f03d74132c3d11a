package hugo

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const summaryLength = 200

// plainSummary extracts the visible text of rendered HTML and cuts it at a
// word boundary near limit runes.
func plainSummary(rendered []byte, limit int) string {
	z := html.NewTokenizer(bytes.NewReader(rendered))
	var sb strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return truncateWords(strings.Join(strings.Fields(sb.String()), " "), limit)
		case html.StartTagToken, html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style", "pre", "sup":
				if tt == html.StartTagToken {
					skip++
				} else if skip > 0 {
					skip--
				}
			case "p", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6", "div":
				sb.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
		if utf8.RuneCountInString(sb.String()) > limit*2 {
			return truncateWords(strings.Join(strings.Fields(sb.String()), " "), limit)
		}
	}
}

func truncateWords(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
