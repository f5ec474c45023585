// Package sources builds and verifies the citation list attached to a
// research result: candidate generation, URL liveness probing, and a single
// repair pass when validation comes up short.
package sources

import (
	"net/url"
	"strings"
)

type Source struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Domain string `json:"domain"`
}

// DomainOf derives the display domain from a URL (host without a leading
// "www."). Returns "" for unparseable input.
func DomainOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

func newSource(title, rawURL string) Source {
	return Source{
		Title:  strings.TrimSpace(title),
		URL:    strings.TrimSpace(rawURL),
		Domain: DomainOf(rawURL),
	}
}
