package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL performs comprehensive URL validation
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// ResolveURL resolves a possibly-relative href against a base URL and returns a string
func ResolveURL(base, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(u).String()
}

// ProfilePageURL builds "<base>/<page>/<id>", e.g. https://books.example/to-read/jane.
func ProfilePageURL(base, page, id string) string {
	return strings.TrimRight(base, "/") + "/" + page + "/" + url.PathEscape(id)
}

// SearchURL appends the percent-encoded query to a search base that already
// ends with its query parameter (e.g. "https://host/search.php?name=").
// The encoding matches JavaScript's encodeURIComponent.
func SearchURL(base, query string) string {
	return base + componentUnescaper.Replace(url.QueryEscape(query))
}

var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)
