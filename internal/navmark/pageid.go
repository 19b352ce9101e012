package navmark

import "strings"

// DefaultFallback is the page identifier used when the URL path ends in a
// separator, like the site root.
const DefaultFallback = "index.html"

// PageID returns the final segment of urlPath. A query string or fragment is
// ignored. If the segment is empty, fallback is returned instead, or
// DefaultFallback if fallback is empty too.
func PageID(urlPath, fallback string) string {
	if i := strings.IndexAny(urlPath, "?#"); i >= 0 {
		urlPath = urlPath[:i]
	}
	segment := urlPath[strings.LastIndexByte(urlPath, '/')+1:]
	if segment != "" {
		return segment
	}
	if fallback == "" {
		return DefaultFallback
	}
	return fallback
}
