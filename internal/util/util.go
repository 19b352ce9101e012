package util

import (
	"net/url"
	"path/filepath"
	"strings"
)

// ComputeBaseHref calculates the relative path to the site root
// so that CSS/JS links work correctly for pages at any depth.
// For example, a page at posts/a/b.html would get a BaseHref of "../../".
func ComputeBaseHref(relPath string) string {
	dir := filepath.ToSlash(filepath.Dir(relPath))
	if dir == "." {
		return ""
	}
	depth := strings.Count(dir, "/") + 1
	return strings.Repeat("../", depth)
}

// URLPath turns a path relative to the output directory into the escaped URL
// path the page is served at, the form a browser reports as
// location.pathname: "posts/group news.html" becomes
// "/posts/group%20news.html".
func URLPath(relPath string) string {
	u := url.URL{Path: "/" + strings.TrimPrefix(filepath.ToSlash(relPath), "/")}
	return u.EscapedPath()
}
