// Package navmark marks the navbar link that points at the page currently
// being shown.
//
// The current page is identified by the final segment of the URL path
// ("about.html" for "/site/about.html"), falling back to "index.html" when
// the path ends in a slash. The identifier is then passed through a small
// alias table, so "publications.html" is treated as "publication.html" by
// default. Every navigation link whose href equals the resulting identifier
// gets the active class added; no other element is touched.
//
// The document and the location are always passed in explicitly. MarkLinks
// works on plain Link descriptors, while a Marker works on a parsed
// golang.org/x/net/html tree and selects links with a CSS selector
// (".navbar-nav .nav-link" unless configured otherwise).
package navmark
