package navmark

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// DefaultSelector selects the navigation links of a Bootstrap-style navbar.
const DefaultSelector = ".navbar-nav .nav-link"

// ErrInvalidSelector is returned by NewMarker when the link selector can't be
// compiled.
var ErrInvalidSelector = errors.New("invalid navigation link selector")

// Options configures a Marker. The zero value is usable and gives the default
// behavior.
type Options struct {
	// Selector is the CSS selector matching navigation links. Defaults to
	// DefaultSelector.
	Selector string

	// ActiveClass is added to the matching links. Defaults to
	// DefaultActiveClass.
	ActiveClass string

	// Fallback is the page identifier used for paths ending in a
	// separator. Defaults to DefaultFallback.
	Fallback string

	// Aliases rewrites the page identifier before comparing it. A nil map
	// means DefaultAliases; pass an empty map to disable aliasing.
	Aliases Aliases
}

// Marker marks the active navigation link in HTML documents. It's immutable
// once created, so a single Marker can be shared between goroutines.
type Marker struct {
	selector    cascadia.Selector
	activeClass string
	fallback    string
	aliases     Aliases
}

// NewMarker returns a Marker configured by opts.
func NewMarker(opts Options) (*Marker, error) {
	if opts.Selector == "" {
		opts.Selector = DefaultSelector
	}
	if opts.ActiveClass == "" {
		opts.ActiveClass = DefaultActiveClass
	}
	if opts.Fallback == "" {
		opts.Fallback = DefaultFallback
	}
	if opts.Aliases == nil {
		opts.Aliases = DefaultAliases()
	}
	sel, err := cascadia.Compile(opts.Selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSelector, opts.Selector, err)
	}
	aliases := make(Aliases, len(opts.Aliases))
	for k, v := range opts.Aliases {
		aliases[k] = v
	}
	return &Marker{
		selector:    sel,
		activeClass: opts.ActiveClass,
		fallback:    opts.Fallback,
		aliases:     aliases,
	}, nil
}

// ActiveClass returns the class the Marker adds to matching links.
func (m *Marker) ActiveClass() string {
	return m.activeClass
}

// Current returns the page identifier for urlPath, after aliasing.
func (m *Marker) Current(urlPath string) string {
	return m.aliases.Resolve(PageID(urlPath, m.fallback))
}

// Links returns a descriptor for every navigation link in doc, in document
// order. The descriptors are copies; changing them doesn't change doc.
func (m *Marker) Links(doc *html.Node) []*Link {
	if doc == nil {
		return nil
	}
	nodes := m.selector.MatchAll(doc)
	links := make([]*Link, 0, len(nodes))
	for _, node := range nodes {
		href, ok := attr(node, "href")
		class, _ := attr(node, "class")
		links = append(links, &Link{
			Target:    href,
			HasTarget: ok,
			Classes:   strings.Fields(class),
		})
	}
	return links
}

// MarkNode adds the active class to every navigation link in doc whose href
// equals the current page identifier for urlPath. It returns the number of
// matching links. A document without a navbar is left as-is.
func (m *Marker) MarkNode(doc *html.Node, urlPath string) int {
	targets := m.targets(doc, urlPath)
	for _, node := range targets {
		m.activate(node)
	}
	return len(targets)
}

func (m *Marker) targets(doc *html.Node, urlPath string) []*html.Node {
	if doc == nil {
		return nil
	}
	id := m.Current(urlPath)
	var targets []*html.Node
	for _, node := range m.selector.MatchAll(doc) {
		if href, ok := attr(node, "href"); ok && href == id {
			targets = append(targets, node)
		}
	}
	return targets
}

// Rewrite reads the HTML document from r, marks it for urlPath, and writes
// the result to w. It returns the number of matching links.
func (m *Marker) Rewrite(w io.Writer, r io.Reader, urlPath string) (int, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("error reading document: %w", err)
	}
	out, matched, err := m.RewriteBytes(src, urlPath)
	if err != nil {
		return matched, err
	}
	if _, err := w.Write(out); err != nil {
		return matched, fmt.Errorf("error writing document: %w", err)
	}
	return matched, nil
}

// RewriteBytes marks the document src for urlPath. Only the start tags of
// the links that gain the class are rewritten; every other byte of src is
// kept as written. When a link can't be traced back to its tag in src, as
// with markup the parser had to restructure, the whole marked tree is
// rendered instead.
func (m *Marker) RewriteBytes(src []byte, urlPath string) ([]byte, int, error) {
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, 0, fmt.Errorf("error parsing document: %w", err)
	}
	targets := m.targets(doc, urlPath)
	if len(targets) == 0 {
		return src, 0, nil
	}
	if found, ok := locate(src, doc, targets); ok {
		return splice(src, targets, found, m.activeClass), len(targets), nil
	}

	for _, node := range targets {
		m.activate(node)
	}
	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return nil, len(targets), fmt.Errorf("error rendering document: %w", err)
	}
	return out.Bytes(), len(targets), nil
}

func (m *Marker) activate(node *html.Node) {
	for i, a := range node.Attr {
		if a.Namespace != "" || a.Key != "class" {
			continue
		}
		if val, changed := addClass(a.Val, m.activeClass); changed {
			node.Attr[i].Val = val
		}
		return
	}
	node.Attr = append(node.Attr, html.Attribute{Key: "class", Val: m.activeClass})
}

func attr(node *html.Node, key string) (string, bool) {
	for _, a := range node.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
