package navmark

import (
	"bytes"
	"slices"

	"golang.org/x/net/html"
)

// sourceTag is a start tag as it appears in the source document.
type sourceTag struct {
	tok        html.Token
	start, end int
}

// startTags tokenizes src and returns every start tag named in names, with
// its byte range.
func startTags(src []byte, names map[string]bool) []sourceTag {
	var tags []sourceTag
	z := html.NewTokenizer(bytes.NewReader(src))
	pos := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF; src is in memory so there are no read errors
			return tags
		}
		raw := len(z.Raw())
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			tok := z.Token()
			if names[tok.Data] {
				tags = append(tags, sourceTag{tok: tok, start: pos, end: pos + raw})
			}
		}
		pos += raw
	}
}

// locate pairs each of targets with its start tag in src. Element nodes of
// the same names are matched to source tags in document order by attribute
// equality, so elements the parser implied or cloned are skipped. ok is false
// when some target has no source tag.
func locate(src []byte, doc *html.Node, targets []*html.Node) (map[*html.Node]sourceTag, bool) {
	names := make(map[string]bool)
	for _, n := range targets {
		names[n.Data] = true
	}
	tags := startTags(src, names)

	found := make(map[*html.Node]sourceTag, len(targets))
	next := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && names[n.Data] {
			for i := next; i < len(tags); i++ {
				if sameAttrs(n.Attr, tags[i].tok.Attr) {
					found[n] = tags[i]
					next = i + 1
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, n := range targets {
		if _, ok := found[n]; !ok {
			return nil, false
		}
	}
	return found, true
}

func sameAttrs(a, b []html.Attribute) bool {
	return slices.EqualFunc(a, b, func(x, y html.Attribute) bool {
		return x.Namespace == y.Namespace && x.Key == y.Key && x.Val == y.Val
	})
}

// splice returns src with the start tag of every target rewritten to carry
// class. Bytes outside those tags are copied unchanged.
func splice(src []byte, targets []*html.Node, found map[*html.Node]sourceTag, class string) []byte {
	tags := make([]sourceTag, 0, len(targets))
	for _, n := range targets {
		tags = append(tags, found[n])
	}
	slices.SortFunc(tags, func(a, b sourceTag) int { return a.start - b.start })

	var out bytes.Buffer
	out.Grow(len(src) + len(tags)*(len(class)+1))
	last := 0
	for _, tag := range tags {
		if tag.start < last {
			continue
		}
		rewritten, changed := withClass(tag.tok, class)
		if !changed {
			continue
		}
		out.Write(src[last:tag.start])
		out.WriteString(rewritten)
		last = tag.end
	}
	out.Write(src[last:])
	return out.Bytes()
}

// withClass renders tok with class added to its first class attribute.
func withClass(tok html.Token, class string) (string, bool) {
	tok.Attr = slices.Clone(tok.Attr)
	for i, a := range tok.Attr {
		if a.Namespace != "" || a.Key != "class" {
			continue
		}
		val, changed := addClass(a.Val, class)
		if !changed {
			return "", false
		}
		tok.Attr[i].Val = val
		return tok.String(), true
	}
	tok.Attr = append(tok.Attr, html.Attribute{Key: "class", Val: class})
	return tok.String(), true
}
