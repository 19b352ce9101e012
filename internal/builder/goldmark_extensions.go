// internal/builder/goldmark_extensions.go
package builder

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// mdLinkTransformer points links at other content files to the pages they
// are built into, so "about.md" becomes "about.html" and matches the navbar.
type mdLinkTransformer struct{}

func newMDLinkTransformer() parser.ASTTransformer {
	return &mdLinkTransformer{}
}

func (t *mdLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		link.Destination = rewriteMDDestination(link.Destination)
		return ast.WalkContinue, nil
	})
}

// rewriteMDDestination swaps a trailing .md for .html, keeping any fragment.
// Absolute URLs are left alone.
func rewriteMDDestination(dest []byte) []byte {
	if bytes.Contains(dest, []byte("://")) {
		return dest
	}
	target, fragment := dest, []byte(nil)
	if i := bytes.IndexByte(dest, '#'); i >= 0 {
		target, fragment = dest[:i], dest[i:]
	}
	if !bytes.HasSuffix(target, []byte(".md")) {
		return dest
	}
	out := make([]byte, 0, len(dest)+2)
	out = append(out, bytes.TrimSuffix(target, []byte(".md"))...)
	out = append(out, ".html"...)
	return append(out, fragment...)
}
