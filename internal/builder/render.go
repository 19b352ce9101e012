// internal/builder/render.go
package builder

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
	"gopkg.in/yaml.v3"
)

var (
	markdownRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(newMDLinkTransformer(), 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	htmlSanitizer = newSanitizer()
)

// newSanitizer allows user content plus the class attribute, so content can
// carry its own navbar markup.
func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	return p
}

// frontMatterDelim opens and closes the YAML front matter block.
var frontMatterDelim = []byte("---")

// splitFrontMatter returns the YAML front matter and the body of a content
// file. Content without a leading front matter block is all body.
func splitFrontMatter(raw []byte) ([]byte, []byte) {
	trimmed := bytes.TrimLeft(raw, "\ufeff \t\r\n")
	if !bytes.HasPrefix(trimmed, frontMatterDelim) {
		return nil, raw
	}
	parts := bytes.SplitN(trimmed, frontMatterDelim, 3)
	if len(parts) < 3 {
		return nil, raw
	}
	return parts[1], parts[2]
}

// processContent splits off the front matter, renders the body to HTML and
// sanitizes it unless opts.Unsafe is set.
func processContent(rawContent []byte, opts BuildOptions) (PageMeta, string, error) {
	meta := PageMeta{}

	front, body := splitFrontMatter(rawContent)
	if front != nil {
		if err := yaml.Unmarshal(front, &meta); err != nil {
			return PageMeta{}, "", fmt.Errorf("failed to parse front matter: %w", err)
		}
	}

	var htmlBuffer bytes.Buffer
	if err := markdownRenderer.Convert(body, &htmlBuffer); err != nil {
		return meta, "", fmt.Errorf("failed to render markdown with goldmark: %w", err)
	}

	if !opts.Unsafe {
		return meta, string(htmlSanitizer.SanitizeBytes(htmlBuffer.Bytes())), nil
	}
	return meta, htmlBuffer.String(), nil
}
