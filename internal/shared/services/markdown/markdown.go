// Package markdown renders markdown to sanitized HTML for outbound email
// bodies.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

type Renderer interface {
	ToHTML(markdown string) (string, error)
	ToHTMLSanitized(markdown string) (string, error)
}

type rendererImpl struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	return &rendererImpl{
		md:     md,
		policy: bluemonday.UGCPolicy(),
	}
}

func (r *rendererImpl) ToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return buf.String(), nil
}

func (r *rendererImpl) ToHTMLSanitized(markdown string) (string, error) {
	rendered, err := r.ToHTML(markdown)
	if err != nil {
		return "", err
	}
	return r.policy.Sanitize(rendered), nil
}
