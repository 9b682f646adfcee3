// Package render turns message text into HTML for the chat view.
package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts message content to sanitized HTML. Raw HTML in the input
// is escaped and bare URLs become links.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// HTML renders content. On a conversion error the escaped plain text is returned.
func (r *Renderer) HTML(content string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return "<p>" + escape(content) + "</p>"
	}
	out := buf.String()
	return strings.ReplaceAll(out, "<a href=", `<a target="_blank" rel="noopener noreferrer" href=`)
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&#34;",
	"'", "&#39;",
)

func escape(s string) string {
	return htmlEscaper.Replace(s)
}
