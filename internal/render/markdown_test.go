package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLLinkifiesURLs(t *testing.T) {
	out := NewRenderer().HTML("veja https://fios.net.br/faturas para detalhes")

	assert.Contains(t, out, `href="https://fios.net.br/faturas"`)
	assert.Contains(t, out, `target="_blank"`)
	assert.Contains(t, out, `rel="noopener noreferrer"`)
}

func TestHTMLEscapesRawHTML(t *testing.T) {
	out := NewRenderer().HTML("<script>alert(1)</script>")

	assert.NotContains(t, out, "<script>")
}

func TestHTMLKeepsLineBreaks(t *testing.T) {
	out := NewRenderer().HTML("linha um\nlinha dois")

	assert.Contains(t, out, "<br")
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "&lt;b&gt; &amp; &#34;x&#34;", escape(`<b> & "x"`))
}
