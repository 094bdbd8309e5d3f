package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"only blank lines", "\n   \n\t\n\n", ""},
		{"h1 escaped", "# Tom & Jerry <live>", "<h1>Tom &amp; Jerry &lt;live&gt;</h1>"},
		{"h2", "## Sección", "<h2>Sección</h2>"},
		{"quotes", `say "hi" it's`, "<p>say &quot;hi&quot; it&#39;s</p>"},
		{"no double escape", "&lt;", "<p>&amp;lt;</p>"},
		{
			"list block",
			"- uno\n- dos\n- tres",
			"<ul><li>uno</li><li>dos</li><li>tres</li></ul>",
		},
		{
			"blank line closes list",
			"- a\n\n- b",
			"<ul><li>a</li></ul><ul><li>b</li></ul>",
		},
		{
			"paragraph closes list",
			"- a\ntexto\n- b",
			"<ul><li>a</li></ul><p>texto</p><ul><li>b</li></ul>",
		},
		{
			"heading closes list",
			"- a\n## B",
			"<ul><li>a</li></ul><h2>B</h2>",
		},
		{
			"mixed document",
			"  # Título  \n\nIntro **bold** text\n\n## Puntos\n- uno\n- dos\n",
			"<h1>Título</h1><p>Intro **bold** text</p><h2>Puntos</h2><ul><li>uno</li><li>dos</li></ul>",
		},
		{"hash without space is a paragraph", "#tag", "<p>#tag</p>"},
		{"triple hash is a paragraph", "### deep", "<p>### deep</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTML(tt.input))
		})
	}
}

func TestDeriveTitleFromContent(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", DefaultTitle},
		{"\n  \n", DefaultTitle},
		{"## Hello\nbody", "Hello"},
		{"\n\n#   Spaced title  \nbody", "Spaced title"},
		{"plain first line\n# later", "plain first line"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveTitleFromContent(tt.input), "input %q", tt.input)
	}
}

func TestWrap(t *testing.T) {
	article := "<h1>Energía Solar</h1><p>...</p>"

	first := Wrap(article)
	second := Wrap(article)
	assert.Equal(t, first, second)

	assert.Equal(t, 1, strings.Count(first, `class="ia-generated"`))
	assert.Contains(t, first, article)
	assert.True(t, strings.HasPrefix(first, "<style>\n"+Stylesheet))
	assert.True(t, strings.HasSuffix(first, "</div>"))
}

func TestWrapTwiceNests(t *testing.T) {
	twice := Wrap(Wrap("<p>x</p>"))
	assert.Equal(t, 2, strings.Count(twice, `class="ia-generated"`))
}

func TestStylesheetIsScoped(t *testing.T) {
	require.NotEmpty(t, Stylesheet)
	for _, line := range strings.Split(Stylesheet, "\n") {
		if strings.HasSuffix(line, "{") {
			assert.True(t, strings.HasPrefix(line, "."+MarkerClass), "unscoped rule %q", line)
		}
	}
}

func TestMarkdown(t *testing.T) {
	out, err := Markdown("# Hola\n\n- a\n- b\n\n~~old~~\n")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Hola</h1>")
	assert.Contains(t, out, "<li>a</li>")
	assert.Contains(t, out, "<del>old</del>")

	out, err = Markdown("<script>alert(1)</script>\n")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}
