package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html/atom"
)

func countOccurrences(s, sub string) int {
	return strings.Count(s, sub)
}

func TestEnhanceHTMLAddsChromeToCodeBlocks(t *testing.T) {
	fragment := `<p>Intro</p><pre><code class="language-go">fmt.Println("hi")</code></pre>`

	out, err := EnhanceHTML(fragment)
	require.NoError(t, err)

	assert.Contains(t, out, `code-block`)
	assert.Equal(t, 1, countOccurrences(out, copyButtonClass))
	assert.Contains(t, out, "Copy")
	assert.Contains(t, out, "<span", "highlighting wraps tokens in spans")
	assert.Contains(t, out, "<p>Intro</p>", "non-code content is untouched")
}

func TestEnhanceHTMLMultipleBlocks(t *testing.T) {
	fragment := `<pre><code class="language-go">a := 1</code></pre>` +
		`<pre><code class="language-python">x = 1</code></pre>` +
		`<pre><code>plain text</code></pre>`

	out, err := EnhanceHTML(fragment)
	require.NoError(t, err)

	assert.Equal(t, 3, countOccurrences(out, copyButtonClass), "one control per block")
	assert.Equal(t, 3, countOccurrences(out, codeBlockClass+`"`)+countOccurrences(out, codeBlockClass+` `), "every pre is marked")
}

func TestEnhanceHTMLPreservesCodeText(t *testing.T) {
	fragment := `<pre><code class="language-go">if a &lt; b {
	return a
}</code></pre>`

	out, err := EnhanceHTML(fragment)
	require.NoError(t, err)

	nodes, err := parseFragment(out)
	require.NoError(t, err)
	container := wrapNodes(nodes)

	pres := findElements(container, atom.Pre)
	require.Len(t, pres, 1)
	code := childElement(pres[0], atom.Code)
	require.NotNil(t, code)

	// textContent skips the injected control, so the copy payload is
	// exactly the original source text.
	assert.Equal(t, "if a < b {\n\treturn a\n}", strings.TrimRight(textContent(code), "\n"))
}

func TestEnhanceIsIdempotent(t *testing.T) {
	fragment := `<pre><code class="language-go">x := 1</code></pre>`

	nodes, err := parseFragment(fragment)
	require.NoError(t, err)
	container := wrapNodes(nodes)

	e := NewEnhancer()
	require.NoError(t, e.Enhance(container))

	first, err := serializeChildren(container)
	require.NoError(t, err)

	// A second pass over the same tree must change nothing.
	require.NoError(t, e.Enhance(container))
	second, err := serializeChildren(container)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, countOccurrences(second, copyButtonClass))
}

func TestEnhanceStripsStaleControlsOnNewContainer(t *testing.T) {
	e := NewEnhancer()

	// A fresh render that carries a control from a previous pass, as when
	// serialized enhanced HTML is re-parsed.
	fragment := `<pre class="code-block"><code>x</code>` +
		`<button type="button" class="` + copyButtonClass + `">Copy</button></pre>`
	nodes, err := parseFragment(fragment)
	require.NoError(t, err)
	container := wrapNodes(nodes)

	require.NoError(t, e.Enhance(container))

	out, err := serializeChildren(container)
	require.NoError(t, err)
	assert.Equal(t, 1, countOccurrences(out, copyButtonClass), "stale control is replaced, not duplicated")
}

func TestEnhanceSkipsPreWithoutCode(t *testing.T) {
	fragment := `<pre>just preformatted text</pre>`

	out, err := EnhanceHTML(fragment)
	require.NoError(t, err)

	assert.NotContains(t, out, copyButtonClass)
	assert.NotContains(t, out, codeBlockClass)
}

func TestEnhanceEmptyCodeBlock(t *testing.T) {
	fragment := `<pre><code>   </code></pre>`

	out, err := EnhanceHTML(fragment)
	require.NoError(t, err)

	// Chrome is still added; there is just nothing to highlight.
	assert.Contains(t, out, codeBlockClass)
	assert.Equal(t, 1, countOccurrences(out, copyButtonClass))
}

func TestLanguageOf(t *testing.T) {
	nodes, err := parseFragment(`<pre><code class="hljs language-python extra">x</code></pre>`)
	require.NoError(t, err)
	container := wrapNodes(nodes)

	code := childElement(findElements(container, atom.Pre)[0], atom.Code)
	require.NotNil(t, code)
	assert.Equal(t, "python", languageOf(code))
}

func TestHighlightCSS(t *testing.T) {
	css, err := HighlightCSS()
	require.NoError(t, err)
	assert.NotEmpty(t, css)
	assert.Contains(t, css, ".chroma")
}

func TestMarkdown(t *testing.T) {
	out, err := Markdown("# Title\n\nSome `code` and a [link](https://example.com).\n")
	require.NoError(t, err)

	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<code>code</code>")
	assert.Contains(t, out, `href="https://example.com"`)
}

func TestMarkdownGFMTables(t *testing.T) {
	out, err := Markdown("| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Contains(t, out, "<table>")
}
