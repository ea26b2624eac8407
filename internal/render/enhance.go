package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// codeBlockClass marks a <pre> that went through enhancement.
	codeBlockClass = "code-block"
	// copyButtonClass identifies the injected copy control.
	copyButtonClass = "code-block__copy-button"
	// languageClassPrefix is how rendered markdown tags a block's language.
	languageClassPrefix = "language-"

	highlightStyle = "github-dark"
)

var highlightFormatter = chromahtml.New(
	chromahtml.WithClasses(true),
	chromahtml.PreventSurroundingPre(true),
)

// Enhancer post-processes an already-rendered HTML tree: every code block
// gets syntax highlighting and exactly one copy control.
//
// The marker set is keyed by node identity, not content, so enhancing the
// same tree twice is a no-op with respect to visible structure. When the
// container changes between passes, controls left over from a previous
// render are stripped before re-scanning, so stale controls never duplicate.
type Enhancer struct {
	mu        sync.Mutex
	container *html.Node
	enhanced  map[*html.Node]struct{}
}

// NewEnhancer creates an enhancer with an empty marker set.
func NewEnhancer() *Enhancer {
	return &Enhancer{enhanced: make(map[*html.Node]struct{})}
}

// Enhance mutates container in place. Safe to call repeatedly.
func (e *Enhancer) Enhance(container *html.Node) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if container != e.container {
		removeCopyButtons(container)
		e.container = container
		e.enhanced = make(map[*html.Node]struct{})
	}

	for _, pre := range findElements(container, atom.Pre) {
		code := childElement(pre, atom.Code)
		if code == nil {
			continue
		}

		addClass(pre, codeBlockClass)

		if _, done := e.enhanced[code]; !done {
			if err := highlightCode(code); err != nil {
				return err
			}
			e.enhanced[code] = struct{}{}
		}

		if childElementWithClass(pre, atom.Button, copyButtonClass) == nil {
			pre.AppendChild(newCopyButton())
		}
	}
	return nil
}

// EnhanceHTML is the one-shot convenience form: parse the fragment, run a
// fresh enhancement pass, serialize back.
func EnhanceHTML(fragment string) (string, error) {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}

	container := wrapNodes(nodes)
	if err := NewEnhancer().Enhance(container); err != nil {
		return "", err
	}
	return serializeChildren(container)
}

// HighlightCSS returns the stylesheet for the highlight classes the enhancer
// emits.
func HighlightCSS() (string, error) {
	var sb strings.Builder
	style := styles.Get(highlightStyle)
	if style == nil {
		style = styles.Fallback
	}
	if err := highlightFormatter.WriteCSS(&sb, style); err != nil {
		return "", fmt.Errorf("render: generate highlight css: %w", err)
	}
	return sb.String(), nil
}

// highlightCode replaces the children of a <code> element with highlighted
// markup. The block's plain text is preserved exactly: highlighting only
// wraps it in spans.
func highlightCode(code *html.Node) error {
	text := textContent(code)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lexer := lexers.Get(languageOf(code))
	if lexer == nil {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return fmt.Errorf("render: tokenise code block: %w", err)
	}

	style := styles.Get(highlightStyle)
	if style == nil {
		style = styles.Fallback
	}

	var sb strings.Builder
	if err := highlightFormatter.Format(&sb, style, iterator); err != nil {
		return fmt.Errorf("render: highlight code block: %w", err)
	}

	highlighted, err := parseFragment(sb.String())
	if err != nil {
		return err
	}

	for code.FirstChild != nil {
		code.RemoveChild(code.FirstChild)
	}
	for _, n := range highlighted {
		code.AppendChild(n)
	}
	return nil
}

// languageOf extracts the language hint from a code element's class list.
func languageOf(code *html.Node) string {
	for _, class := range strings.Fields(attr(code, "class")) {
		if lang, ok := strings.CutPrefix(class, languageClassPrefix); ok {
			return lang
		}
	}
	return ""
}

// newCopyButton builds the injected control. Its behavior (clipboard write
// with selection fallback, transient feedback) lives in the copy script
// asset; the markup here is inert.
func newCopyButton() *html.Node {
	button := &html.Node{
		Type:     html.ElementNode,
		Data:     "button",
		DataAtom: atom.Button,
		Attr: []html.Attribute{
			{Key: "type", Val: "button"},
			{Key: "class", Val: copyButtonClass},
		},
	}
	button.AppendChild(&html.Node{Type: html.TextNode, Data: "Copy"})
	return button
}

// removeCopyButtons strips every injected control under root.
func removeCopyButtons(root *html.Node) {
	var stale []*html.Node
	walk(root, func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Button && hasClass(n, copyButtonClass) {
			stale = append(stale, n)
		}
	})
	for _, n := range stale {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

// textContent returns the concatenated text of a node, excluding any
// injected controls.
func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(child *html.Node) {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
	})
	return sb.String()
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Button && hasClass(n, copyButtonClass) {
		fn(n)
		return
	}
	fn(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, fn)
	}
}

func findElements(root *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
		}
	})
	return out
}

func childElement(parent *html.Node, a atom.Atom) *html.Node {
	for child := parent.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.DataAtom == a {
			return child
		}
	}
	return nil
}

func childElementWithClass(parent *html.Node, a atom.Atom, class string) *html.Node {
	for child := parent.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.DataAtom == a && hasClass(child, class) {
			return child
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func addClass(n *html.Node, class string) {
	if hasClass(n, class) {
		return
	}
	for i, a := range n.Attr {
		if a.Key == "class" {
			n.Attr[i].Val = a.Val + " " + class
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
}

func parseFragment(fragment string) ([]*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, fmt.Errorf("render: parse html fragment: %w", err)
	}
	return nodes, nil
}

// wrapNodes collects parsed fragment nodes under a synthetic container.
func wrapNodes(nodes []*html.Node) *html.Node {
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container
}

func serializeChildren(container *html.Node) (string, error) {
	var sb strings.Builder
	for child := container.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&sb, child); err != nil {
			return "", fmt.Errorf("render: serialize html: %w", err)
		}
	}
	return sb.String(), nil
}
