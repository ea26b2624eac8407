// Package render turns guide content into display-ready HTML and applies the
// post-render enhancement pass: syntax highlighting plus an injected copy
// control per code block, idempotent across repeated passes.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// Markdown renders GFM markdown to HTML.
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render: markdown conversion failed: %w", err)
	}
	return buf.String(), nil
}
