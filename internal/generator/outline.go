package generator

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Heading is one heading of a rendered document.
type Heading struct {
	Level int
	Title string
	ID    string // anchor generated the way goldmark renders it
	Line  int    // 1-based line of the heading in the parsed document
}

// Outline parses markdown and returns its headings in document order.
func Outline(markdown string) []Heading {
	source := []byte(markdown)
	md := goldmark.New(goldmark.WithParserOptions(parser.WithAutoHeadingID()))
	doc := md.Parser().Parse(text.NewReader(source))

	var headings []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		heading := Heading{Level: h.Level, Title: string(h.Text(source))}
		if h.Lines().Len() > 0 {
			heading.Line = bytes.Count(source[:h.Lines().At(0).Start], []byte("\n")) + 1
		}
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				heading.ID = string(b)
			}
		}
		headings = append(headings, heading)
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// TableOfContents renders a bullet list linking every heading of the given
// level.
func TableOfContents(headings []Heading, level int) string {
	var sb strings.Builder
	for _, h := range headings {
		if h.Level != level {
			continue
		}
		fmt.Fprintf(&sb, "- [%s](#%s)\n", escapeLinkText(h.Title), h.ID)
	}
	return sb.String()
}

var linkTextEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`)

func escapeLinkText(s string) string {
	return linkTextEscaper.Replace(s)
}
