package builder

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// OutlineFromMarkdown adds one bookmark per Markdown heading, nested by
// heading level. A heading written as a link to "#key" targets the named
// destination key; any other heading targets the top of the first page.
func (d *Document) OutlineFromMarkdown(src []byte) (int, error) {
	if err := d.usable(); err != nil {
		return 0, err
	}
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	type level struct {
		depth int
		b     *Bookmark
	}
	stack := []level{{0, d.outline}}
	top := Destination{}
	if len(d.pages) > 0 {
		top.Y = d.pages[0].Height
	}
	added := 0
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		title, named := headingText(h, src)
		if title == "" {
			return ast.WalkSkipChildren, nil
		}
		for len(stack) > 1 && stack[len(stack)-1].depth >= h.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].b
		var b *Bookmark
		if named != "" {
			b = parent.AddNamedChild(title, named)
		} else {
			b = parent.AddChild(title, top)
		}
		stack = append(stack, level{h.Level, b})
		added++
		return ast.WalkSkipChildren, nil
	})
	return added, err
}

// headingText flattens the inline text of h. A heading whose only child
// is a link to "#key" also reports key.
func headingText(h *ast.Heading, src []byte) (string, string) {
	var buf bytes.Buffer
	var named string
	if h.ChildCount() == 1 {
		if l, ok := h.FirstChild().(*ast.Link); ok && bytes.HasPrefix(l.Destination, []byte("#")) {
			named = string(l.Destination[1:])
		}
	}
	_ = ast.Walk(h, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.CodeSpan:
			for c := t.FirstChild(); c != nil; c = c.NextSibling() {
				if tx, ok := c.(*ast.Text); ok {
					buf.Write(tx.Segment.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String()), named
}
