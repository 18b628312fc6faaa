package channels

import (
	"bytes"
	"errors"
	"html"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// telegramMarkdown parses the markdown dialect LLMs tend to produce.
var telegramMarkdown = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))

// formatTelegram converts markdown to the HTML subset Telegram accepts.
func formatTelegram(markdown string) (string, bool) {
	out, err := renderTelegram(markdown, telegramMarkdown)
	if err != nil {
		return "", false
	}
	return out, true
}

func renderTelegram(markdown string, md goldmark.Markdown) (string, error) {
	if md == nil {
		return "", errors.New("markdown parser is not configured")
	}
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		return renderTelegramNode(&buf, source, n, entering), nil
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderTelegramNode(buf *bytes.Buffer, source []byte, n ast.Node, entering bool) ast.WalkStatus {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			buf.WriteString("<b>")
		} else {
			buf.WriteString("</b>\n")
		}
	case *ast.Paragraph:
		if !entering && node.NextSibling() != nil {
			buf.WriteString("\n\n")
		}
	case *ast.Blockquote:
		if entering {
			buf.WriteString("<blockquote>")
		} else {
			buf.WriteString("</blockquote>\n")
		}
	case *ast.List:
		if !entering && node.NextSibling() != nil {
			buf.WriteString("\n")
		}
	case *ast.ListItem:
		if entering {
			buf.WriteString(listMarker(node))
		} else {
			buf.WriteString("\n")
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			buf.WriteString("<pre><code>")
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.WriteString(html.EscapeString(string(seg.Value(source))))
			}
			buf.WriteString("</code></pre>")
			if n.NextSibling() != nil {
				buf.WriteString("\n")
			}
		}
		return ast.WalkSkipChildren
	case *ast.ThematicBreak:
		if entering {
			buf.WriteString("\n")
		}
	case *ast.Emphasis:
		tag := "i"
		if node.Level >= 2 {
			tag = "b"
		}
		writeTag(buf, tag, entering)
	case *extast.Strikethrough:
		writeTag(buf, "s", entering)
	case *ast.CodeSpan:
		writeTag(buf, "code", entering)
	case *ast.Link:
		if entering {
			buf.WriteString(`<a href="`)
			buf.WriteString(html.EscapeString(string(node.Destination)))
			buf.WriteString(`">`)
		} else {
			buf.WriteString("</a>")
		}
	case *ast.AutoLink:
		if entering {
			url := html.EscapeString(string(node.URL(source)))
			buf.WriteString(`<a href="` + url + `">` + url + "</a>")
		}
		return ast.WalkSkipChildren
	case *ast.Image, *ast.RawHTML, *ast.HTMLBlock:
		return ast.WalkSkipChildren
	case *ast.Text:
		if entering {
			buf.WriteString(html.EscapeString(string(node.Segment.Value(source))))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteString("\n")
			}
		}
	case *ast.String:
		if entering {
			buf.WriteString(html.EscapeString(string(node.Value)))
		}
	}
	return ast.WalkContinue
}

func writeTag(buf *bytes.Buffer, tag string, entering bool) {
	if entering {
		buf.WriteString("<" + tag + ">")
	} else {
		buf.WriteString("</" + tag + ">")
	}
}

func listMarker(item *ast.ListItem) string {
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return "- "
	}
	index := list.Start
	for prev := item.PreviousSibling(); prev != nil; prev = prev.PreviousSibling() {
		index++
	}
	return strconv.Itoa(index) + ". "
}
