// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// skipElements never contribute text.
var skipElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true, "svg": true,
	"nav": true, "footer": true, "header": true, "form": true, "aside": true,
	"template": true, "button": true,
}

// blockElements start a new paragraph.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "ul": true, "ol": true, "table": true, "tr": true, "blockquote": true,
	"pre": true, "br": true, "hr": true, "dd": true, "dt": true, "figcaption": true,
}

// extractHTML parses an HTML document and returns its title and visible
// text. Paragraphs are separated by blank lines.
func extractHTML(r io.Reader) (title, text string, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", "", err
	}

	var sb strings.Builder
	var h1 string
	var walk func(n *html.Node, depth int)
	walk = func(n *html.Node, depth int) {
		if depth > 200 {
			return
		}
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString(" ")
			}
			return
		case html.ElementNode:
			if skipElements[n.Data] {
				return
			}
			switch n.Data {
			case "title":
				if title == "" {
					title = collapse(nodeText(n))
				}
				return
			case "h1":
				if h1 == "" {
					h1 = collapse(nodeText(n))
				}
			}
			if blockElements[n.Data] {
				sb.WriteString("\n")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, depth+1)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			sb.WriteString("\n")
		}
	}
	walk(doc, 0)

	if title == "" {
		title = h1
	}
	return title, cleanText(sb.String()), nil
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanText collapses whitespace within lines, drops empty lines, and
// joins the remaining lines as paragraphs.
func cleanText(s string) string {
	var paras []string
	for _, line := range strings.Split(s, "\n") {
		if l := collapse(line); l != "" {
			paras = append(paras, l)
		}
	}
	return strings.Join(paras, "\n\n")
}
