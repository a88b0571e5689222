package audit

import (
	"strings"

	"golang.org/x/net/html"
)

// Small query helpers over the x/net/html node tree. The classifiers only
// need class tests, text flattening, and document-order traversal, so these
// stay deliberately minimal rather than pulling in a selector engine.

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// classList splits the element's class attribute on whitespace.
func classList(n *html.Node) []string {
	return strings.Fields(attr(n, "class"))
}

// hasClass reports whether the element carries the exact class name.
func hasClass(n *html.Node, name string) bool {
	for _, c := range classList(n) {
		if c == name {
			return true
		}
	}
	return false
}

// classContains reports whether any class name contains the substring,
// mirroring a CSS [class*=...] attribute selector.
func classContains(n *html.Node, substr string) bool {
	return strings.Contains(attr(n, "class"), substr)
}

// isElem reports whether n is an element with one of the given tag names.
func isElem(n *html.Node, tags ...string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}

// text concatenates all text-node content under n, preserving the source
// document's whitespace so callers can split on newlines the way the
// original exports lay lines out.
func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// trimmedText is text(n) with surrounding whitespace removed.
func trimmedText(n *html.Node) string {
	return strings.TrimSpace(text(n))
}

// findFirst returns the first descendant (document order, excluding n
// itself) satisfying pred, or nil.
func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && pred(c) {
			return c
		}
		if found := findFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every descendant element (document order, excluding n
// itself) satisfying pred.
func findAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && pred(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// nextElemSibling returns the next sibling that is an element node.
func nextElemSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// closest walks up the ancestor chain (including n) to the first element
// satisfying pred, or nil.
func closest(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && pred(cur) {
			return cur
		}
	}
	return nil
}

// splitLines breaks s on newlines, trims each line, and keeps lines longer
// than minLen runes.
func splitLines(s string, minLen int) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > minLen {
			out = append(out, line)
		}
	}
	return out
}

// flattenText renders the document as plain text with a line break after
// every block-level element (p, div, headings, br, li, tr). This is the
// last-resort view of a document whose structure defeated every other
// strategy.
func flattenText(doc *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			return
		}
		if isElem(node, "br") {
			sb.WriteString("\n")
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if isElem(node, "p", "div", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6") {
			sb.WriteString("\n")
		}
	}
	walk(doc)
	return sb.String()
}
