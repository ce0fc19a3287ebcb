package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}

// NormalizeText trims the text, collapses inner whitespace into a single
// space and drops non-printable characters. Inner whitespace is collapsed
// as well so that a value wrapped across lines in the markup reads as one.
func NormalizeText(s string) string {
	s = removeNonPrintable(s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NextElement returns the first element of type `tag` that comes after
// `from` in document order (descendants of `from` included), or nil.
func NextElement(from *html.Node, tag atom.Atom) *html.Node {
	if from == nil {
		return nil
	}
	if found := firstElement(from.FirstChild, tag); found != nil {
		return found
	}
	for n := from; n != nil; n = n.Parent {
		if found := firstElement(n.NextSibling, tag); found != nil {
			return found
		}
	}
	return nil
}

// firstElement searches `node`, its descendants and then its following
// siblings in document order.
func firstElement(node *html.Node, tag atom.Atom) *html.Node {
	for n := node; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.DataAtom == tag {
			return n
		}
		if found := firstElement(n.FirstChild, tag); found != nil {
			return found
		}
	}
	return nil
}
