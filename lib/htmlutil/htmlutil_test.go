package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func parse(t *testing.T, markup string) *html.Node {
	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func find(root *html.Node, tag atom.Atom) *html.Node {
	return firstElement(root, tag)
}

func TestGetText(t *testing.T) {
	doc := parse(t, `<p>hello <b>there</b> <i>friend</i></p>`)
	require.Equal(t, "hello there friend", GetText(find(doc, atom.P)))
	require.Equal(t, "", GetText(nil))
}

func TestNormalizeText(t *testing.T) {
	require.Equal(t, "Asistencia total", NormalizeText("\n\t  Asistencia \n  total\u0000 "))
	require.Equal(t, "", NormalizeText(" \n "))
}

func TestNextElement(t *testing.T) {
	doc := parse(t, `
		<h1>before</h1>
		<table>
			<tr><th>Asistencia</th><th>Otro</th></tr>
		</table>
		<div><section><h1>92%</h1></section></div>
		<h1>after</h1>`)

	th := find(doc, atom.Th)
	require.NotNil(t, th)

	next := NextElement(th, atom.H1)
	require.NotNil(t, next)
	require.Equal(t, "92%", GetText(next))

	require.Nil(t, NextElement(next.Parent.Parent.NextSibling, atom.Table))
	require.Nil(t, NextElement(nil, atom.H1))
}

func TestNextElementDescendant(t *testing.T) {
	doc := parse(t, `<div id="a"><h1>inside</h1></div><h1>outside</h1>`)
	div := find(doc, atom.Div)
	require.Equal(t, "inside", GetText(NextElement(div, atom.H1)))
}
