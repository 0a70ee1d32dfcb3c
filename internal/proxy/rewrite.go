package proxy

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
)

const (
	houndTitle = "Hound"
	proxyTitle = "MediaWiki code search"

	// StartupMarker is the text hound serves while its indexes are still
	// loading. The health probe keys on it too.
	StartupMarker = "Hound is not ready."

	startupMessage = "Hound is still starting up, please wait a few minutes and try again."
)

// Display labels for the navigation header. Backends without a label fall
// back to their profile name.
var labels = map[string]string{
	"search":     "Everything",
	"core":       "MediaWiki core",
	"extensions": "Extensions",
	"skins":      "Skins",
	"things":     "Extensions & skins",
	"ooui":       "OOUI",
	"operations": "Wikimedia operations",
	"armchairgm": "ArmchairGM",
	"milkshake":  "Milkshake",
	"bundled":    "Bundled extensions & skins",
	"deployed":   "Wikimedia deployed",
	"pywikibot":  "Pywikibot",
	"services":   "Wikimedia services",
}

// navigationHeader renders the profile-switcher links, with the current
// backend bolded instead of linked.
func navigationHeader(backends []string, current string) string {
	links := make([]string, 0, len(backends))
	for _, name := range backends {
		label := labels[name]
		if label == "" {
			label = name
		}
		label = html.EscapeString(label)
		if name == current {
			links = append(links, "<b>"+label+"</b>")
		} else {
			links = append(links, fmt.Sprintf("<a href=%q>%s</a>", "/"+name+"/", label))
		}
	}
	return "\n<div style=\"text-align: center;\">\n<h2>MediaWiki code search</h2>\n\n" +
		strings.Join(links, " . ") + "\n</div>\n"
}

// RewriteIndex rebrands a hound index page: retitles it, injects the
// navigation header at the top of the body, and softens the startup
// placeholder. Everything else passes through untouched.
func RewriteIndex(page []byte, backends []string, current string) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryProxy, "parsing backend page")
	}

	bodyContext := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	header, err := html.ParseFragment(strings.NewReader(navigationHeader(backends, current)), bodyContext)
	if err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryProxy, "parsing navigation header")
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.ElementNode && n.Data == "title":
			retitle(n)
		case n.Type == html.ElementNode && n.Data == "body":
			first := n.FirstChild
			for _, child := range header {
				n.InsertBefore(child, first)
			}
			header = nil
		case n.Type == html.TextNode && strings.Contains(n.Data, StartupMarker):
			n.Data = strings.ReplaceAll(n.Data, StartupMarker, startupMessage)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryProxy, "rendering rewritten page")
	}
	return buf.Bytes(), nil
}

// retitle swaps hound's default page title for ours. Pages that already
// carry a different title keep it.
func retitle(n *html.Node) {
	text := n.FirstChild
	if text != nil && text.Type == html.TextNode && text.Data == houndTitle {
		text.Data = proxyTitle
	}
}
