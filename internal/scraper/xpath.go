package scraper

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// TextNodes is the suffix Text uses to collect every text node under a match.
const TextNodes = "//text()"

// XPathExpr builds `elem[contains(@class, "cls")]suffix`, or `elemsuffix` without a class.
func XPathExpr(elem, cls, suffix string) string {
	if cls != "" {
		return fmt.Sprintf(`%s[contains(@class, "%s")]%s`, elem, cls, suffix)
	}
	return elem + suffix
}

// XPath evaluates the expression built from elem, cls and suffix relative to node.
func XPath(node *html.Node, elem, cls, suffix string) ([]*html.Node, error) {
	expr := XPathExpr(elem, cls, suffix)
	nodes, err := htmlquery.QueryAll(node, expr)
	if err != nil {
		return nil, fmt.Errorf("evaluating xpath %q: %w", expr, err)
	}
	return nodes, nil
}

// Text joins the text under every elem matching cls, with CRLF collapsed to a space and trimmed.
func Text(node *html.Node, elem, cls string) string {
	return TextSuffix(node, elem, cls, TextNodes)
}

// TextSuffix is Text with an explicit suffix, e.g. "/@href" to read an attribute.
func TextSuffix(node *html.Node, elem, cls, suffix string) string {
	nodes, err := XPath(node, elem, cls, suffix)
	if err != nil {
		logrus.WithError(err).Debug("xpath text lookup failed")
		return ""
	}
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(htmlquery.InnerText(n))
	}
	return strings.TrimSpace(strings.ReplaceAll(b.String(), "\r\n", " "))
}
