package scraper

import (
	"strings"

	"BookStoreScraper/internal/models"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Microdata reads schema.org Book microdata (itemprop attributes).
// It serves stores that mark up both listings and detail pages with itemscope/itemprop.
type Microdata struct {
	Base
}

func (Microdata) ParseSearchResult(node *html.Node) (*models.SearchResult, error) {
	return parseMicrodata(node), nil
}

func (Microdata) ParseBookDetails(node *html.Node) (*models.SearchResult, error) {
	return parseMicrodata(node), nil
}

func parseMicrodata(node *html.Node) *models.SearchResult {
	item := goquery.NewDocumentFromNode(node).Selection

	r := &models.SearchResult{
		DetailItem: propValue(ownProps(item, "url").First()),
		Title:      propValue(ownProps(item, "name").First()),
		Author:     joinProps(ownProps(item, "author"), ", "),
		CoverURL:   propValue(ownProps(item, "image").First()),
		Formats:    joinFormats(ownProps(item, "bookFormat")),
	}
	if price := propValue(props(item, "price").First()); price != "" {
		if currency := propValue(props(item, "priceCurrency").First()); currency != "" {
			price += " " + currency
		}
		r.Price = price
	}

	r.DRMText = propValue(props(item, "drm").First())
	if r.DRMText == "" {
		r.DRMText = strings.TrimSpace(item.Find("[data-drm]").First().AttrOr("data-drm", ""))
	}

	if r.Title == "" && r.DetailItem == "" {
		return nil
	}
	return r
}

// props finds every descendant carrying the itemprop name, nested items included.
func props(item *goquery.Selection, name string) *goquery.Selection {
	return item.Find("[itemprop~=" + name + "]")
}

// ownProps skips properties belonging to nested items, e.g. an author's own name.
func ownProps(item *goquery.Selection, name string) *goquery.Selection {
	return props(item, name).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsUntilSelection(item).Filter("[itemscope]").Length() == 0
	})
}

// propValue reads a microdata property value: content, src, href, datetime or text.
func propValue(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	if v, ok := s.Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	switch goquery.NodeName(s) {
	case "a", "link", "area":
		return strings.TrimSpace(s.AttrOr("href", ""))
	case "img", "source", "audio", "video", "embed", "iframe":
		return strings.TrimSpace(s.AttrOr("src", ""))
	case "object":
		return strings.TrimSpace(s.AttrOr("data", ""))
	case "data", "meter":
		return strings.TrimSpace(s.AttrOr("value", ""))
	case "time":
		if v, ok := s.Attr("datetime"); ok {
			return strings.TrimSpace(v)
		}
	}
	if _, ok := s.Attr("itemscope"); ok {
		// An author given as a Person: use its name.
		if name := ownProps(s, "name").First(); name.Length() > 0 {
			return propValue(name)
		}
	}
	return strings.Join(strings.Fields(s.Text()), " ")
}

func joinProps(s *goquery.Selection, sep string) string {
	var values []string
	s.Each(func(_ int, p *goquery.Selection) {
		if v := propValue(p); v != "" {
			values = append(values, v)
		}
	})
	return strings.Join(values, sep)
}

// joinFormats turns values like "http://schema.org/EBook" into "EBook".
func joinFormats(s *goquery.Selection) string {
	var formats []string
	s.Each(func(_ int, p *goquery.Selection) {
		v := propValue(p)
		if i := strings.LastIndex(v, "/"); i >= 0 {
			v = v[i+1:]
		}
		if v != "" {
			formats = append(formats, v)
		}
	})
	return strings.Join(formats, ", ")
}
