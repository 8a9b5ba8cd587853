package scraper

import (
	"BookStoreScraper/internal/models"
	"BookStoreScraper/pkg/config"

	"golang.org/x/net/html"
)

// Selectors is an Extractor driven by XPath selectors from the config file.
// Each field lists fallback selectors; the first one yielding text wins.
// Without results/details selectors it uses the schema.org defaults of Base.
type Selectors struct {
	Base
	Fields config.SelectorsConfig
}

func NewSelectors(fields config.SelectorsConfig) *Selectors {
	return &Selectors{Fields: fields}
}

func (s *Selectors) FindSearchResults(doc *html.Node) ([]*html.Node, error) {
	if len(s.Fields.Results) == 0 {
		return s.Base.FindSearchResults(doc)
	}
	return firstNodes(doc, s.Fields.Results)
}

func (s *Selectors) FindBookDetails(doc *html.Node) (*html.Node, error) {
	if len(s.Fields.Details) == 0 {
		return s.Base.FindBookDetails(doc)
	}
	nodes, err := firstNodes(doc, s.Fields.Details)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrNoBookDetails
	}
	return nodes[0], nil
}

func (s *Selectors) ParseSearchResult(node *html.Node) (*models.SearchResult, error) {
	return s.parse(node), nil
}

func (s *Selectors) ParseBookDetails(node *html.Node) (*models.SearchResult, error) {
	return s.parse(node), nil
}

func (s *Selectors) parse(node *html.Node) *models.SearchResult {
	r := &models.SearchResult{
		DetailItem: firstText(node, s.Fields.DetailItem),
		Title:      firstText(node, s.Fields.Title),
		Author:     firstText(node, s.Fields.Author),
		Price:      firstText(node, s.Fields.Price),
		CoverURL:   firstText(node, s.Fields.Cover),
		Formats:    firstText(node, s.Fields.Formats),
		DRMText:    firstText(node, s.Fields.DRM),
	}
	if *r == (models.SearchResult{}) {
		return nil
	}
	return r
}

func firstNodes(doc *html.Node, selectors []config.Selector) ([]*html.Node, error) {
	var lastErr error
	for _, sel := range selectors {
		nodes, err := XPath(doc, sel.Elem, sel.Class, sel.Suffix)
		if err != nil {
			lastErr = err
			continue
		}
		if len(nodes) > 0 {
			return nodes, nil
		}
	}
	return nil, lastErr
}

func firstText(node *html.Node, selectors []config.Selector) string {
	for _, sel := range selectors {
		suffix := sel.Suffix
		if suffix == "" {
			suffix = TextNodes
		}
		if v := TextSuffix(node, sel.Elem, sel.Class, suffix); v != "" {
			return v
		}
	}
	return ""
}
