package scraper

import (
	"errors"
	"fmt"

	"BookStoreScraper/internal/models"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var (
	// ErrNotImplemented is returned by extraction hooks a store did not provide.
	ErrNotImplemented = errors.New("not implemented")
	// ErrNoBookDetails means a page had no book details node.
	ErrNoBookDetails = fmt.Errorf("%w: no schema.org Book node found", ErrNotImplemented)
	ErrInvalidConfig = errors.New("invalid store config")
)

const bookType = `@itemtype="http://schema.org/Book" or @itemtype="https://schema.org/Book"`

// BookXPath selects the outermost elements typed as a schema.org Book.
// Books nested in another Book (workExample editions and the like) belong to it.
const BookXPath = `//*[(` + bookType + `) and not(ancestor::*[` + bookType + `])]`

// Extractor is what every store has to know about its own markup.
// A store locates listing nodes and a detail node in a parsed page and turns them
// into results. Embed Base to get the schema.org defaults.
type Extractor interface {
	// FindSearchResults locates one node per result on a search page.
	FindSearchResults(doc *html.Node) ([]*html.Node, error)

	// ParseSearchResult extracts the fields of one listing node.
	// A nil result with a nil error means the node held nothing usable.
	ParseSearchResult(node *html.Node) (*models.SearchResult, error)

	// FindBookDetails locates the single details node on a book page.
	FindBookDetails(doc *html.Node) (*html.Node, error)

	// ParseBookDetails extracts the fields of a details node.
	ParseBookDetails(node *html.Node) (*models.SearchResult, error)
}

// AuthorNormalizer can be implemented by an Extractor to canonicalise author text.
type AuthorNormalizer interface {
	NormalizeAuthor(text string) string
}

// Base provides the default hooks. FindSearchResults returns every top-level
// schema.org Book node on the page rather than going through FindBookDetails,
// which only yields the first. The parse hooks are left unimplemented.
type Base struct{}

func (Base) FindSearchResults(doc *html.Node) ([]*html.Node, error) {
	return htmlquery.QueryAll(doc, BookXPath)
}

func (Base) ParseSearchResult(*html.Node) (*models.SearchResult, error) {
	return nil, fmt.Errorf("ParseSearchResult: %w", ErrNotImplemented)
}

func (Base) FindBookDetails(doc *html.Node) (*html.Node, error) {
	nodes, err := htmlquery.QueryAll(doc, BookXPath)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrNoBookDetails
	}
	return nodes[0], nil
}

func (Base) ParseBookDetails(*html.Node) (*models.SearchResult, error) {
	return nil, fmt.Errorf("ParseBookDetails: %w", ErrNotImplemented)
}
