package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"BookStoreScraper/internal/models"
	"BookStoreScraper/pkg/config"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const microdataListing = `<html><body>
<article itemscope itemtype="http://schema.org/Book">
  <a itemprop="url" href="/ebook/pan-tadeusz"><h2 itemprop="name">Pan Tadeusz</h2></a>
  <div itemprop="author" itemscope itemtype="http://schema.org/Person">
    <span itemprop="name">Adam Mickiewicz</span>
  </div>
  <img itemprop="image" src="/img/pt.jpg">
  <link itemprop="bookFormat" href="http://schema.org/EBook">
  <meta itemprop="bookFormat" content="epub">
  <div itemprop="offers" itemscope itemtype="http://schema.org/Offer">
    <meta itemprop="price" content="9.90"><meta itemprop="priceCurrency" content="PLN">
  </div>
  <span data-drm="watermark"></span>
</article>
<article itemscope itemtype="https://schema.org/Book">
  <span itemprop="name">Lalka</span>
  <span itemprop="author">Bolesław Prus</span>
  <span itemprop="author">Anonim</span>
  <span itemprop="drm">Adobe DRM</span>
</article>
<article itemscope itemtype="http://schema.org/Book"><p>no data</p></article>
</body></html>`

func TestMicrodataSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, microdataListing)
	}))
	defer srv.Close()

	s, err := New(Config{
		Name: "Microdata", URL: srv.URL + "/", SearchURL: "{0}?q={1}",
		WordsDRMUnlocked: []string{"watermark"},
	}, Microdata{})
	require.NoError(t, err)

	results, err := s.Search(context.Background(), "x", 10, time.Second)
	require.NoError(t, err)
	require.Len(t, results, 2)

	pt := results[0]
	assert.Equal(t, "Pan Tadeusz", pt.Title)
	assert.Equal(t, "/ebook/pan-tadeusz", pt.DetailItem)
	assert.Equal(t, "Adam Mickiewicz", pt.Author)
	assert.Equal(t, srv.URL+"/img/pt.jpg", pt.CoverURL)
	assert.Equal(t, "EBOOK, EPUB", pt.Formats)
	assert.Equal(t, "9.90 PLN", pt.Price)
	assert.Equal(t, models.DRMUnlocked, pt.DRM)

	lalka := results[1]
	assert.Equal(t, "Lalka", lalka.Title)
	assert.Equal(t, "Bolesław Prus, Anonim", lalka.Author)
	assert.Equal(t, models.DRMLocked, lalka.DRM)
	assert.Empty(t, lalka.Price)
}

func TestMicrodataDetails(t *testing.T) {
	doc := mustParse(t, microdataListing)
	node, err := Microdata{}.FindBookDetails(doc)
	require.NoError(t, err)

	r, err := Microdata{}.ParseBookDetails(node)
	require.NoError(t, err)
	assert.Equal(t, "Pan Tadeusz", r.Title)

	_, err = Microdata{}.FindBookDetails(mustParse(t, "<p>none</p>"))
	assert.ErrorIs(t, err, ErrNoBookDetails)
}

const nestedBooksListing = `<html><body>
<div itemscope itemtype="http://schema.org/Book">
  <a itemprop="url" href="/ebook/solaris"><span itemprop="name">Solaris</span></a>
  <span itemprop="author">Stanisław Lem</span>
  <div itemprop="workExample" itemscope itemtype="http://schema.org/Book">
    <span itemprop="name">Solaris (EPUB edition)</span>
    <meta itemprop="bookFormat" content="epub">
  </div>
</div>
<div itemscope itemtype="https://schema.org/Book">
  <a itemprop="url" href="/ebook/eden"><span itemprop="name">Eden</span></a>
</div>
</body></html>`

func TestSearchSkipsNestedBooks(t *testing.T) {
	nodes, err := Base{}.FindSearchResults(mustParse(t, nestedBooksListing))
	require.NoError(t, err)
	assert.Len(t, nodes, 2)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, nestedBooksListing)
	}))
	defer srv.Close()

	s, err := New(Config{Name: "Nested", URL: srv.URL + "/", SearchURL: "{0}?q={1}"}, Microdata{})
	require.NoError(t, err)

	results, err := s.Search(context.Background(), "lem", 10, time.Second)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Solaris", results[0].Title)
	assert.Equal(t, "/ebook/solaris", results[0].DetailItem)
	assert.Empty(t, results[0].Formats, "edition formats stay with the edition")
	assert.Equal(t, "Eden", results[1].Title)
	for _, r := range results {
		assert.NotEmpty(t, r.DetailItem)
	}
}

const selectorListing = `<html><body>
<div class="product-list">
  <div class="product-tile">
    <a class="product-link" href="/p/1"><span class="name">Wiedźmin</span></a>
    <p class="authors">Andrzej Sapkowski</p>
    <p class="price-box"><span class="price-new">34,99 zł</span></p>
    <img class="cover" data-src="/c/1.jpg">
    <ul class="formats"><li>epub</li><li>, mobi</li></ul>
    <p class="protection">znak wodny</p>
  </div>
  <div class="product-tile">
    <a class="product-link" href="/p/2"><span class="name">Krew elfów</span></a>
    <p class="price-box"><span class="price">29,99 zł</span></p>
  </div>
</div>
<section id="details"><h1>Wiedźmin</h1><p class="authors">A. Sapkowski</p></section>
</body></html>`

func selectorFields() config.SelectorsConfig {
	return config.SelectorsConfig{
		Results:    []config.Selector{{Elem: "//div", Class: "product-tile"}},
		Details:    []config.Selector{{Elem: `//section[@id="details"]`}},
		DetailItem: []config.Selector{{Elem: ".//a", Class: "product-link", Suffix: "/@href"}},
		Title:      []config.Selector{{Elem: ".//span", Class: "name"}, {Elem: ".//h1"}},
		Author:     []config.Selector{{Elem: ".//p", Class: "authors"}},
		Price:      []config.Selector{{Elem: ".//span", Class: "price-new"}, {Elem: ".//span", Class: "price"}},
		Cover:      []config.Selector{{Elem: ".//img", Class: "cover", Suffix: "/@data-src"}},
		Formats:    []config.Selector{{Elem: ".//ul", Class: "formats"}},
		DRM:        []config.Selector{{Elem: ".//p", Class: "protection"}},
	}
}

func TestSelectorsSearchResults(t *testing.T) {
	doc := mustParse(t, selectorListing)
	ext := NewSelectors(selectorFields())

	nodes, err := ext.FindSearchResults(doc)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	r, err := ext.ParseSearchResult(nodes[0])
	require.NoError(t, err)
	assert.Equal(t, &models.SearchResult{
		DetailItem: "/p/1",
		Title:      "Wiedźmin",
		Author:     "Andrzej Sapkowski",
		Price:      "34,99 zł",
		CoverURL:   "/c/1.jpg",
		Formats:    "epub, mobi",
		DRMText:    "znak wodny",
	}, r)

	r, err = ext.ParseSearchResult(nodes[1])
	require.NoError(t, err)
	assert.Equal(t, "29,99 zł", r.Price, "falls back to the second price selector")
	assert.Empty(t, r.Author)
}

func TestSelectorsDetails(t *testing.T) {
	doc := mustParse(t, selectorListing)
	ext := NewSelectors(selectorFields())

	node, err := ext.FindBookDetails(doc)
	require.NoError(t, err)
	r, err := ext.ParseBookDetails(node)
	require.NoError(t, err)
	assert.Equal(t, "Wiedźmin", r.Title)
	assert.Equal(t, "A. Sapkowski", r.Author)

	_, err = ext.FindBookDetails(mustParse(t, "<p></p>"))
	assert.ErrorIs(t, err, ErrNoBookDetails)

	empty, err := ext.ParseBookDetails(htmlquery.FindOne(mustParse(t, "<p>x</p>"), "//p"))
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestSelectorsDefaultToSchemaOrg(t *testing.T) {
	ext := NewSelectors(config.SelectorsConfig{Title: []config.Selector{{Elem: ".//*", Class: "t"}}})
	doc := mustParse(t, `<div itemscope itemtype="http://schema.org/Book"><b class="t">Title</b></div>`)

	nodes, err := ext.FindSearchResults(doc)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	node, err := ext.FindBookDetails(doc)
	require.NoError(t, err)
	r, err := ext.ParseBookDetails(node)
	require.NoError(t, err)
	assert.Equal(t, "Title", r.Title)
}

func TestLoadRegistry(t *testing.T) {
	cfg := &config.Config{
		Stores: []config.StoreConfig{
			{Name: "Legimi PL", URL: "https://www.legimi.pl/", SearchURL: "{0}katalog?q={1}"},
			{Name: "Woblink", URL: "https://woblink.com/", SearchURL: "{0}szukaj?q={1}", ExternalOnly: true,
				Selectors: selectorFields()},
		},
	}
	var seen []string
	reg, err := LoadRegistry(cfg, func(sc config.StoreConfig) []Option {
		seen = append(seen, sc.Name)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Legimi PL", "Woblink"}, reg.Names())
	assert.Equal(t, []string{"Legimi PL", "Woblink"}, seen)

	legimi, ok := reg.Get("legimi-pl")
	require.True(t, ok)
	assert.Equal(t, "Legimi PL", legimi.Name())
	assert.IsType(t, Microdata{}, legimi.extractor)

	woblink, ok := reg.Get("Woblink")
	require.True(t, ok)
	assert.True(t, woblink.ExternalOnly())
	assert.IsType(t, &Selectors{}, woblink.extractor)

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	err = reg.Register(legimi)
	assert.Error(t, err)
}
