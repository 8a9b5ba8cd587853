package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"BookStoreScraper/internal/logger"
	"BookStoreScraper/internal/metrics"
	"BookStoreScraper/internal/models"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Config is the per-store configuration. It is copied by New and never changes afterwards.
type Config struct {
	Name string
	// URL is the store's base URL. Relative items resolve against it.
	URL string
	// SearchURL is a template: {0} is URL, {1} the encoded query and {2} the result limit.
	SearchURL         string
	ExternalOnly      bool
	WordsDRMLocked    []string
	WordsDRMUnlocked  []string
	UserAgent         string
	RequestsPerSecond float64
}

// DefaultWordsDRMLocked is used when a store does not configure its own locked keywords.
var DefaultWordsDRMLocked = []string{"drm"}

// GenericStore scrapes one book store. All store specific knowledge lives in its Extractor.
type GenericStore struct {
	cfg       Config
	base      *url.URL
	extractor Extractor
	browser   Browser
	launcher  URLLauncher
	dialog    Dialog
}

type Option func(*GenericStore)

func WithBrowser(b Browser) Option {
	return func(s *GenericStore) { s.browser = b }
}

func WithLauncher(l URLLauncher) Option {
	return func(s *GenericStore) { s.launcher = l }
}

func WithDialog(d Dialog) Option {
	return func(s *GenericStore) { s.dialog = d }
}

// New builds a store. Without WithBrowser the store fetches with CreateBrowser.
func New(cfg Config, extractor Extractor, opts ...Option) (*GenericStore, error) {
	if extractor == nil {
		return nil, fmt.Errorf("%w: store %q has no extractor", ErrInvalidConfig, cfg.Name)
	}
	if cfg.URL == "" || cfg.SearchURL == "" {
		return nil, fmt.Errorf("%w: store %q needs url and search_url", ErrInvalidConfig, cfg.Name)
	}
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: store %q: %v", ErrInvalidConfig, cfg.Name, err)
	}

	if cfg.WordsDRMLocked == nil {
		cfg.WordsDRMLocked = DefaultWordsDRMLocked
	}
	cfg.WordsDRMLocked = lowerWords(cfg.WordsDRMLocked)
	cfg.WordsDRMUnlocked = lowerWords(cfg.WordsDRMUnlocked)

	s := &GenericStore{cfg: cfg, base: base, extractor: extractor}
	for _, opt := range opts {
		opt(s)
	}
	if s.browser == nil {
		s.browser = s.CreateBrowser()
	}
	return s, nil
}

func lowerWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, strings.ToLower(strings.TrimSpace(w)))
	}
	return out
}

func (s *GenericStore) Name() string { return s.cfg.Name }

func (s *GenericStore) URL() string { return s.cfg.URL }

func (s *GenericStore) ExternalOnly() bool { return s.cfg.ExternalOnly }

// CreateBrowser returns a new HTTP browser that sends the store URL as Referer.
func (s *GenericStore) CreateBrowser() *HTTPBrowser {
	b := NewHTTPBrowser(s.cfg.UserAgent, s.cfg.RequestsPerSecond)
	b.Header.Set("Referer", s.cfg.URL)
	return b
}

// Quote encodes a query for a URL query string, with spaces as '+'.
func (s *GenericStore) Quote(query string) string {
	return url.QueryEscape(query)
}

// SearchURLFor fills the search template for query and maxResults.
func (s *GenericStore) SearchURLFor(query string, maxResults int) string {
	return strings.NewReplacer(
		"{0}", s.cfg.URL,
		"{1}", s.Quote(query),
		"{2}", fmt.Sprint(maxResults),
	).Replace(s.cfg.SearchURL)
}

// Search runs query against the store and returns the normalised results in page order.
// A store that redirects straight to a book yields a single placeholder result titled
// models.TitlePending, to be completed by GetDetails.
func (s *GenericStore) Search(ctx context.Context, query string, maxResults int, timeout time.Duration) ([]*models.SearchResult, error) {
	ctx = logger.WithStore(ctx, s.cfg.Name)
	defer logger.Track(ctx, "search")()

	searchURL := s.SearchURLFor(query, maxResults)
	finalURL, doc, err := s.fetch(ctx, searchURL, timeout)
	if err != nil {
		return nil, err
	}

	if !sameURL(finalURL, searchURL) {
		logger.For(ctx).WithField("url", finalURL).Debug("search redirected to a single result")
		return []*models.SearchResult{{
			Store:      s.cfg.Name,
			DetailItem: finalURL,
			Title:      models.TitlePending,
		}}, nil
	}

	nodes, err := s.extractor.FindSearchResults(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: finding search results: %w", s.cfg.Name, err)
	}

	results := make([]*models.SearchResult, 0, len(nodes))
	for _, node := range nodes {
		r, err := s.extractor.ParseSearchResult(node)
		if err != nil {
			return nil, fmt.Errorf("%s: parsing search result: %w", s.cfg.Name, err)
		}
		r = s.Normalize(r)
		if r == nil {
			continue
		}
		r.Store = s.cfg.Name
		results = append(results, r)
	}
	logger.For(ctx).Debugf("Found %d results for %q", len(results), query)
	return results, nil
}

// GetDetails fetches the result's detail page and fills in the fields it is missing.
// It reports whether anything was merged. Complete results are left alone without a fetch.
func (s *GenericStore) GetDetails(ctx context.Context, result *models.SearchResult, timeout time.Duration) (bool, error) {
	if result == nil {
		return false, errors.New("get details: nil result")
	}
	if !s.NeedsDetails(result) {
		return false, nil
	}
	ctx = logger.WithStore(ctx, s.cfg.Name)

	detailURL := s.ItemToURL(result.DetailItem)
	if detailURL == "" {
		return false, fmt.Errorf("%s: result %q has no detail item", s.cfg.Name, result.Title)
	}
	_, doc, err := s.fetch(ctx, detailURL, timeout)
	if err != nil {
		return false, err
	}

	node, err := s.extractor.FindBookDetails(doc)
	if err != nil {
		return false, fmt.Errorf("%s: finding book details: %w", s.cfg.Name, err)
	}
	r, err := s.extractor.ParseBookDetails(node)
	if err != nil {
		return false, fmt.Errorf("%s: parsing book details: %w", s.cfg.Name, err)
	}
	r = s.Normalize(r)
	if r == nil {
		logger.For(ctx).WithField("url", detailURL).Debug("no details extracted")
		return false, nil
	}

	result.Title = firstNonEmpty(r.Title, result.Title)
	result.Author = firstNonEmpty(r.Author, result.Author)
	result.Price = firstNonEmpty(r.Price, result.Price)
	result.CoverURL = firstNonEmpty(r.CoverURL, result.CoverURL)
	result.Formats = firstNonEmpty(r.Formats, result.Formats)
	if r.DRM != 0 {
		result.DRM = r.DRM
	}
	return true, nil
}

// sameURL reports whether a and b name the same page once both are in the form
// clients send: lowercase scheme and host, escaped path, a root path for bare hosts.
// Query parameters are compared decoded.
func sameURL(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return canonicalURL(ua) == canonicalURL(ub)
}

func canonicalURL(u *url.URL) string {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	if c.Host != "" && c.Path == "" {
		c.Path = "/"
	}
	c.RawPath = ""
	c.RawQuery = c.Query().Encode()
	c.Fragment, c.RawFragment = "", ""
	return c.String()
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

// Open shows item in the system browser when external is set or the store is external only,
// otherwise in a modal dialog titled name. An empty item opens the store's front page.
func (s *GenericStore) Open(ctx context.Context, name string, gui, parent Handle, item string, external bool) error {
	target := s.ItemToURL(item)
	if target == "" {
		target = s.cfg.URL
	}
	if external || s.cfg.ExternalOnly {
		if s.launcher == nil {
			return fmt.Errorf("%s: no url launcher configured", s.cfg.Name)
		}
		return s.launcher.OpenURL(ctx, target)
	}
	if s.dialog == nil {
		return fmt.Errorf("%s: no store dialog configured", s.cfg.Name)
	}
	return s.dialog.Run(ctx, DialogRequest{
		Title:   name,
		Host:    gui,
		Parent:  parent,
		BaseURL: s.cfg.URL,
		URL:     target,
	})
}

// NeedsDetails reports whether any field of result is still missing.
func (s *GenericStore) NeedsDetails(result *models.SearchResult) bool {
	return result == nil ||
		result.Title == "" || result.Title == models.TitlePending ||
		result.Author == "" ||
		result.Price == "" ||
		result.CoverURL == "" ||
		result.Formats == "" ||
		result.DRM == 0
}

// ItemToURL resolves a possibly relative item against the store URL. Empty items give "".
func (s *GenericStore) ItemToURL(item string) string {
	if item == "" {
		return ""
	}
	ref, err := url.Parse(item)
	if err != nil {
		return item
	}
	return s.base.ResolveReference(ref).String()
}

// Normalize canonicalises a parsed result in place. A nil result stays nil.
func (s *GenericStore) Normalize(result *models.SearchResult) *models.SearchResult {
	if result == nil {
		return nil
	}
	if result.CoverURL != "" {
		result.CoverURL = s.ItemToURL(result.CoverURL)
	}
	if result.Author != "" {
		result.Author = s.NormalizeAuthor(result.Author)
	}
	if result.Formats != "" {
		result.Formats = s.NormalizeFormats(result.Formats)
	}
	if result.DRM == 0 && result.DRMText != "" {
		result.DRM = s.NormalizeDRM(result.DRMText)
	}
	return result
}

// NormalizeAuthor is the identity unless the extractor implements AuthorNormalizer.
func (s *GenericStore) NormalizeAuthor(text string) string {
	if n, ok := s.extractor.(AuthorNormalizer); ok {
		return n.NormalizeAuthor(text)
	}
	return text
}

func (s *GenericStore) NormalizeFormats(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}

// NormalizeDRM maps a DRM description to a DRM code by keyword.
// Locked keywords are checked before unlocked ones.
func (s *GenericStore) NormalizeDRM(text string) models.DRM {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		words[w] = true
	}
	for _, w := range s.cfg.WordsDRMLocked {
		if words[w] {
			return models.DRMLocked
		}
	}
	for _, w := range s.cfg.WordsDRMUnlocked {
		if words[w] {
			return models.DRMUnlocked
		}
	}
	return models.DRMUnknown
}

// fetch opens rawURL, reads it to completion within timeout and parses it.
// It returns the URL the request finally resolved to.
func (s *GenericStore) fetch(ctx context.Context, rawURL string, timeout time.Duration) (string, *html.Node, error) {
	finalURL, body, err := s.read(ctx, rawURL, timeout)
	if err != nil {
		return "", nil, err
	}
	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("%s: parsing %s: %w", s.cfg.Name, rawURL, err)
	}
	return finalURL, doc, nil
}

func (s *GenericStore) read(ctx context.Context, rawURL string, timeout time.Duration) (string, []byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	defer func() {
		metrics.FetchDuration.WithLabelValues(s.cfg.Name).Observe(time.Since(start).Seconds())
	}()

	logger.For(ctx).WithField("url", rawURL).Debug("fetching")
	resp, err := s.browser.Open(ctx, rawURL)
	if err != nil {
		return "", nil, fmt.Errorf("%s: fetching %s: %w", s.cfg.Name, rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("%s: reading %s: %w", s.cfg.Name, rawURL, err)
	}
	return resp.URL, body, nil
}
