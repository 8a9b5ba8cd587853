package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// RodBrowser renders pages in a headless Chrome for stores that build their listings with JavaScript.
type RodBrowser struct {
	Browser *rod.Browser
	// Header holds extra request headers as key/value pairs.
	Header []string
}

// NewRodBrowser launches Chrome and connects to it. The returned func shuts it down.
func NewRodBrowser(headless bool) (*RodBrowser, func(), error) {
	u, err := launcher.New().Headless(headless).Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launching browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return &RodBrowser{Browser: browser}, func() { _ = browser.Close() }, nil
}

// WithReferer returns a copy of b that sends the given Referer.
func (b *RodBrowser) WithReferer(referer string) *RodBrowser {
	header := append([]string{}, b.Header...)
	return &RodBrowser{Browser: b.Browser, Header: append(header, "Referer", referer)}
}

// Open navigates a fresh stealth page to rawURL and waits for it to load.
// The page stays open until the response body is closed.
func (b *RodBrowser) Open(ctx context.Context, rawURL string) (*Response, error) {
	root, err := stealth.Page(b.Browser)
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	// Only the loading steps obey ctx. The tab is closed through root,
	// so it still goes away once ctx has expired.
	page := root.Context(ctx)

	fail := func(step string, err error) (*Response, error) {
		_ = root.Close()
		return nil, fmt.Errorf("%s %s: %w", step, rawURL, err)
	}

	if len(b.Header) > 0 {
		if _, err := page.SetExtraHeaders(b.Header); err != nil {
			return fail("setting headers for", err)
		}
	}
	if err := page.Navigate(rawURL); err != nil {
		return fail("failed to load page", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fail("failed to wait for load of", err)
	}
	info, err := page.Info()
	if err != nil {
		return fail("reading page info of", err)
	}
	content, err := page.HTML()
	if err != nil {
		return fail("reading html of", err)
	}
	return &Response{
		URL:  info.URL,
		Body: &pageBody{Reader: strings.NewReader(content), page: root},
	}, nil
}

type pageBody struct {
	*strings.Reader
	page *rod.Page
}

func (p *pageBody) Close() error {
	return p.page.Close()
}
