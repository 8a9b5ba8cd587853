package app

import (
	"context"
	"sync"

	"BookStoreScraper/internal/scraper"

	"github.com/sirupsen/logrus"
)

// lazyRodBrowser starts Chrome on the first request of a rendering store, and only once.
type lazyRodBrowser struct {
	headless bool

	once    sync.Once
	browser *scraper.RodBrowser
	stop    func()
	err     error
}

func (l *lazyRodBrowser) get() (*scraper.RodBrowser, error) {
	l.once.Do(func() {
		logrus.Info("Launching headless browser for rendering stores")
		l.browser, l.stop, l.err = scraper.NewRodBrowser(l.headless)
	})
	return l.browser, l.err
}

func (l *lazyRodBrowser) close() {
	if l.stop != nil {
		l.stop()
	}
}

// forStore returns a Browser that sends referer with every page.
func (l *lazyRodBrowser) forStore(referer string) scraper.Browser {
	return storeBrowser{lazy: l, referer: referer}
}

type storeBrowser struct {
	lazy    *lazyRodBrowser
	referer string
}

func (b storeBrowser) Open(ctx context.Context, rawURL string) (*scraper.Response, error) {
	rb, err := b.lazy.get()
	if err != nil {
		return nil, err
	}
	return rb.WithReferer(b.referer).Open(ctx, rawURL)
}
