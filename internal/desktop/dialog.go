package desktop

import (
	"context"
	"fmt"

	"BookStoreScraper/internal/scraper"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// RodDialog shows a store page in a visible Chrome window and blocks until the user closes it.
type RodDialog struct{}

func (RodDialog) Run(ctx context.Context, req scraper.DialogRequest) error {
	l := launcher.New().Context(ctx).Headless(false)
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launching store window: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().Context(ctx).ControlURL(u)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connecting to store window: %w", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("opening store window: %w", err)
	}
	if req.BaseURL != "" {
		if _, err := page.SetExtraHeaders([]string{"Referer", req.BaseURL}); err != nil {
			return fmt.Errorf("setting referer: %w", err)
		}
	}

	if err := (proto.TargetSetDiscoverTargets{Discover: true}).Call(browser); err != nil {
		return fmt.Errorf("watching store window: %w", err)
	}
	closed := browser.EachEvent(func(e *proto.TargetTargetDestroyed) bool {
		return e.TargetID == page.TargetID
	})

	if err := page.Navigate(req.URL); err != nil {
		return fmt.Errorf("failed to load page %s: %w", req.URL, err)
	}
	if err := page.WaitLoad(); err != nil {
		logrus.WithError(err).Warn("Store page did not finish loading")
	}
	if req.Title != "" {
		if _, err := page.Eval(`(t) => { document.title = t }`, req.Title); err != nil {
			logrus.WithError(err).Debug("Could not set store window title")
		}
	}

	logrus.WithFields(logrus.Fields{"title": req.Title, "url": req.URL}).Info("Store window opened")
	closed()
	return ctx.Err()
}
