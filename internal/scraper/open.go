package scraper

import "context"

// Handle is an opaque reference to a host window, passed through to the Dialog untouched.
type Handle any

// URLLauncher opens a URL outside the application, usually in the system browser.
type URLLauncher interface {
	OpenURL(ctx context.Context, rawURL string) error
}

// DialogRequest describes the store page an embedded dialog should show.
type DialogRequest struct {
	Title   string
	Host    Handle
	Parent  Handle
	BaseURL string
	URL     string
}

// Dialog shows a store page in a modal window. Run returns when the window is closed.
type Dialog interface {
	Run(ctx context.Context, req DialogRequest) error
}
