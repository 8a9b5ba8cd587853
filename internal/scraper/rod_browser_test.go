package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRodBrowser(t *testing.T) *RodBrowser {
	t.Helper()
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no Chrome or Chromium installed")
	}
	rb, stop, err := NewRodBrowser(true)
	require.NoError(t, err)
	t.Cleanup(stop)
	return rb
}

func openTabs(rb *RodBrowser) (int, error) {
	pages, err := rb.Browser.Pages()
	return len(pages), err
}

func tabsBackTo(rb *RodBrowser, want int) func() bool {
	return func() bool {
		n, err := openTabs(rb)
		return err == nil && n == want
	}
}

func TestRodBrowserClosesTabAfterTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	rb := newTestRodBrowser(t)

	before, err := openTabs(rb)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err = rb.Open(ctx, srv.URL)
	require.Error(t, err)

	assert.Eventually(t, tabsBackTo(rb, before), 5*time.Second, 50*time.Millisecond)
}

func TestRodBrowserBodyCloseClosesTab(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>Solaris</h1></body></html>`)
	}))
	t.Cleanup(srv.Close)
	rb := newTestRodBrowser(t)

	before, err := openTabs(rb)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	resp, err := rb.Open(ctx, srv.URL)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Solaris")

	// The fetch context is gone by the time the caller closes the body.
	cancel()
	require.NoError(t, resp.Body.Close())
	assert.Eventually(t, tabsBackTo(rb, before), 5*time.Second, 50*time.Millisecond)
}
