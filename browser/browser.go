// Package browser drives the pages the harvester reads. Two backends exist:
// Chrome renders pages in a headless Chrome instance, Static fetches the raw
// HTML without running scripts.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoElement is returned by Page.Query when nothing matches.
	ErrNoElement = errors.New("no element matches selector")
	// ErrScreenshotUnsupported is returned by backends that cannot render.
	ErrScreenshotUnsupported = errors.New("screenshots are not supported by this backend")
	// ErrNoDocument is returned when a page is queried before navigation.
	ErrNoDocument = errors.New("page has not been loaded")
)

// Backend names accepted by NewLauncher.
const (
	BackendChrome = "chrome"
	BackendStatic = "static"
)

// Browser owns a browsing session. Close releases every page it opened.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single tab.
type Page interface {
	Goto(ctx context.Context, url string) error
	WaitForNetworkIdle(ctx context.Context) error
	Wait(ctx context.Context, d time.Duration) error
	Screenshot(ctx context.Context, path string) error
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	Query(ctx context.Context, selector string) (Element, error)
	Close() error
}

// Element is a matched DOM node.
type Element interface {
	Text() string
	Attr(name string) (string, bool)
}

// Options configures a browser session.
type Options struct {
	UserAgent string
	// Timeout bounds navigation and network-idle waits.
	Timeout time.Duration
	// Headless is honored by the Chrome backend only.
	Headless bool
}

// DefaultTimeout is used when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// Launcher starts a browser session.
type Launcher func(ctx context.Context) (Browser, error)

// NewLauncher returns a Launcher for the named backend.
func NewLauncher(backend string, opts Options) (Launcher, error) {
	switch backend {
	case BackendChrome, "":
		return func(ctx context.Context) (Browser, error) {
			return NewChrome(ctx, opts)
		}, nil
	case BackendStatic:
		return func(context.Context) (Browser, error) {
			return NewStatic(opts), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown browser backend: %s", backend)
	}
}

// sleep blocks for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
