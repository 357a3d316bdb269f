package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pevans/noticeharvest/browser"
)

// fakeLink is an anchor on a fake listing page.
type fakeLink struct {
	text   string
	href   string
	noHref bool
}

// fakeDocument is what a fake page shows after navigation. A nil content
// means the content block is missing.
type fakeDocument struct {
	links   []fakeLink
	content *string
}

// fakeSite serves fake documents by URL and records browser activity.
type fakeSite struct {
	docs          map[string]fakeDocument
	gotoErrs      map[string]error
	screenshotErr error
	newPageErr    error
	closeErr      error

	visits      []string
	screenshots []string
	opened      int
	closedPages int
	closed      bool
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		docs:     make(map[string]fakeDocument),
		gotoErrs: make(map[string]error),
	}
}

func (s *fakeSite) launcher() browser.Launcher {
	return func(context.Context) (browser.Browser, error) {
		return &fakeBrowser{site: s}, nil
	}
}

func content(s string) *string {
	return &s
}

type fakeBrowser struct {
	site *fakeSite
}

func (b *fakeBrowser) NewPage(context.Context) (browser.Page, error) {
	if b.site.newPageErr != nil && b.site.opened > 0 {
		return nil, b.site.newPageErr
	}
	b.site.opened++
	return &fakePage{site: b.site}, nil
}

func (b *fakeBrowser) Close() error {
	b.site.closed = true
	return b.site.closeErr
}

type fakePage struct {
	site *fakeSite
	doc  *fakeDocument
}

func (p *fakePage) Goto(_ context.Context, url string) error {
	p.site.visits = append(p.site.visits, url)
	if err := p.site.gotoErrs[url]; err != nil {
		return err
	}
	doc, ok := p.site.docs[url]
	if !ok {
		return fmt.Errorf("404: %s", url)
	}
	p.doc = &doc
	return nil
}

func (p *fakePage) WaitForNetworkIdle(ctx context.Context) error {
	if p.doc == nil {
		return browser.ErrNoDocument
	}
	return ctx.Err()
}

func (p *fakePage) Wait(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func (p *fakePage) Screenshot(_ context.Context, path string) error {
	if p.site.screenshotErr != nil {
		return p.site.screenshotErr
	}
	p.site.screenshots = append(p.site.screenshots, path)
	return nil
}

func (p *fakePage) QueryAll(context.Context, string) ([]browser.Element, error) {
	if p.doc == nil {
		return nil, browser.ErrNoDocument
	}
	elements := make([]browser.Element, 0, len(p.doc.links))
	for _, l := range p.doc.links {
		elements = append(elements, l)
	}
	return elements, nil
}

func (p *fakePage) Query(_ context.Context, selector string) (browser.Element, error) {
	if p.doc == nil {
		return nil, browser.ErrNoDocument
	}
	if p.doc.content == nil {
		return nil, fmt.Errorf("%w: %s", browser.ErrNoElement, selector)
	}
	return fakeLink{text: *p.doc.content}, nil
}

func (p *fakePage) Close() error {
	p.site.closedPages++
	return nil
}

func (l fakeLink) Text() string {
	return l.text
}

func (l fakeLink) Attr(name string) (string, bool) {
	if name != "href" || l.noHref {
		return "", false
	}
	return l.href, true
}

var errFakeNetwork = errors.New("net::ERR_CONNECTION_RESET")
