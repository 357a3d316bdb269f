package browser

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	colly "github.com/gocolly/colly/v2"
)

// Static fetches pages over plain HTTP. Client-side scripts are not run, so
// only server-rendered markup is visible to queries.
type Static struct {
	collector *colly.Collector

	mu     sync.Mutex
	pages  map[*staticPage]struct{}
	closed bool
}

// NewStatic creates a static browser using opts.
func NewStatic(opts Options) *Static {
	c := colly.NewCollector(colly.AllowURLRevisit())
	if opts.UserAgent != "" {
		c.UserAgent = opts.UserAgent
	}
	c.SetRequestTimeout(opts.timeout())

	return &Static{
		collector: c,
		pages:     make(map[*staticPage]struct{}),
	}
}

// NewPage opens a new page.
func (s *Static) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("browser is closed")
	}

	p := &staticPage{owner: s}
	s.pages[p] = struct{}{}
	return p, nil
}

// Close releases every open page.
func (s *Static) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	clear(s.pages)
	return nil
}

// OpenPages reports how many pages have not been closed.
func (s *Static) OpenPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

func (s *Static) release(p *staticPage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pages, p)
}

type staticPage struct {
	owner *Static
	doc   *Document
}

func (p *staticPage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body []byte
	c := p.owner.collector.Clone()
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := c.Visit(url); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	doc, err := NewDocument(bytes.NewReader(body))
	if err != nil {
		return err
	}
	p.doc = doc

	return nil
}

// WaitForNetworkIdle returns immediately: the response has been read in
// full by the time Goto returns.
func (p *staticPage) WaitForNetworkIdle(ctx context.Context) error {
	if p.doc == nil {
		return ErrNoDocument
	}
	return ctx.Err()
}

func (p *staticPage) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func (p *staticPage) Screenshot(context.Context, string) error {
	return ErrScreenshotUnsupported
}

func (p *staticPage) QueryAll(_ context.Context, selector string) ([]Element, error) {
	if p.doc == nil {
		return nil, ErrNoDocument
	}
	return p.doc.QueryAll(selector), nil
}

func (p *staticPage) Query(_ context.Context, selector string) (Element, error) {
	if p.doc == nil {
		return nil, ErrNoDocument
	}
	return p.doc.Query(selector)
}

func (p *staticPage) Close() error {
	p.owner.release(p)
	p.doc = nil
	return nil
}
