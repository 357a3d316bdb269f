package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// lifecycleNetworkIdle is the Page.lifecycleEvent name Chrome emits once a
// document has had no network activity for 500ms.
const lifecycleNetworkIdle = "networkIdle"

// Chrome drives a headless Chrome instance through the DevTools protocol.
type Chrome struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	timeout       time.Duration
}

// NewChrome launches Chrome. The returned browser must be closed.
func NewChrome(ctx context.Context, opts Options) (*Chrome, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(1280, 720),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Running with no actions starts the browser process and its first tab.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch chrome: %w", err)
	}

	return &Chrome{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		timeout:       opts.timeout(),
	}, nil
}

// NewPage opens a new tab in the running browser.
func (c *Chrome) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	p := &chromePage{
		ctx:     tabCtx,
		cancel:  cancel,
		timeout: c.timeout,
		idle:    make(map[cdp.LoaderID]bool),
		signal:  make(chan struct{}, 1),
	}
	chromedp.ListenTarget(tabCtx, p.onEvent)

	if err := chromedp.Run(tabCtx, page.SetLifecycleEventsEnabled(true)); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	return p, nil
}

// Close shuts the browser down, closing all tabs.
func (c *Chrome) Close() error {
	defer c.allocCancel()
	defer c.browserCancel()
	if err := chromedp.Cancel(c.browserCtx); err != nil {
		return fmt.Errorf("failed to close chrome: %w", err)
	}
	return nil
}

type chromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration

	mu     sync.Mutex
	loader cdp.LoaderID
	idle   map[cdp.LoaderID]bool
	signal chan struct{}
}

func (p *chromePage) onEvent(ev any) {
	e, ok := ev.(*page.EventLifecycleEvent)
	if !ok || e.Name != lifecycleNetworkIdle {
		return
	}

	p.mu.Lock()
	p.idle[e.LoaderID] = true
	p.mu.Unlock()

	select {
	case p.signal <- struct{}{}:
	default:
	}
}

// run executes actions on the tab, bounded by the page timeout and by the
// caller's context.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) Goto(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, loader, errorText, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to navigate to %s: %w", url, err)
		}
		if errorText != "" {
			return fmt.Errorf("failed to navigate to %s: %s", url, errorText)
		}

		p.mu.Lock()
		p.loader = loader
		p.mu.Unlock()
		return nil
	}))
}

func (p *chromePage) WaitForNetworkIdle(ctx context.Context) error {
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	for {
		p.mu.Lock()
		loader, done := p.loader, p.idle[p.loader]
		p.mu.Unlock()

		if loader == "" {
			return ErrNoDocument
		}
		if done {
			return nil
		}

		select {
		case <-p.signal:
		case <-timer.C:
			return fmt.Errorf("timed out after %s waiting for network idle", p.timeout)
		case <-ctx.Done():
			return ctx.Err()
		case <-p.ctx.Done():
			return p.ctx.Err()
		}
	}
}

func (p *chromePage) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func (p *chromePage) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := p.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	return nil
}

// queryScript returns a JavaScript expression listing every match of selector
// with its rendered text and attributes.
func queryScript(selector string) (string, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return "", fmt.Errorf("failed to quote selector: %w", err)
	}
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s), el => ({
	text: el.innerText,
	attrs: Object.fromEntries(Array.from(el.attributes, a => [a.name, a.value]))
}))`, quoted), nil
}

// liveElement is an element read from the live DOM. Its text is the
// browser's innerText, so layout decides line breaks and hidden content.
type liveElement struct {
	Content    string            `json:"text"`
	Attributes map[string]string `json:"attrs"`
}

func (e *liveElement) Text() string {
	return e.Content
}

func (e *liveElement) Attr(name string) (string, bool) {
	v, ok := e.Attributes[name]
	return v, ok
}

func (p *chromePage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	script, err := queryScript(selector)
	if err != nil {
		return nil, err
	}

	var found []*liveElement
	if err := p.run(ctx, chromedp.Evaluate(script, &found)); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", selector, err)
	}

	elements := make([]Element, len(found))
	for i, el := range found {
		elements[i] = el
	}
	return elements, nil
}

func (p *chromePage) Query(ctx context.Context, selector string) (Element, error) {
	elements, err := p.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	return elements[0], nil
}

// Close closes the tab.
func (p *chromePage) Close() error {
	p.cancel()
	return nil
}
