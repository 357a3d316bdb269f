package discovery

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pevans/noticeharvest/browser"
	"github.com/pevans/noticeharvest/logger"
	"github.com/pevans/noticeharvest/notice"
	"github.com/pevans/noticeharvest/scraper"
)

// ErrMissingHref is returned for a matched anchor without an href attribute.
var ErrMissingHref = errors.New("link has no href")

// HarvesterConfig holds what a harvest visits and where it writes
// screenshots.
type HarvesterConfig struct {
	ScraperConfig scraper.ScraperConfig
	Boards        []notice.BoardSpec
	// ScreenshotDir receives board_<id>_screenshot.png files.
	ScreenshotDir string
}

// DefaultHarvesterConfig returns the configuration for the three FC Mobile
// boards.
func DefaultHarvesterConfig() HarvesterConfig {
	return HarvesterConfig{
		ScraperConfig: scraper.NewScraperConfig(),
		Boards:        append([]notice.BoardSpec(nil), scraper.DefaultBoards...),
		ScreenshotDir: ".",
	}
}

// Harvester collects notices from forum boards in a single sequential pass.
type Harvester struct {
	config HarvesterConfig
	launch browser.Launcher
	log    logger.Logger
	now    func() time.Time
}

// NewHarvester creates a harvester that opens browsers with launch.
func NewHarvester(config HarvesterConfig, launch browser.Launcher, log logger.Logger) *Harvester {
	if log == nil {
		log = logger.NewNop()
	}

	return &Harvester{
		config: config,
		launch: launch,
		log:    log,
		now:    time.Now,
	}
}

// Harvest runs one harvest and returns its result. The only error returned is
// a failure to start the browser; everything after that is logged and
// skipped.
func (h *Harvester) Harvest(ctx context.Context) (*notice.HarvestResult, error) {
	result, _, err := h.Run(ctx)
	return result, err
}

// Run is Harvest with a report of the failures that were absorbed.
func (h *Harvester) Run(ctx context.Context) (*notice.HarvestResult, *Report, error) {
	report := &Report{StartedAt: h.now()}
	h.log.Info("Harvest started", logger.String("started_at", notice.FormatTimestamp(report.StartedAt)))

	b, err := h.launch(ctx)
	if err != nil {
		h.log.Error("Failed to launch browser", logger.Error(err))
		return nil, report, fmt.Errorf("failed to launch browser: %w", err)
	}

	notices := h.collect(ctx, b, report)

	report.Collected = len(notices)
	if len(notices) == 0 {
		h.log.Warn("No notices collected, using sample data")
		report.UsedFallback = true
	}

	report.FinishedAt = h.now()
	result := notice.NewHarvestResult(notices, report.FinishedAt)

	h.log.Info("Harvest finished",
		logger.String("finished_at", result.LastUpdated),
		logger.Int("notices", len(result.Notices)),
		logger.Int("failures", len(report.Failures)),
	)

	return result, report, nil
}

// collect visits every board and always closes the browser before returning.
func (h *Harvester) collect(ctx context.Context, b browser.Browser, report *Report) []notice.Notice {
	var notices []notice.Notice

	defer func() {
		if err := b.Close(); err != nil {
			h.log.Warn("Failed to close browser", logger.Error(err))
			report.add(Failure{Kind: FailureCleanup, Err: err})
		}
	}()

	listing, err := b.NewPage(ctx)
	if err != nil {
		h.sessionFailed(report, fmt.Errorf("failed to open listing page: %w", err))
		return notices
	}
	defer listing.Close()

	for _, board := range h.config.Boards {
		if err := ctx.Err(); err != nil {
			h.sessionFailed(report, err)
			break
		}

		notices, err = h.harvestBoard(ctx, b, listing, board, notices, report)
		if err != nil {
			h.log.Error("Board harvest failed",
				logger.String("board_id", board.ID),
				logger.Error(err),
			)
			report.add(Failure{Kind: FailureBoard, BoardID: board.ID, Err: err})
		}
	}

	return notices
}

func (h *Harvester) sessionFailed(report *Report, err error) {
	h.log.Error("Harvest aborted", logger.Error(err))
	report.add(Failure{Kind: FailureSession, Err: err})
}

// harvestBoard loads one board listing and reads up to MaxLinks of its
// detail links. Notices added before a failure are kept.
func (h *Harvester) harvestBoard(
	ctx context.Context,
	b browser.Browser,
	listing browser.Page,
	board notice.BoardSpec,
	notices []notice.Notice,
	report *Report,
) ([]notice.Notice, error) {
	listConfig := h.config.ScraperConfig.ListConfig
	url := h.config.ScraperConfig.ListURL(board.ID)
	log := h.log.With(logger.String("board_id", board.ID), logger.String("board", board.Name))
	log.Info("Board harvest started")

	if err := listing.Goto(ctx, url); err != nil {
		return notices, err
	}
	if err := listing.WaitForNetworkIdle(ctx); err != nil {
		return notices, err
	}
	if err := listing.Wait(ctx, listConfig.Settle); err != nil {
		return notices, err
	}
	log.Info("Board page loaded", logger.String("url", url))

	shot := filepath.Join(h.config.ScreenshotDir, fmt.Sprintf("board_%s_screenshot.png", board.ID))
	switch err := listing.Screenshot(ctx, shot); {
	case errors.Is(err, browser.ErrScreenshotUnsupported):
		log.Debug("Screenshot skipped", logger.Error(err))
	case err != nil:
		return notices, err
	default:
		log.Info("Screenshot saved", logger.String("path", shot))
	}

	links, err := listing.QueryAll(ctx, listConfig.LinkSelector)
	if err != nil {
		return notices, err
	}
	log.Info("Links found", logger.Int("count", len(links)))

	if listConfig.MaxLinks > 0 && len(links) > listConfig.MaxLinks {
		links = links[:listConfig.MaxLinks]
	}

	for i, link := range links {
		n, err := h.harvestLink(ctx, b, board, link, notices, log.With(logger.Int("index", i+1)))
		if err != nil {
			log.Error("Notice processing failed", logger.Int("index", i+1), logger.Error(err))
			report.add(Failure{Kind: FailureLink, BoardID: board.ID, Href: hrefOf(link), Err: err})
			continue
		}
		if n != nil {
			notices = append(notices, *n)
		}
	}

	return notices, nil
}

// harvestLink returns the notice for one detail link, or nil if the link was
// already collected in this run.
func (h *Harvester) harvestLink(
	ctx context.Context,
	b browser.Browser,
	board notice.BoardSpec,
	link browser.Element,
	notices []notice.Notice,
	log logger.Logger,
) (*notice.Notice, error) {
	title := strings.TrimSpace(link.Text())
	href, ok := link.Attr("href")
	if !ok {
		return nil, ErrMissingHref
	}
	href = h.config.ScraperConfig.NormalizeHref(href)
	log.Info("Link found", logger.String("title", title), logger.String("href", href))

	if notice.ContainsHref(notices, href) {
		log.Debug("Duplicate link skipped", logger.String("href", href))
		return nil, nil
	}

	detail, err := b.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open detail page: %w", err)
	}
	defer detail.Close()

	content, err := h.readContent(ctx, detail, href)
	if err != nil {
		return nil, err
	}

	n := &notice.Notice{
		Title:   title,
		Href:    href,
		Summary: Summarize(content),
		Board:   board.Name,
		BoardID: board.ID,
	}
	log.Info("Notice added", logger.String("title", title), logger.String("summary", clip(n.Summary, 100)))

	return n, nil
}

// readContent loads a detail page and returns its trimmed content, or the
// placeholder when the content block is missing.
func (h *Harvester) readContent(ctx context.Context, detail browser.Page, href string) (string, error) {
	articleConfig := h.config.ScraperConfig.ArticleConfig

	if err := detail.Goto(ctx, href); err != nil {
		return "", err
	}
	if err := detail.WaitForNetworkIdle(ctx); err != nil {
		return "", err
	}
	if err := detail.Wait(ctx, articleConfig.Settle); err != nil {
		return "", err
	}

	el, err := detail.Query(ctx, articleConfig.ContentSelector)
	if errors.Is(err, browser.ErrNoElement) {
		return notice.Placeholder, nil
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(el.Text()), nil
}

func hrefOf(link browser.Element) string {
	href, _ := link.Attr("href")
	return href
}

// clip shortens s to at most n characters for log output.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
