package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/pevans/noticeharvest/browser"
	"github.com/pevans/noticeharvest/logger"
	"github.com/pevans/noticeharvest/notice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forumBase = "https://forum.nexon.com/fcmobile"

// Test helper: harvester config with no settle delays
func createTestConfig(t *testing.T) HarvesterConfig {
	t.Helper()
	config := DefaultHarvesterConfig()
	config.ScraperConfig.ListConfig.Settle = 0
	config.ScraperConfig.ArticleConfig.Settle = 0
	config.ScreenshotDir = t.TempDir()
	return config
}

// Test helper: a site where every board lists nothing
func createEmptySite() *fakeSite {
	site := newFakeSite()
	for _, id := range []string{"441", "442", "445"} {
		site.docs[listURL(id)] = fakeDocument{}
	}
	return site
}

func listURL(boardID string) string {
	return forumBase + "/board_list?board=" + boardID
}

func threadHref(boardID string, thread int) string {
	return fmt.Sprintf("board_view?board=%s&thread=%d", boardID, thread)
}

func threadURL(boardID string, thread int) string {
	return forumBase + "/" + threadHref(boardID, thread)
}

// Test helper: add n linked threads with content to a board
func addThreads(site *fakeSite, boardID string, n int) {
	doc := site.docs[listURL(boardID)]
	for i := 1; i <= n; i++ {
		doc.links = append(doc.links, fakeLink{
			text: fmt.Sprintf("  Board %s notice %d \n", boardID, i),
			href: threadHref(boardID, i),
		})
		site.docs[threadURL(boardID, i)] = fakeDocument{
			content: content(fmt.Sprintf("Board %s notice %d is published today. Details follow.", boardID, i)),
		}
	}
	site.docs[listURL(boardID)] = doc
}

func runHarvest(t *testing.T, config HarvesterConfig, site *fakeSite) (*notice.HarvestResult, *Report) {
	t.Helper()
	h := NewHarvester(config, site.launcher(), logger.NewNop())
	result, report, err := h.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	return result, report
}

// TestHarvest_MissingContentUsesPlaceholder verifies three anchors on board
// 441 with one detail page lacking the content block
func TestHarvest_MissingContentUsesPlaceholder(t *testing.T) {
	site := createEmptySite()
	addThreads(site, "441", 3)
	site.docs[threadURL("441", 2)] = fakeDocument{}

	result, report := runHarvest(t, createTestConfig(t), site)

	require.Len(t, result.Notices, 3)
	assert.Empty(t, report.Failures)
	assert.False(t, report.UsedFallback)

	first := result.Notices[0]
	assert.Equal(t, "Board 441 notice 1", first.Title)
	assert.Equal(t, threadURL("441", 1), first.Href)
	assert.Equal(t, "Board 441 notice 1 is published today.", first.Summary)
	assert.Equal(t, "공지사항", first.Board)
	assert.Equal(t, "441", first.BoardID)

	assert.Equal(t, "내용을 불러올 수 없습니다.", result.Notices[1].Summary)
	assert.True(t, first.HasContent())
	assert.False(t, result.Notices[1].HasContent(), "placeholder summaries should be recognized")
}

// TestHarvest_DeduplicatesByHref verifies the first occurrence wins
func TestHarvest_DeduplicatesByHref(t *testing.T) {
	site := createEmptySite()
	addThreads(site, "441", 2)
	doc := site.docs[listURL("441")]
	doc.links = []fakeLink{
		{text: "Original", href: threadHref("441", 1)},
		{text: "Copy", href: threadURL("441", 1)},
		{text: "Other", href: threadHref("441", 2)},
	}
	site.docs[listURL("441")] = doc

	// Board 442 links back to the same thread.
	site.docs[listURL("442")] = fakeDocument{links: []fakeLink{{text: "Cross-post", href: threadHref("441", 1)}}}

	result, _ := runHarvest(t, createTestConfig(t), site)

	require.Len(t, result.Notices, 2)
	assert.Equal(t, "Original", result.Notices[0].Title)
	assert.Equal(t, "441", result.Notices[0].BoardID)
	assert.Equal(t, "Other", result.Notices[1].Title)

	detailVisits := 0
	for _, v := range site.visits {
		if v == threadURL("441", 1) {
			detailVisits++
		}
	}
	assert.Equal(t, 1, detailVisits, "duplicate href should not be fetched again")
}

// TestHarvest_FirstThreeLinksPerBoard verifies the per-board link cap
func TestHarvest_FirstThreeLinksPerBoard(t *testing.T) {
	site := createEmptySite()
	addThreads(site, "441", 5)

	result, _ := runHarvest(t, createTestConfig(t), site)

	require.Len(t, result.Notices, 3)
	for i, n := range result.Notices {
		assert.Equal(t, threadURL("441", i+1), n.Href)
	}
	assert.NotContains(t, site.visits, threadURL("441", 4))
}

// TestHarvest_CapsAtSixInBoardOrder verifies truncation across boards
func TestHarvest_CapsAtSixInBoardOrder(t *testing.T) {
	site := createEmptySite()
	addThreads(site, "441", 3)
	addThreads(site, "442", 3)
	addThreads(site, "445", 3)

	result, report := runHarvest(t, createTestConfig(t), site)

	require.Len(t, result.Notices, 6)
	assert.Equal(t, 9, report.Collected)
	for i, n := range result.Notices[:3] {
		assert.Equal(t, "441", n.BoardID)
		assert.Equal(t, threadURL("441", i+1), n.Href)
	}
	for _, n := range result.Notices[3:] {
		assert.Equal(t, "442", n.BoardID)
		assert.Equal(t, "업데이트", n.Board)
	}
}

// TestHarvest_FallbackWhenNothingCollected verifies the sample substitution
// when every board fails
func TestHarvest_FallbackWhenNothingCollected(t *testing.T) {
	site := newFakeSite()
	for _, id := range []string{"441", "442", "445"} {
		site.gotoErrs[listURL(id)] = errFakeNetwork
	}

	result, report := runHarvest(t, createTestConfig(t), site)

	assert.Equal(t, notice.FallbackNotices(), result.Notices)
	assert.True(t, report.UsedFallback)
	assert.Equal(t, 3, report.Count(FailureBoard))
	assert.True(t, site.closed, "browser should be closed")
	assert.ErrorIs(t, report.Err(), errFakeNetwork)
}

// TestHarvest_FallbackWhenBoardsEmpty verifies the sample substitution when
// boards simply list nothing
func TestHarvest_FallbackWhenBoardsEmpty(t *testing.T) {
	result, report := runHarvest(t, createTestConfig(t), createEmptySite())

	assert.Equal(t, notice.FallbackNotices(), result.Notices)
	assert.Empty(t, report.Failures)
	assert.NoError(t, report.Err())
}

// TestHarvest_LinkFailureSkipsOnlyThatLink verifies per-link containment
func TestHarvest_LinkFailureSkipsOnlyThatLink(t *testing.T) {
	site := createEmptySite()
	addThreads(site, "441", 3)
	site.gotoErrs[threadURL("441", 2)] = errFakeNetwork

	result, report := runHarvest(t, createTestConfig(t), site)

	require.Len(t, result.Notices, 2)
	assert.Equal(t, threadURL("441", 1), result.Notices[0].Href)
	assert.Equal(t, threadURL("441", 3), result.Notices[1].Href)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, FailureLink, report.Failures[0].Kind)
	assert.Equal(t, "441", report.Failures[0].BoardID)
	assert.ErrorIs(t, report.Failures[0], errFakeNetwork)

	// listing page plus three detail pages, all closed
	assert.Equal(t, 4, site.opened)
	assert.Equal(t, 4, site.closedPages)
}

// TestHarvest_MissingHref verifies anchors without href are skipped
func TestHarvest_MissingHref(t *testing.T) {
	site := createEmptySite()
	addThreads(site, "441", 1)
	doc := site.docs[listURL("441")]
	doc.links = append([]fakeLink{{text: "Broken", noHref: true}}, doc.links...)
	site.docs[listURL("441")] = doc

	result, report := runHarvest(t, createTestConfig(t), site)

	require.Len(t, result.Notices, 1)
	assert.Equal(t, 1, report.Count(FailureLink))
	assert.ErrorIs(t, report.Err(), ErrMissingHref)
}

// TestHarvest_ScreenshotFailureAbortsBoard verifies the board-level
// containment for screenshot errors
func TestHarvest_ScreenshotFailureAbortsBoard(t *testing.T) {
	site := createEmptySite()
	addThreads(site, "441", 3)
	site.screenshotErr = errors.New("disk full")

	result, report := runHarvest(t, createTestConfig(t), site)

	assert.True(t, report.UsedFallback)
	assert.Equal(t, notice.FallbackNotices(), result.Notices)
	assert.Equal(t, 3, report.Count(FailureBoard))
}

// TestHarvest_ScreenshotUnsupportedContinues verifies backends without
// rendering still harvest
func TestHarvest_ScreenshotUnsupportedContinues(t *testing.T) {
	site := createEmptySite()
	addThreads(site, "441", 1)
	site.screenshotErr = browser.ErrScreenshotUnsupported

	result, report := runHarvest(t, createTestConfig(t), site)

	require.Len(t, result.Notices, 1)
	assert.Empty(t, report.Failures)
}

// TestHarvest_ScreenshotPaths verifies one screenshot per board
func TestHarvest_ScreenshotPaths(t *testing.T) {
	config := createTestConfig(t)
	site := createEmptySite()

	runHarvest(t, config, site)

	assert.Equal(t, []string{
		filepath.Join(config.ScreenshotDir, "board_441_screenshot.png"),
		filepath.Join(config.ScreenshotDir, "board_442_screenshot.png"),
		filepath.Join(config.ScreenshotDir, "board_445_screenshot.png"),
	}, site.screenshots)
}

// TestHarvest_DetailPageOpenFailure verifies link containment when a new
// page cannot be opened
func TestHarvest_DetailPageOpenFailure(t *testing.T) {
	site := createEmptySite()
	addThreads(site, "441", 2)
	site.newPageErr = errors.New("target closed")

	result, report := runHarvest(t, createTestConfig(t), site)

	assert.True(t, report.UsedFallback)
	assert.Len(t, result.Notices, 2)
	assert.Equal(t, 2, report.Count(FailureLink))
}

// TestHarvest_LaunchFailure verifies the only error surfaced to callers
func TestHarvest_LaunchFailure(t *testing.T) {
	launchErr := errors.New("chrome not found")
	h := NewHarvester(createTestConfig(t), func(context.Context) (browser.Browser, error) {
		return nil, launchErr
	}, nil)

	result, err := h.Harvest(context.Background())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, launchErr)
}

// TestHarvest_CancelledContext verifies a session-level failure still
// closes the browser and falls back
func TestHarvest_CancelledContext(t *testing.T) {
	site := createEmptySite()
	addThreads(site, "441", 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := NewHarvester(createTestConfig(t), site.launcher(), logger.NewNop())
	result, report, err := h.Run(ctx)

	require.NoError(t, err)
	assert.True(t, site.closed)
	assert.Equal(t, notice.FallbackNotices(), result.Notices)
	assert.Equal(t, 1, report.Count(FailureSession))
}

// TestHarvest_CloseFailureReported verifies browser shutdown errors are
// recorded but do not affect the result
func TestHarvest_CloseFailureReported(t *testing.T) {
	site := createEmptySite()
	addThreads(site, "441", 1)
	site.closeErr = errors.New("process already exited")

	result, report := runHarvest(t, createTestConfig(t), site)

	assert.Len(t, result.Notices, 1)
	assert.Equal(t, 1, report.Count(FailureCleanup))
}

// TestHarvest_LastUpdatedFormat verifies the timestamp layout
func TestHarvest_LastUpdatedFormat(t *testing.T) {
	h := NewHarvester(createTestConfig(t), createEmptySite().launcher(), nil)
	h.now = func() time.Time { return time.Date(2025, 5, 31, 14, 3, 9, 0, time.Local) }

	result, err := h.Harvest(context.Background())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`), result.LastUpdated)
	assert.Equal(t, "2025-05-31 14:03:09", result.LastUpdated)
}

// TestHarvest_WritesLogFile verifies the side-channel log records the run
func TestHarvest_WritesLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "harvest.log")
	log, err := logger.New(logger.Config{Format: logger.ConsoleFormat, OutputPaths: []string{logPath}})
	require.NoError(t, err)

	site := createEmptySite()
	addThreads(site, "441", 1)
	site.gotoErrs[listURL("442")] = errFakeNetwork

	h := NewHarvester(createTestConfig(t), site.launcher(), log)
	_, err = h.Harvest(context.Background())
	require.NoError(t, err)
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "Harvest started")
	assert.Contains(t, out, "Notice added")
	assert.Contains(t, out, "Board harvest failed")
	assert.Contains(t, out, errFakeNetwork.Error())
	assert.Contains(t, out, "Harvest finished")
}
