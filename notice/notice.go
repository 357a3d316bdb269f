package notice

import (
	"time"
)

// MaxNotices caps the number of notices kept in a harvest result.
const MaxNotices = 6

// Placeholder is used as the content of a detail page whose content block
// could not be found.
const Placeholder = "내용을 불러올 수 없습니다."

// TimestampLayout is the layout of HarvestResult.LastUpdated.
const TimestampLayout = "2006-01-02 15:04:05"

// BoardSpec identifies one forum board.
type BoardSpec struct {
	ID   string `json:"board_id" yaml:"id"`
	Name string `json:"board_name" yaml:"name"`
}

// Notice is a single forum post extracted during a harvest.
type Notice struct {
	Title   string `json:"title"`
	Href    string `json:"href"`
	Summary string `json:"summary"`
	Board   string `json:"board"`
	BoardID string `json:"board_id"`
}

// HasContent reports whether the summary was derived from real page content
// rather than the placeholder.
func (n Notice) HasContent() bool {
	return n.Summary != "" && n.Summary != Placeholder
}

// HarvestResult is the aggregated output of one harvest run.
type HarvestResult struct {
	Notices     []Notice `json:"notices"`
	LastUpdated string   `json:"last_updated"`
}

// NewHarvestResult builds a result from the collected notices. An empty
// collection is replaced by the fallback sample before the list is capped at
// MaxNotices.
func NewHarvestResult(notices []Notice, now time.Time) *HarvestResult {
	if len(notices) == 0 {
		notices = FallbackNotices()
	}

	return &HarvestResult{
		Notices:     Truncate(notices, MaxNotices),
		LastUpdated: FormatTimestamp(now),
	}
}

// Truncate returns at most the first n notices.
func Truncate(notices []Notice, n int) []Notice {
	if len(notices) <= n {
		return notices
	}
	return notices[:n]
}

// FormatTimestamp formats t in local time using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// ContainsHref reports whether any notice already links to href.
func ContainsHref(notices []Notice, href string) bool {
	for _, n := range notices {
		if n.Href == href {
			return true
		}
	}
	return false
}
