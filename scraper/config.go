package scraper

import (
	"strings"
	"time"

	"github.com/pevans/noticeharvest/notice"
)

// DefaultUserAgent is sent by the browser when no user agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ScraperConfig defines how to find and read notices on the forum.
type ScraperConfig struct {
	// BaseURL is the forum root, e.g. https://forum.nexon.com/fcmobile.
	BaseURL       string        `yaml:"base_url"`
	ListConfig    ListConfig    `yaml:"list"`
	ArticleConfig ArticleConfig `yaml:"article"`
}

// ListConfig defines how to discover notices on a board listing page.
type ListConfig struct {
	LinkSelector string        `yaml:"link_selector"`
	MaxLinks     int           `yaml:"max_links"`
	Settle       time.Duration `yaml:"settle"`
}

// ArticleConfig defines how to extract content from a notice detail page.
type ArticleConfig struct {
	ContentSelector string        `yaml:"content_selector"`
	Settle          time.Duration `yaml:"settle"`
}

// DefaultBoards are harvested in this order.
var DefaultBoards = []notice.BoardSpec{
	{ID: "441", Name: "공지사항"},
	{ID: "442", Name: "업데이트"},
	{ID: "445", Name: "이벤트"},
}

// NewScraperConfig creates a configuration for the FC Mobile forum.
func NewScraperConfig() ScraperConfig {
	return ScraperConfig{
		BaseURL: "https://forum.nexon.com/fcmobile",
		ListConfig: ListConfig{
			LinkSelector: `a[href*="board_view"]`,
			MaxLinks:     3,
			Settle:       2 * time.Second,
		},
		ArticleConfig: ArticleConfig{
			ContentSelector: "div.article-content",
			Settle:          1 * time.Second,
		},
	}
}

// ListURL returns the listing page URL for a board.
func (c ScraperConfig) ListURL(boardID string) string {
	return c.BaseURL + "/board_list?board=" + boardID
}

// NormalizeHref makes a detail link absolute. Links that already start with
// "http" are returned unchanged; anything else is appended to BaseURL.
func (c ScraperConfig) NormalizeHref(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return c.BaseURL + "/" + href
}
