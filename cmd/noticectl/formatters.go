package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pevans/noticeharvest/archive"
	"github.com/pevans/noticeharvest/config"
	"github.com/pevans/noticeharvest/notice"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// printNoticesTable prints a harvest result in human-readable form
func printNoticesTable(w io.Writer, result *notice.HarvestResult) {
	fmt.Fprintf(w, "Last updated: %s\n\n", result.LastUpdated)
	printNotices(w, result.Notices)
}

func printNotices(w io.Writer, notices []notice.Notice) {
	if len(notices) == 0 {
		fmt.Fprintln(w, "No notices to display.")
		return
	}

	for i, n := range notices {
		fmt.Fprintf(w, "%d. [%s] %s\n", i+1, n.Board, shorten(n.Title, 70))
		if n.HasContent() {
			fmt.Fprintf(w, "   %s\n", wrapText(n.Summary, 72, "   "))
		}
		fmt.Fprintf(w, "   URL: %s\n", n.Href)
		fmt.Fprintln(w)
	}
}

// printRunsTable prints runs as an aligned table
func printRunsTable(w io.Writer, runs []archive.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs archived.")
		return
	}

	fmt.Fprintf(w, "%-36s %-19s %-7s %-6s %s\n", "ID", "LAST UPDATED", "NOTICES", "ERRORS", "FALLBACK")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, run := range runs {
		fallback := "no"
		if run.UsedFallback {
			fallback = "yes"
		}
		fmt.Fprintf(w, "%-36s %-19s %-7d %-6d %s\n",
			run.RunID.String(),
			run.LastUpdated,
			run.NoticeCount,
			run.ErrorCount,
			fallback,
		)
	}
}

// printRunsJSON prints runs in JSON format
func printRunsJSON(w io.Writer, runs []archive.Run) error {
	if runs == nil {
		runs = []archive.Run{}
	}
	output := map[string]any{
		"runs":  runs,
		"total": len(runs),
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

// printRunsCompact prints one line per run
func printRunsCompact(w io.Writer, runs []archive.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs archived.")
		return
	}

	for _, run := range runs {
		// Truncate ID to first 8 characters
		shortID := run.RunID.String()[:8]
		marker := ""
		if run.UsedFallback {
			marker = " (fallback)"
		}
		fmt.Fprintf(w, "%s %s %d notices%s\n", shortID, run.LastUpdated, run.NoticeCount, marker)
	}
}

// printRunDetail prints one run with its notices
func printRunDetail(w io.Writer, run *archive.Run) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Run %s\n", run.RunID.String())
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Started:      %s\n", notice.FormatTimestamp(run.StartedAt))
	fmt.Fprintf(w, "Finished:     %s\n", notice.FormatTimestamp(run.FinishedAt))
	fmt.Fprintf(w, "Last Updated: %s\n", run.LastUpdated)
	fmt.Fprintf(w, "Errors:       %d\n", run.ErrorCount)
	if run.UsedFallback {
		fmt.Fprintln(w, "Fallback:     ✓ sample notices served")
	}
	fmt.Fprintln(w)

	printNotices(w, run.Notices)
}

// printConfig prints the resolved configuration
func printConfig(w io.Writer, cfg *config.Config) {
	site := cfg.Harvest.ScraperConfig

	fmt.Fprintln(w, "Site:")
	fmt.Fprintf(w, "  Base URL:         %s\n", site.BaseURL)
	fmt.Fprintf(w, "  Link Selector:    %s (max %d per board)\n", site.ListConfig.LinkSelector, site.ListConfig.MaxLinks)
	fmt.Fprintf(w, "  Content Selector: %s\n", site.ArticleConfig.ContentSelector)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Boards:")
	for _, b := range cfg.Harvest.Boards {
		fmt.Fprintf(w, "  %-6s %s\n", b.ID, b.Name)
	}
	fmt.Fprintln(w)

	archiveDSN := cfg.ArchiveDSN
	if archiveDSN == "" {
		archiveDSN = "(disabled)"
	}
	fmt.Fprintln(w, "Output:")
	fmt.Fprintf(w, "  Browser:     %s (headless: %t)\n", cfg.Browser, cfg.Headless)
	fmt.Fprintf(w, "  Result:      %s\n", cfg.ResultPath)
	fmt.Fprintf(w, "  Log:         %s\n", cfg.LogPath)
	fmt.Fprintf(w, "  Screenshots: %s\n", cfg.Harvest.ScreenshotDir)
	fmt.Fprintf(w, "  Archive:     %s\n", archiveDSN)
}

// shorten truncates s to at most n runes
func shorten(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

// wrapText wraps text to a maximum line width in runes, indenting
// continuation lines
func wrapText(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var lines []string
	var currentLine strings.Builder
	lineLen := 0

	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		switch {
		case lineLen == 0:
			currentLine.WriteString(word)
			lineLen = wordLen
		case lineLen+1+wordLen <= width:
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
			lineLen += 1 + wordLen
		default:
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
			lineLen = wordLen
		}
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, "\n"+indent)
}
