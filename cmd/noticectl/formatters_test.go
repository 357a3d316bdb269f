package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pevans/noticeharvest/archive"
	"github.com/pevans/noticeharvest/config"
	"github.com/pevans/noticeharvest/notice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestRun() *archive.Run {
	result := &notice.HarvestResult{
		Notices: []notice.Notice{
			{
				Title:   "점검 안내",
				Href:    "https://forum.nexon.com/fcmobile/board_view?board=441&thread=1",
				Summary: "정기 점검이 진행됩니다.",
				Board:   "공지사항",
				BoardID: "441",
			},
			{
				Title:   "이벤트 안내",
				Href:    "https://forum.nexon.com/fcmobile/board_view?board=445&thread=9",
				Summary: notice.Placeholder,
				Board:   "이벤트",
				BoardID: "445",
			},
		},
		LastUpdated: "2024-03-01 09:00:20",
	}
	started := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)
	return archive.NewRun(result, started, started.Add(20*time.Second), true, 3)
}

func TestPrintNoticesTable_HidesPlaceholder(t *testing.T) {
	run := createTestRun()
	var buf bytes.Buffer

	printNoticesTable(&buf, run.Result())

	out := buf.String()
	assert.Contains(t, out, "Last updated: 2024-03-01 09:00:20")
	assert.Contains(t, out, "1. [공지사항] 점검 안내")
	assert.Contains(t, out, "정기 점검이 진행됩니다.")
	assert.Contains(t, out, "2. [이벤트] 이벤트 안내")
	assert.NotContains(t, out, notice.Placeholder)
}

func TestPrintNoticesTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	printNoticesTable(&buf, &notice.HarvestResult{LastUpdated: "2024-03-01 09:00:20"})
	assert.Contains(t, buf.String(), "No notices to display.")
}

func TestPrintRunsTable(t *testing.T) {
	run := createTestRun()
	var buf bytes.Buffer

	printRunsTable(&buf, []archive.Run{*run})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "LAST UPDATED")
	assert.Contains(t, lines[2], run.RunID.String())
	assert.Contains(t, lines[2], "yes")
}

func TestPrintRunsTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	printRunsTable(&buf, nil)
	assert.Equal(t, "No runs archived.\n", buf.String())
}

func TestPrintRunsJSON(t *testing.T) {
	run := createTestRun()
	var buf bytes.Buffer

	require.NoError(t, printRunsJSON(&buf, []archive.Run{*run}))

	var out struct {
		Runs  []archive.Run `json:"runs"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 1, out.Total)
	assert.Equal(t, run.RunID, out.Runs[0].RunID)
	assert.Contains(t, buf.String(), "board=441&thread=1", "hrefs should not be HTML-escaped")
}

func TestPrintRunsCompact(t *testing.T) {
	run := createTestRun()
	var buf bytes.Buffer

	printRunsCompact(&buf, []archive.Run{*run})

	assert.Equal(t,
		run.RunID.String()[:8]+" 2024-03-01 09:00:20 2 notices (fallback)\n",
		buf.String())
}

func TestPrintRunDetail(t *testing.T) {
	run := createTestRun()
	var buf bytes.Buffer

	printRunDetail(&buf, run)

	out := buf.String()
	assert.Contains(t, out, "Run "+run.RunID.String())
	assert.Contains(t, out, "Started:      2024-03-01 09:00:00")
	assert.Contains(t, out, "Finished:     2024-03-01 09:00:20")
	assert.Contains(t, out, "Errors:       3")
	assert.Contains(t, out, "sample notices served")
}

func TestPrintConfig(t *testing.T) {
	var buf bytes.Buffer
	printConfig(&buf, config.Default())

	out := buf.String()
	assert.Contains(t, out, "https://forum.nexon.com/fcmobile")
	assert.Contains(t, out, "441    공지사항")
	assert.Contains(t, out, "Archive:     (disabled)")
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "짧은 제목", shorten("짧은 제목", 10))
	assert.Equal(t, "가나다라마바사...", shorten("가나다라마바사아자차카", 10))
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "one two\n  three", wrapText("one two three", 8, "  "))
	assert.Equal(t, "", wrapText("", 8, "  "))
}
