package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetwatch/sheetwatch/internal/config"
	"github.com/sheetwatch/sheetwatch/pkg/models"
)

func emailTestOptions() Options {
	return Options{
		Rule: config.Rule{
			Name:           "deadline",
			Title:          "【期限】支払期限が近い",
			Channel:        models.ChannelEmail,
			EmailRecipient: "ops@example.com",
			EmailSubject:   "期限通知",
			Timezone:       "Asia/Tokyo",
		},
		Now: func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestEmailBuildMessage(t *testing.T) {
	n := &EmailNotifier{opts: emailTestOptions()}
	rows := []models.RowData{
		{
			RowNumber: 2,
			Date:      "2024/03/02",
			Columns:   []models.ColumnValue{{Letter: "D", Value: "Alice"}},
			RowURL:    "https://example.com/wb#range=L2",
		},
		{
			RowNumber: 5,
			Columns:   []models.ColumnValue{{Letter: "D", Value: ""}},
		},
	}

	body := n.buildMessage(rows)

	assert.Contains(t, body, "【期限】支払期限が近い\n")
	assert.Contains(t, body, "該当件数: 2件\n")
	assert.Contains(t, body, "--------------------\n")
	assert.Contains(t, body, "【2行目】日付: 2024/03/02\n")
	assert.Contains(t, body, "リンク: https://example.com/wb#range=L2\n")
	assert.Contains(t, body, "[D列] Alice\n")
	// Status-style rows have no date and no link, but keep the row header.
	assert.Contains(t, body, "【5行目】[D列] \n")
	// Send timestamp is rendered in the rule's timezone (UTC midnight -> 09:00 JST).
	assert.Contains(t, body, "送信日時: 2024/03/01 09:00:00")
}

func TestEmailBuildMessageNoColumns(t *testing.T) {
	n := &EmailNotifier{opts: emailTestOptions()}
	rows := []models.RowData{{RowNumber: 3}}

	body := n.buildMessage(rows)
	assert.Contains(t, body, "【3行目】")
}

func TestSendMailUnconfigured(t *testing.T) {
	err := SendMail(context.Background(), config.SMTPConfig{}, "ops@example.com", "subject", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp is not configured")
}
