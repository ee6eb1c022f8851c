package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sheetwatch/sheetwatch/pkg/models"
)

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackPayload struct {
	// Text is the plain-text fallback shown in previews and accessibility
	// contexts; Blocks carry the rich rendering.
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

// SlackNotifier posts a Block Kit message to an incoming webhook.
// Slack webhooks answer 200 on success; anything else is a delivery failure.
type SlackNotifier struct {
	opts Options
}

func (n *SlackNotifier) Send(ctx context.Context, rows []models.RowData) error {
	status, body, err := postJSON(ctx, n.opts.httpClient(), n.opts.Rule.WebhookURL, n.buildPayload(rows))
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &DeliveryError{Channel: models.ChannelSlack, StatusCode: status, Body: body}
	}
	return nil
}

func (n *SlackNotifier) mentionText() string {
	return SlackMentionText(n.opts.Rule.Mentions.SlackUsers, n.opts.Rule.Mentions.SlackGroups)
}

func (n *SlackNotifier) buildPayload(rows []models.RowData) slackPayload {
	headerPrefix := ""
	if mention := n.mentionText(); mention != "" {
		headerPrefix = mention + "\n"
	}

	blocks := []slackBlock{{
		Type: "section",
		Text: &slackText{
			Type: "mrkdwn",
			Text: fmt.Sprintf("%s*%s*\n該当件数：%d件\nシート：%s\nURL：%s",
				headerPrefix, n.opts.Rule.Title, len(rows), n.opts.SheetInfo.Title, n.opts.SheetInfo.URL),
		},
	}}

	for _, row := range rows {
		blocks = append(blocks,
			slackBlock{Type: "divider"},
			slackBlock{Type: "section", Fields: n.buildFields(row)},
		)
	}

	return slackPayload{Text: n.buildMessage(rows), Blocks: blocks}
}

func (n *SlackNotifier) buildFields(row models.RowData) []slackText {
	fields := []slackText{}

	if row.RowURL != "" {
		fields = append(fields, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*行番号*\n<%s|%d>", row.RowURL, row.RowNumber)})
	} else {
		fields = append(fields, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*行番号*\n%d", row.RowNumber)})
	}

	if row.Date != "" {
		fields = append(fields, slackText{Type: "mrkdwn", Text: "*日付*\n" + row.Date})
	}

	for _, column := range row.Columns {
		label := n.opts.Labels[column.Letter]
		if label == "" {
			label = column.Letter + "列"
		}
		value := column.Value
		if value == "" {
			value = "-"
		}
		fields = append(fields, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*%s*\n%s", label, value)})
	}

	return fields
}

// buildMessage assembles the plain-text fallback.
func (n *SlackNotifier) buildMessage(rows []models.RowData) string {
	var lines []string
	if mention := n.mentionText(); mention != "" {
		lines = append(lines, mention)
	}
	lines = append(lines, n.opts.Rule.Title, fmt.Sprintf("該当件数: %d件", len(rows)))

	for _, row := range rows {
		rowLabel := fmt.Sprintf("%d行目", row.RowNumber)
		if row.RowURL != "" {
			rowLabel = fmt.Sprintf("<%s|%d行目>", row.RowURL, row.RowNumber)
		}
		dateInfo := ""
		if row.Date != "" {
			dateInfo = " " + row.Date
		}
		lines = append(lines, rowLabel+dateInfo)

		for _, column := range row.Columns {
			lines = append(lines, fmt.Sprintf("   [%s列] %s", column.Letter, column.Value))
		}
	}

	return strings.Join(lines, "\n")
}
