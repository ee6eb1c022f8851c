package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sheetwatch/sheetwatch/pkg/models"
)

// embedColor is the orange (#E67E22) used for all sheetwatch embeds.
const embedColor = 15105570

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
}

type discordAllowedMentions struct {
	Parse []string `json:"parse,omitempty"`
}

type discordPayload struct {
	Content         string                  `json:"content,omitempty"`
	AllowedMentions *discordAllowedMentions `json:"allowed_mentions,omitempty"`
	Embeds          []discordEmbed          `json:"embeds"`
}

// DiscordNotifier posts an embed list to a Discord webhook. Discord answers
// 204 (or 200 with ?wait=true) on success.
type DiscordNotifier struct {
	opts Options
}

func (n *DiscordNotifier) Send(ctx context.Context, rows []models.RowData) error {
	status, body, err := postJSON(ctx, n.opts.httpClient(), n.opts.Rule.WebhookURL, n.buildPayload(rows))
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusOK {
		return &DeliveryError{Channel: models.ChannelDiscord, StatusCode: status, Body: body}
	}
	return nil
}

func (n *DiscordNotifier) buildPayload(rows []models.RowData) discordPayload {
	mentions := n.opts.Rule.Mentions

	// Restrict mention resolution to the scopes actually configured.
	var parse []string
	if len(mentions.DiscordUsers) > 0 {
		parse = append(parse, "users")
	}
	if len(mentions.DiscordRoles) > 0 {
		parse = append(parse, "roles")
	}
	var allowed *discordAllowedMentions
	if len(parse) > 0 {
		allowed = &discordAllowedMentions{Parse: parse}
	}

	embeds := []discordEmbed{{
		Title:       n.opts.Rule.Title,
		Description: fmt.Sprintf("該当件数：%d件", len(rows)),
		Color:       embedColor,
		Fields: []discordField{
			{Name: "📊 シート名", Value: n.opts.SheetInfo.Title, Inline: true},
			{Name: "🔗 シートURL", Value: fmt.Sprintf("[開く](%s)", n.opts.SheetInfo.URL), Inline: true},
		},
	}}

	timestamp := n.opts.now().UTC().Format(time.RFC3339)
	for _, row := range rows {
		embeds = append(embeds, discordEmbed{
			Color:     embedColor,
			Fields:    n.buildFields(row),
			Timestamp: timestamp,
		})
	}

	return discordPayload{
		Content:         DiscordMentionText(mentions.DiscordUsers, mentions.DiscordRoles),
		AllowedMentions: allowed,
		Embeds:          embeds,
	}
}

func (n *DiscordNotifier) buildFields(row models.RowData) []discordField {
	rowLabel := fmt.Sprintf("%d行目", row.RowNumber)
	if row.RowURL != "" {
		rowLabel = fmt.Sprintf("[%d行目](%s)", row.RowNumber, row.RowURL)
	}
	fields := []discordField{{Name: "📍 行番号", Value: rowLabel, Inline: true}}

	if row.Date != "" {
		fields = append(fields, discordField{Name: "📅 日付", Value: row.Date, Inline: true})
	}

	for _, column := range row.Columns {
		// Unlike Slack, the fallback here is the bare letter.
		label := n.opts.Labels[column.Letter]
		if label == "" {
			label = column.Letter
		}
		value := column.Value
		if value == "" {
			value = "-"
		}
		fields = append(fields, discordField{Name: label, Value: value, Inline: true})
	}

	return fields
}
