package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetwatch/sheetwatch/internal/config"
	"github.com/sheetwatch/sheetwatch/pkg/models"
)

func discordTestOptions() Options {
	return Options{
		Rule: config.Rule{
			Name:    "deadline",
			Title:   "【期限】支払期限が近い",
			Channel: models.ChannelDiscord,
			Mentions: config.MentionConfig{
				DiscordUsers: []string{"111"},
				DiscordRoles: []string{"999"},
			},
		},
		SheetInfo: models.SheetInfo{Title: "支払管理", URL: "https://example.com/wb#gid=0"},
		Labels:    map[string]string{"D": "担当者"},
		Now:       func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) },
	}
}

func TestDiscordBuildPayload(t *testing.T) {
	n := &DiscordNotifier{opts: discordTestOptions()}
	rows := []models.RowData{
		{
			RowNumber: 2,
			Date:      "2024/03/02",
			Columns:   []models.ColumnValue{{Letter: "D", Value: "Alice"}, {Letter: "E", Value: ""}},
			RowURL:    "https://example.com/wb#gid=0&range=L2",
		},
	}

	payload := n.buildPayload(rows)

	assert.Equal(t, "<@111> <@&999>", payload.Content)
	require.NotNil(t, payload.AllowedMentions)
	assert.Equal(t, []string{"users", "roles"}, payload.AllowedMentions.Parse)

	require.Len(t, payload.Embeds, 2)
	header := payload.Embeds[0]
	assert.Equal(t, "【期限】支払期限が近い", header.Title)
	assert.Equal(t, "該当件数：1件", header.Description)
	assert.Equal(t, embedColor, header.Color)
	require.Len(t, header.Fields, 2)
	assert.Equal(t, "支払管理", header.Fields[0].Value)
	assert.Equal(t, "[開く](https://example.com/wb#gid=0)", header.Fields[1].Value)

	row := payload.Embeds[1]
	assert.Equal(t, "2024-03-01T09:00:00Z", row.Timestamp)
	require.Len(t, row.Fields, 4)
	assert.Equal(t, "[2行目](https://example.com/wb#gid=0&range=L2)", row.Fields[0].Value)
	assert.Equal(t, "2024/03/02", row.Fields[1].Value)
	assert.Equal(t, "担当者", row.Fields[2].Name)
	// Unlabeled columns fall back to the bare letter, and empty values to "-".
	assert.Equal(t, "E", row.Fields[3].Name)
	assert.Equal(t, "-", row.Fields[3].Value)
}

func TestDiscordMentionScopes(t *testing.T) {
	tests := []struct {
		name     string
		mentions config.MentionConfig
		parse    []string
		content  string
	}{
		{"users only", config.MentionConfig{DiscordUsers: []string{"1"}}, []string{"users"}, "<@1>"},
		{"roles only", config.MentionConfig{DiscordRoles: []string{"9"}}, []string{"roles"}, "<@&9>"},
		{"none", config.MentionConfig{}, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := discordTestOptions()
			opts.Rule.Mentions = tt.mentions
			n := &DiscordNotifier{opts: opts}

			payload := n.buildPayload([]models.RowData{{RowNumber: 2}})
			assert.Equal(t, tt.content, payload.Content)
			if tt.parse == nil {
				assert.Nil(t, payload.AllowedMentions)
			} else {
				require.NotNil(t, payload.AllowedMentions)
				assert.Equal(t, tt.parse, payload.AllowedMentions.Parse)
			}
		})
	}
}

func TestDiscordSendAccepts204(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	opts := discordTestOptions()
	opts.Rule.WebhookURL = server.URL
	n := &DiscordNotifier{opts: opts}

	assert.NoError(t, n.Send(context.Background(), []models.RowData{{RowNumber: 2}}))
}

func TestDiscordSendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "Invalid Webhook Token"}`))
	}))
	defer server.Close()

	opts := discordTestOptions()
	opts.Rule.WebhookURL = server.URL
	n := &DiscordNotifier{opts: opts}

	err := n.Send(context.Background(), []models.RowData{{RowNumber: 2}})
	var deliveryErr *DeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Equal(t, http.StatusBadRequest, deliveryErr.StatusCode)
	assert.Contains(t, deliveryErr.Body, "Invalid Webhook Token")
}
