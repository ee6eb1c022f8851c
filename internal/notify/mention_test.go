package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlackMentionText(t *testing.T) {
	tests := []struct {
		name     string
		users    []string
		groups   []string
		expected string
	}{
		{"users and group", []string{"U1", "U2"}, []string{"G1"}, "<@U1> <@U2> <!subteam^G1>"},
		{"users only", []string{"U1"}, nil, "<@U1>"},
		{"group only", nil, []string{"G1"}, "<!subteam^G1>"},
		{"empty", nil, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SlackMentionText(tt.users, tt.groups))
		})
	}
}

func TestDiscordMentionText(t *testing.T) {
	tests := []struct {
		name     string
		users    []string
		roles    []string
		expected string
	}{
		{"users and role", []string{"1", "2"}, []string{"9"}, "<@1> <@2> <@&9>"},
		{"role only", nil, []string{"9"}, "<@&9>"},
		{"empty", nil, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DiscordMentionText(tt.users, tt.roles))
		})
	}
}
