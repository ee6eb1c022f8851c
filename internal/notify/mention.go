package notify

import "strings"

// SlackMentionText renders user and user-group IDs into Slack mention syntax,
// space-joined. Empty lists produce ""; callers omit the mention line rather
// than emitting blank content.
func SlackMentionText(userIDs, groupIDs []string) string {
	parts := make([]string, 0, len(userIDs)+len(groupIDs))
	for _, id := range userIDs {
		parts = append(parts, "<@"+id+">")
	}
	for _, id := range groupIDs {
		parts = append(parts, "<!subteam^"+id+">")
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// DiscordMentionText renders user and role IDs into Discord mention syntax.
func DiscordMentionText(userIDs, roleIDs []string) string {
	parts := make([]string, 0, len(userIDs)+len(roleIDs))
	for _, id := range userIDs {
		parts = append(parts, "<@"+id+">")
	}
	for _, id := range roleIDs {
		parts = append(parts, "<@&"+id+">")
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
