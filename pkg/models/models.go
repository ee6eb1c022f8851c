package models

// ChannelType enumerates supported outbound notification channels.
type ChannelType string

const (
	ChannelSlack   ChannelType = "slack"
	ChannelDiscord ChannelType = "discord"
	ChannelEmail   ChannelType = "email"
)

// RuleKind represents the matching strategy a rule uses.
type RuleKind string

const (
	// RuleKindDate matches rows whose date column is exactly N days from today.
	RuleKindDate RuleKind = "date"
	// RuleKindStatus matches rows where every configured column equals its expected value.
	RuleKindStatus RuleKind = "status"
)

// ColumnValue is one notification column extracted from a matched row.
// The slice a renderer receives preserves the configured column order.
type ColumnValue struct {
	Letter string
	Value  string
}

// RowData is the channel-agnostic record for one matched row. It is built
// once per match and never mutated afterwards.
type RowData struct {
	// RowNumber is 1-based and matches the row's position in the sheet.
	RowNumber int
	// Date is the formatted matched date. Empty for status rules.
	Date    string
	Columns []ColumnValue
	// RowURL deep-links to the matched cell. Empty when no sheet URL is configured.
	RowURL string
}

// SheetInfo describes the sheet a notification links back to.
type SheetInfo struct {
	Title string
	URL   string
}
