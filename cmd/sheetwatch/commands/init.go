package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
)

const configTemplate = `[workbook]
path = %q
# Externally reachable URL of the workbook, used for deep links (optional).
url = ""

[logging]
level = "info"

[notify]
request_timeout = "5s"
# error_recipient = "ops@example.com"

# [smtp]
# host = "smtp.example.com"
# port = 587
# from = "sheetwatch@example.com"
# security = "starttls"

[watch]
interval = "1h"
# metrics_addr = ":9091"

[[rules]]
name = %q
kind = %q
sheet = %q
channel = %q
webhook_url = %q
email_recipient = %q
email_subject = ""
title = ""
timezone = "Asia/Tokyo"
start_row = 2
columns = ["D"]
date_column = "L"
days_before = 1
match_columns = []
match_values = []

# [rules.mentions]
# slack_users = ["U123"]
# slack_groups = []
# discord_users = []
# discord_roles = []
`

// initCommand returns the init subcommand, which writes a starter config
// after a short interactive form.
func (a *App) initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "interactively create a starter configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "path to write the config file to",
				Value:   "sheetwatch.toml",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			output := cmd.String("output")
			if _, err := os.Stat(output); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", output)
			}

			var (
				workbook  = "data.xlsx"
				ruleName  = "deadline"
				kind      = "date"
				sheetName = "Sheet1"
				channel   = "slack"
				webhook   string
				recipient string
			)

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().Title("Workbook path").Value(&workbook),
					huh.NewInput().Title("Sheet name").Value(&sheetName),
					huh.NewInput().Title("Rule name").Value(&ruleName),
					huh.NewSelect[string]().
						Title("Rule kind").
						Options(huh.NewOptions("date", "status")...).
						Value(&kind),
					huh.NewSelect[string]().
						Title("Notification channel").
						Options(huh.NewOptions("slack", "discord", "email")...).
						Value(&channel),
				),
				huh.NewGroup(
					huh.NewInput().Title("Webhook URL (slack/discord)").Value(&webhook),
					huh.NewInput().Title("Email recipient (email)").Value(&recipient),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}

			content := fmt.Sprintf(configTemplate, workbook, ruleName, kind, sheetName, channel, webhook, recipient)
			if err := os.WriteFile(output, []byte(content), 0644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			fmt.Println(successStyle.Render("wrote " + output))
			fmt.Println(mutedStyle.Render("edit the rule parameters, then try: sheetwatch validate"))
			return nil
		},
	}
}
