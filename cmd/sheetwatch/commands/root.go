// Package commands provides the CLI command definitions for sheetwatch.
package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sheetwatch/sheetwatch/internal/config"
)

// Styles for CLI output
var (
	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#059669")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// App holds the shared application state
type App struct {
	Version string
	Commit  string
	Date    string
	Debug   bool
}

// New creates the root CLI command with all subcommands
func New(version, commit, date string) *cli.Command {
	app := &App{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	return &cli.Command{
		Name:    "sheetwatch",
		Usage:   "notify Slack, Discord or email about spreadsheet rows that need attention",
		Version: version,
		Description: `sheetwatch scans a workbook for rows matching configured rules —
   a deadline N days away, or status columns with specific values — and sends
   a formatted notification for the matches.

   Use 'sheetwatch run' for a one-shot check (e.g. from cron), or
   'sheetwatch watch' to keep checking on an interval.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
				Value:   "sheetwatch.toml",
				Sources: cli.EnvVars("SHEETWATCH_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "disable colored output",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetLevel(log.DebugLevel)
				app.Debug = true
			}
			if cmd.Bool("no-color") {
				log.SetStyles(log.DefaultStyles())
				lipgloss.SetHasDarkBackground(false)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			app.runCommand(),
			app.watchCommand(),
			app.validateCommand(),
			app.initCommand(),
			app.versionCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
	}
}

// loadConfig loads and validates the configuration for subcommands.
func (a *App) loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if cfg.Logging.Level == "debug" {
		a.Debug = true
	}
	return cfg, nil
}

// versionCommand shows version information
func (a *App) versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "show version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Printf("%s version %s\n", logoStyle.Render("sheetwatch"), a.Version)
			fmt.Printf("  commit: %s\n", mutedStyle.Render(a.Commit))
			fmt.Printf("  built:  %s\n", mutedStyle.Render(a.Date))
			return nil
		},
	}
}
