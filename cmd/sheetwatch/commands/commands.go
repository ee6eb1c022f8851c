package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/sheetwatch/sheetwatch/internal/config"
	"github.com/sheetwatch/sheetwatch/internal/runner"
	"github.com/sheetwatch/sheetwatch/internal/sheet"
	"github.com/sheetwatch/sheetwatch/pkg/logger"
	"github.com/sheetwatch/sheetwatch/pkg/models"
)

// runCommand returns the run subcommand
func (a *App) runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "evaluate rules once and send notifications for matches",
		Description: `Evaluate the configured rules against the workbook and notify for
matches. Intended to be invoked from cron or a comparable scheduler.

Examples:
   sheetwatch run
   sheetwatch run --rule payment-deadline`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "rule",
				Aliases: []string{"r"},
				Usage:   "run only the rule with this name",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			return a.newRunner(cfg).Run(ctx, cmd.String("rule"))
		},
	}
}

// watchCommand returns the watch subcommand
func (a *App) watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "evaluate rules on an interval until interrupted",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "override the configured check interval",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if interval := cmd.Duration("interval"); interval > 0 {
				cfg.Watch.Interval = interval
			}
			return a.newRunner(cfg).Watch(ctx)
		},
	}
}

// validateCommand returns the validate subcommand
func (a *App) validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "check the configuration and list the configured rules",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			fmt.Println(successStyle.Render("configuration OK"))
			fmt.Printf("workbook: %s\n", cfg.Workbook.Path)
			for _, rule := range cfg.Rules {
				target := rule.WebhookURL
				if rule.Channel == models.ChannelEmail {
					target = rule.EmailRecipient
				}
				fmt.Printf("  %s  %s\n", logoStyle.Render(rule.Name),
					mutedStyle.Render(fmt.Sprintf("kind=%s sheet=%s channel=%s target=%s", rule.Kind, rule.Sheet, rule.Channel, target)))
			}
			return nil
		},
	}
}

func (a *App) newRunner(cfg *config.Config) *runner.Runner {
	return runner.New(runner.Options{
		Config: cfg,
		Logger: logger.New(a.Debug),
		OpenSource: func() (sheet.Source, error) {
			return sheet.OpenExcel(cfg.Workbook.Path, cfg.Workbook.URL)
		},
		Now: time.Now,
	})
}
