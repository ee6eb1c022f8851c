// Package runner orchestrates rule runs: fetch column vectors from the
// source, evaluate the rule's matcher and hand matches to the dispatcher.
// Each run is a strict sequential pipeline with no state carried between runs.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"

	"github.com/sheetwatch/sheetwatch/internal/config"
	"github.com/sheetwatch/sheetwatch/internal/match"
	"github.com/sheetwatch/sheetwatch/internal/notify"
	"github.com/sheetwatch/sheetwatch/internal/sheet"
	"github.com/sheetwatch/sheetwatch/internal/timeutil"
	"github.com/sheetwatch/sheetwatch/pkg/models"
)

var (
	ruleRunsTotal      = metrics.NewCounter("sheetwatch_rule_runs_total")
	ruleRunErrorsTotal = metrics.NewCounter("sheetwatch_rule_run_errors_total")
	rowsMatchedTotal   = metrics.NewCounter("sheetwatch_rows_matched_total")
	dispatchesTotal    = metrics.NewCounter("sheetwatch_dispatches_total")
)

// Options encapsulates the dependencies a Runner needs.
type Options struct {
	Config *config.Config
	// OpenSource opens the tabular source for one run cycle. The runner
	// re-opens per cycle so watch mode picks up workbook changes.
	OpenSource func() (sheet.Source, error)
	Logger     *slog.Logger
	HTTPClient *http.Client
	// Now is the clock used to resolve "today". Nil means time.Now.
	Now func() time.Time
}

// Runner executes configured rules against the source.
type Runner struct {
	cfg        *config.Config
	openSource func() (sheet.Source, error)
	log        *slog.Logger
	httpClient *http.Client
	now        func() time.Time
}

// New constructs a Runner.
func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Config.Notify.RequestTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		cfg:        opts.Config,
		openSource: opts.OpenSource,
		log:        logger.With("component", "runner"),
		httpClient: httpClient,
		now:        now,
	}
}

// Run executes the configured rules sequentially. An empty ruleFilter runs
// every rule; otherwise only the rule with that name runs. A failing rule is
// logged, reported to the operator side channel and counted, but does not
// stop the remaining rules.
func (r *Runner) Run(ctx context.Context, ruleFilter string) error {
	src, err := r.openSource()
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	matched := false
	var errs []error
	for _, rule := range r.cfg.Rules {
		if ruleFilter != "" && rule.Name != ruleFilter {
			continue
		}
		matched = true
		if err := r.runRule(ctx, src, rule); err != nil {
			ruleRunErrorsTotal.Inc()
			r.log.Error("rule run failed", "rule", rule.Name, "error", err)
			r.notifyOperator(ctx, rule, err)
			errs = append(errs, fmt.Errorf("rule %q: %w", rule.Name, err))
		}
	}
	if !matched && ruleFilter != "" {
		return fmt.Errorf("no rule named %q is configured", ruleFilter)
	}
	return errors.Join(errs...)
}

func (r *Runner) runRule(ctx context.Context, src sheet.Source, rule config.Rule) error {
	ruleRunsTotal.Inc()
	log := r.log.With("run_id", uuid.NewString(), "rule", rule.Name, "kind", rule.Kind)
	log.Info("starting rule run", "sheet", rule.Sheet)

	lastRow, err := src.LastRow(rule.Sheet)
	if err != nil {
		return fmt.Errorf("failed to resolve data range: %w", err)
	}
	if lastRow < rule.StartRow {
		log.Info("no data rows found in sheet")
		return nil
	}

	info, err := src.Info(rule.Sheet)
	if err != nil {
		return fmt.Errorf("failed to resolve sheet info: %w", err)
	}

	matcher, err := r.matcherFor(rule, info.URL, log)
	if err != nil {
		return err
	}

	vectors := make(map[string][]string)
	for _, column := range uniqueColumns(matcher.PredicateColumns(), rule.Columns) {
		values, err := src.ColumnValues(rule.Sheet, column, rule.StartRow, lastRow)
		if err != nil {
			return fmt.Errorf("failed to read column %s: %w", column, err)
		}
		vectors[column] = values
	}

	rows := matcher.Match(vectors, rule.StartRow)
	rowsMatchedTotal.Add(len(rows))
	log.Info("matching finished", "rows_scanned", lastRow-rule.StartRow+1, "rows_matched", len(rows))

	labels, err := sheet.ColumnLabels(src, rule.Sheet, rule.StartRow)
	if err != nil {
		log.Warn("failed to read column labels", "error", err)
		labels = map[string]string{}
	}

	if err := notify.Dispatch(ctx, notify.Options{
		Rule:       rule,
		SheetInfo:  info,
		Labels:     labels,
		SMTP:       r.cfg.SMTP,
		HTTPClient: r.httpClient,
		Logger:     log,
		Now:        r.now,
	}, rows); err != nil {
		return err
	}
	if len(rows) > 0 {
		dispatchesTotal.Inc()
	}
	return nil
}

func (r *Runner) matcherFor(rule config.Rule, sheetURL string, log *slog.Logger) (match.Matcher, error) {
	switch rule.Kind {
	case models.RuleKindDate:
		loc, err := timeutil.Location(rule.Timezone)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %q: %v", config.ErrInvalid, rule.Name, err)
		}
		return match.DateMatcher{
			Column:        rule.DateColumn,
			DaysBefore:    rule.DaysBefore,
			Today:         timeutil.Midnight(r.now().In(loc)),
			Timezone:      rule.Timezone,
			NotifyColumns: rule.Columns,
			SheetURL:      sheetURL,
			Logger:        log,
		}, nil
	case models.RuleKindStatus:
		return match.StatusMatcher{
			Columns:       rule.MatchColumns,
			Values:        rule.MatchValues,
			NotifyColumns: rule.Columns,
			SheetURL:      sheetURL,
		}, nil
	default:
		return nil, fmt.Errorf("%w: rule %q: unknown kind %q", config.ErrInvalid, rule.Name, rule.Kind)
	}
}

// notifyOperator emails the run failure to the configured operator address.
// Best effort: a failure here is logged, never raised.
func (r *Runner) notifyOperator(ctx context.Context, rule config.Rule, runErr error) {
	recipient := r.cfg.Notify.ErrorRecipient
	if recipient == "" {
		return
	}
	subject := "[sheetwatch] ルール実行エラー"
	body := fmt.Sprintf("ルール %q の実行中にエラーが発生しました。\n\nエラー内容:\n%v\n", rule.Name, runErr)
	if err := notify.SendMail(ctx, r.cfg.SMTP, recipient, subject, body); err != nil {
		r.log.Error("failed to send error notification", "rule", rule.Name, "error", err)
	}
}

// Watch re-runs all rules on the configured interval until the context is
// cancelled. An initial run fires immediately so a freshly started watcher
// notifies without waiting a full interval.
func (r *Runner) Watch(ctx context.Context) error {
	interval := r.cfg.Watch.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	r.log.Info("starting watch loop", "interval", interval)

	if addr := r.cfg.Watch.MetricsAddr; addr != "" {
		server := r.serveMetrics(addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := r.Run(ctx, ""); err != nil {
		r.log.Error("run cycle finished with errors", "error", err)
	}
	for {
		select {
		case <-ticker.C:
			if err := r.Run(ctx, ""); err != nil {
				r.log.Error("run cycle finished with errors", "error", err)
			}
		case <-ctx.Done():
			r.log.Info("watch loop stopping")
			return nil
		}
	}
}

func (r *Runner) serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		r.log.Info("serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.Error("metrics server failed", "error", err)
		}
	}()
	return server
}

// uniqueColumns merges column lists preserving first-seen order.
func uniqueColumns(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, column := range list {
			if _, ok := seen[column]; ok {
				continue
			}
			seen[column] = struct{}{}
			out = append(out, column)
		}
	}
	return out
}
