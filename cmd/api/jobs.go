package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"summarize-pro/internal/config"
	"summarize-pro/internal/infra/notifier"
	"summarize-pro/internal/observability/slo"
)

// sloSchedule evaluates the SLO gauges once a minute.
const sloSchedule = "@every 1m"

const alertTimeout = 30 * time.Second

// historyPruner is implemented by *summary.Service.
type historyPruner interface {
	PruneHistory(ctx context.Context, retention time.Duration) (int64, error)
}

type jobRunner struct {
	cron    *cron.Cron
	logger  *slog.Logger
	alerter notifier.Notifier

	mu sync.Mutex
	// breached is the objective set of the last evaluation; alerts fire on change only.
	breached string
}

// startJobs schedules the background jobs of the API process: SLO evaluation
// always, history retention when a history store exists and retention is set.
func startJobs(logger *slog.Logger, cfg *config.ServerConfig, alerter notifier.Notifier, pruner historyPruner, historyEnabled bool) (*jobRunner, error) {
	if alerter == nil {
		alerter = notifier.NoOpNotifier{}
	}
	j := &jobRunner{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		logger:  logger,
		alerter: alerter,
	}

	tracker := slo.NewTracker(prometheus.DefaultGatherer)
	if _, err := j.cron.AddFunc(sloSchedule, func() { j.evaluateSLO(tracker) }); err != nil {
		return nil, err
	}

	if historyEnabled && cfg.HistoryRetention > 0 {
		retention := cfg.HistoryRetention
		if _, err := j.cron.AddFunc(cfg.HistoryRetentionSchedule, func() { j.pruneHistory(pruner, retention) }); err != nil {
			return nil, err
		}
		logger.Info("history retention scheduled",
			slog.String("schedule", cfg.HistoryRetentionSchedule),
			slog.Duration("retention", retention))
	}

	j.cron.Start()
	return j, nil
}

// Stop waits for running jobs to finish.
func (j *jobRunner) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("background jobs stopped")
}

func (j *jobRunner) evaluateSLO(tracker *slo.Tracker) {
	s, err := tracker.Evaluate()
	if err != nil {
		j.logger.Warn("slo evaluation failed", slog.Any("error", err))
		return
	}

	breaches := s.Breaches()
	key := strings.Join(breaches, ",")

	j.mu.Lock()
	changed := key != j.breached
	j.breached = key
	j.mu.Unlock()

	if len(breaches) == 0 {
		if changed {
			j.logger.Info("slo recovered")
			j.alert(notifier.Alert{
				Title:    "SLO recovered",
				Message:  "All objectives are within target again.",
				Severity: notifier.SeverityInfo,
			})
		}
		return
	}

	j.logger.Warn("slo breached",
		slog.Any("objectives", breaches),
		slog.Uint64("requests", s.Requests),
		slog.Float64("availability", s.Availability),
		slog.Float64("p95_seconds", s.P95),
		slog.Float64("p99_seconds", s.P99))
	if changed {
		j.alert(notifier.Alert{
			Title:    "SLO breached",
			Message:  "Objectives out of target: " + key,
			Severity: notifier.SeverityCritical,
			Fields: []notifier.Field{
				{Name: "requests", Value: fmt.Sprint(s.Requests)},
				{Name: "availability", Value: fmt.Sprintf("%.2f%%", s.Availability)},
				{Name: "error_rate", Value: fmt.Sprintf("%.4f", s.ErrorRate)},
				{Name: "p95", Value: fmt.Sprintf("%.2fs", s.P95)},
				{Name: "p99", Value: fmt.Sprintf("%.2fs", s.P99)},
			},
		})
	}
}

func (j *jobRunner) pruneHistory(pruner historyPruner, retention time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := pruner.PruneHistory(ctx, retention); err != nil {
		j.logger.Error("history retention job failed", slog.Any("error", err))
		j.alert(notifier.Alert{
			Title:    "History retention failed",
			Message:  err.Error(),
			Severity: notifier.SeverityWarning,
			Fields:   []notifier.Field{{Name: "retention", Value: retention.String()}},
		})
	}
}

func (j *jobRunner) alert(a notifier.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
	defer cancel()

	if err := j.alerter.Notify(ctx, a); err != nil {
		j.logger.Warn("alert delivery failed", slog.String("title", a.Title), slog.Any("error", err))
	}
}
