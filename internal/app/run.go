package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// RunDaily runs job now, then once a day at hour:minute UTC, until ctx is
// done. A failing run is logged and the schedule continues.
func RunDaily(ctx context.Context, hour, minute int, job func(context.Context) error) error {
	for {
		if err := job(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("scheduled run failed", "error", err)
		}
		nextRun := NextRunTime(time.Now().UTC(), hour, minute)
		waitDur := time.Until(nextRun)
		slog.Info("timer waiting", "hours", waitDur.Hours(), "until", nextRun.Format("2006-01-02 15:04"))
		timer := time.NewTimer(waitDur)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			slog.Info("stopping", "restart_at", nextRun.Format("2006-01-02 15:04"))
			return ctx.Err()
		}
	}
}

// NextRunTime returns the next hour:minute UTC strictly after now.
func NextRunTime(now time.Time, hour, minute int) time.Time {
	now = now.UTC()
	targetToday := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if now.Before(targetToday) {
		return targetToday
	}
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hour, minute, 0, 0, time.UTC)
}

// Exit logs err and terminates the process with status 1.
func Exit(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
