package cron

import (
	"context"
	"testing"
	"time"

	"launcher.GO/core/logger"
)

func TestStartCron_RunsJob(t *testing.T) {
	done := make(chan struct{}, 1)
	jobs := map[string]Job{
		"tick": {Schedule: "@every 1s", Run: func(context.Context, ...string) error {
			select {
			case done <- struct{}{}:
			default:
			}
			return nil
		}},
		"off": {Schedule: "", Run: func(context.Context, ...string) error {
			t.Error("disabled job ran")
			return nil
		}},
	}
	c, err := StartCron(context.Background(), jobs, logger.Discard())
	if err != nil {
		t.Fatalf("StartCron: %v", err)
	}
	defer c.Stop()

	if got := len(c.Entries()); got != 1 {
		t.Errorf("entries = %d, want 1", got)
	}
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestStartCron_InvalidSchedule(t *testing.T) {
	jobs := map[string]Job{"bad": {Schedule: "every now and then", Run: func(context.Context, ...string) error { return nil }}}
	if _, err := StartCron(context.Background(), jobs, logger.Discard()); err == nil {
		t.Fatal("want error for invalid schedule")
	}
}
