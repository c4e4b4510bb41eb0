package cron

import (
	"context"
	"testing"
)

func TestRegistry_Register_Jobs(t *testing.T) {
	ran := false
	Register("testregistryjob", "@every 1h", func(ctx context.Context, args ...string) error {
		ran = true
		return nil
	})
	defer Unregister("testregistryjob")

	jobs := Jobs(nil)
	j, ok := jobs["testregistryjob"]
	if !ok {
		t.Fatal("testregistryjob not in Jobs()")
	}
	if j.Schedule != "@every 1h" {
		t.Errorf("Schedule = %q, want @every 1h", j.Schedule)
	}
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ran {
		t.Error("Run did not execute")
	}
}

func TestRegistry_RegisteredOverridesBuiltin(t *testing.T) {
	Register("shared", "@daily", func(context.Context, ...string) error { return nil })
	defer Unregister("shared")

	builtin := map[string]Job{
		"shared": {Schedule: "@hourly"},
		"other":  {Schedule: "@weekly"},
	}
	jobs := Jobs(builtin)
	if jobs["shared"].Schedule != "@daily" {
		t.Errorf("shared schedule = %q, want @daily", jobs["shared"].Schedule)
	}
	if jobs["other"].Schedule != "@weekly" {
		t.Errorf("builtin job missing: %v", jobs)
	}
}

func TestRegistry_Register_DuplicatePanics(t *testing.T) {
	Register("dupjob", "@hourly", func(context.Context, ...string) error { return nil })
	defer Unregister("dupjob")
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate")
		}
	}()
	Register("dupjob", "@daily", func(context.Context, ...string) error { return nil })
}
