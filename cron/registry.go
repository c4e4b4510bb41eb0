package cron

import (
	"context"
	"sort"
	"sync"

	"launcher.GO/core/registry"
)

// Job holds a schedule and the function it triggers.
type Job struct {
	Schedule string
	Run      func(ctx context.Context, args ...string) error
}

var mu sync.Mutex

// Register adds a cron job. Call from init() in extension packages. Panics if registry is locked.
func Register(name string, schedule string, run func(ctx context.Context, args ...string) error) {
	mu.Lock()
	defer mu.Unlock()
	if registry.GlobalRegistry.IsLocked(registry.KeyRegistryCron) {
		panic("cron/registry: locked (register only during init before StartCron)")
	}
	jobs := getJobs()
	if _, ok := jobs[name]; ok {
		panic("cron/registry: duplicate job " + name)
	}
	jobs[name] = Job{Schedule: schedule, Run: run}
	registry.GlobalRegistry.SetGlobal(registry.KeyRegistryCron, jobs)
}

// Unregister removes a job (for tests).
func Unregister(name string) {
	mu.Lock()
	defer mu.Unlock()
	registry.GlobalRegistry.UnlockForTesting(registry.KeyRegistryCron)
	jobs := getJobs()
	delete(jobs, name)
	registry.GlobalRegistry.SetGlobal(registry.KeyRegistryCron, jobs)
}

func getJobs() map[string]Job {
	if v, ok := registry.GlobalRegistry.GetGlobal(registry.KeyRegistryCron); ok && v != nil {
		return v.(map[string]Job)
	}
	return make(map[string]Job)
}

// Jobs returns the registered jobs merged over builtin; a registered job
// with a builtin's name wins. Locks the cron registry on first call.
func Jobs(builtin map[string]Job) map[string]Job {
	out := make(map[string]Job, len(builtin))
	for k, v := range builtin {
		out[k] = v
	}
	for k, v := range getJobs() {
		out[k] = v
	}
	if !registry.GlobalRegistry.IsLocked(registry.KeyRegistryCron) {
		registry.GlobalRegistry.Lock(registry.KeyRegistryCron)
	}
	return out
}

// Names returns the job names of m, sorted.
func Names(m map[string]Job) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
