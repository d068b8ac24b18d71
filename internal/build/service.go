package build

import (
	"context"
	"time"
)

// BuildService is the interface the CLI drives; tests substitute their own.
type BuildService interface {
	// Run executes clean, then the compile group and the extra copy concurrently.
	Run(ctx context.Context) (*BuildResult, error)
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	// BuildID identifies the run in logs and metrics.
	BuildID string

	// Status indicates overall build outcome.
	Status BuildStatus

	// OutputPath is the output root.
	OutputPath string

	// Tasks holds per-task outcomes in graph order.
	Tasks []TaskResult

	// FilesProcessed is the number of output files written.
	FilesProcessed int

	// Collisions lists output paths written by more than one task.
	Collisions []string

	// Duration is the total build execution time.
	Duration time.Duration

	StartTime time.Time
	EndTime   time.Time
}

// TaskResult is the outcome of one leaf task.
type TaskResult struct {
	Name     string
	Files    int
	Outputs  []string
	Duration time.Duration
	Err      error
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	BuildStatusSuccess BuildStatus = "success"
	BuildStatusFailed  BuildStatus = "failed"
)

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}

// Task returns the result of the named task.
func (r *BuildResult) Task(name string) (TaskResult, bool) {
	for _, t := range r.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return TaskResult{}, false
}
