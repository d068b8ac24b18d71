package metrics

import "time"

// ResultLabel enumerates task result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// Build outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Recorder defines observability hooks for builds, tasks and live reload.
// Implementations must be safe for concurrent use: tasks of a parallel group
// record from their own goroutines.
type Recorder interface {
	ObserveTaskDuration(task string, d time.Duration)
	IncTaskResult(task string, result ResultLabel)
	AddFilesWritten(task string, n int)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string)
	IncReloadBroadcast()
	IncReloadConnection()
	SetReloadClients(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveTaskDuration(string, time.Duration) {}
func (NoopRecorder) IncTaskResult(string, ResultLabel)         {}
func (NoopRecorder) AddFilesWritten(string, int)               {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)        {}
func (NoopRecorder) IncBuildOutcome(string)                    {}
func (NoopRecorder) IncReloadBroadcast()                       {}
func (NoopRecorder) IncReloadConnection()                      {}
func (NoopRecorder) SetReloadClients(int)                      {}
