package build

import (
	"sort"
	"sync"
	"time"

	"git.home.luguber.info/inful/assetpipe/internal/assets"
)

// report collects task outcomes from concurrently running leaves.
type report struct {
	mu    sync.Mutex
	order []string
	tasks map[string]*TaskResult
}

func newReport(names []string) *report {
	r := &report{order: names, tasks: make(map[string]*TaskResult, len(names))}
	for _, n := range names {
		r.tasks[n] = &TaskResult{Name: n}
	}
	return r
}

func (r *report) recordFiles(name string, res assets.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.tasks[name]
	t.Files = res.Files
	t.Outputs = res.Outputs
}

func (r *report) recordCompletion(name string, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.tasks[name]
	t.Duration = d
	t.Err = err
}

// fill copies the collected outcomes into res.
func (r *report) fill(res *BuildResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	writers := map[string]int{}
	for _, n := range r.order {
		t := *r.tasks[n]
		res.Tasks = append(res.Tasks, t)
		res.FilesProcessed += t.Files
		for _, o := range t.Outputs {
			writers[o]++
		}
	}
	for p, n := range writers {
		if n > 1 {
			res.Collisions = append(res.Collisions, p)
		}
	}
	sort.Strings(res.Collisions)
}
