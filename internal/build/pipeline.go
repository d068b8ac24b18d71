package build

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/assetpipe/internal/assets"
	"git.home.luguber.info/inful/assetpipe/internal/config"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
	"git.home.luguber.info/inful/assetpipe/internal/taskgraph"
	"git.home.luguber.info/inful/assetpipe/internal/transform"
)

const cleanTask = "clean"

// Pipeline is the standard implementation of BuildService. A Pipeline runs
// once; construct a new one per build.
type Pipeline struct {
	cfg       *config.Config
	recorder  metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
	overrides map[transform.Category]assets.Transformer

	mu          sync.Mutex
	state       State
	transitions []State
	buildID     string
	report      *report
}

var _ BuildService = (*Pipeline)(nil)

// NewPipeline creates a Pipeline for cfg with the default transformers.
func NewPipeline(cfg *config.Config) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		recorder:    metrics.NoopRecorder{},
		logger:      slog.Default(),
		now:         time.Now,
		overrides:   map[transform.Category]assets.Transformer{},
		state:       StateIdle,
		transitions: []State{StateIdle},
	}
}

// WithRecorder sets the metrics recorder.
func (p *Pipeline) WithRecorder(r metrics.Recorder) *Pipeline {
	if r != nil {
		p.recorder = r
	}
	return p
}

// WithLogger sets the logger.
func (p *Pipeline) WithLogger(l *slog.Logger) *Pipeline {
	if l != nil {
		p.logger = l
	}
	return p
}

// WithClock sets the source of the build timestamp exposed to pages as date.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	if now != nil {
		p.now = now
	}
	return p
}

// WithTransformer replaces the transformer of one category (for testing).
func (p *Pipeline) WithTransformer(c transform.Category, tr assets.Transformer) *Pipeline {
	p.overrides[c] = tr
	return p
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Transitions returns every state the pipeline has been in, in order.
func (p *Pipeline) Transitions() []State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]State(nil), p.transitions...)
}

// BuildID returns the identifier of the current run, empty before Run.
func (p *Pipeline) BuildID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buildID
}

// Run executes the build: clean, then the compile group and the extra copy
// concurrently.
func (p *Pipeline) Run(ctx context.Context) (*BuildResult, error) {
	p.mu.Lock()
	if p.state != StateIdle {
		st := p.state
		p.mu.Unlock()
		return nil, foundationerrors.BuildError("pipeline already run").
			WithContext("state", string(st)).
			Build()
	}
	p.buildID = uuid.NewString()
	p.mu.Unlock()

	startTime := time.Now()
	result := &BuildResult{
		BuildID:    p.buildID,
		StartTime:  startTime,
		OutputPath: p.cfg.OutputDir(),
	}
	log := p.logger.With(logfields.BuildID(p.buildID))
	log.Info("Build started", logfields.Output(result.OutputPath))

	graph, err := p.graph(p.now())
	if err == nil {
		err = taskgraph.NewRunner(taskgraph.WithObserver(p), taskgraph.WithLogger(log)).Run(ctx, graph)
	}

	if err == nil {
		p.transition(StateDone)
		result.Status = BuildStatusSuccess
	} else {
		p.transition(StateFailed)
		result.Status = BuildStatusFailed
	}
	if p.report != nil {
		p.report.fill(result)
	}
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	for _, c := range result.Collisions {
		log.Warn("Output written by more than one task", logfields.Path(c))
	}
	p.recorder.ObserveBuildDuration(result.Duration)
	if result.Status.IsSuccess() {
		p.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
		log.Info("Build finished",
			logfields.Files(result.FilesProcessed),
			logfields.Duration(result.Duration))
		return result, nil
	}
	p.recorder.IncBuildOutcome(metrics.OutcomeFailed)
	log.Error("Build failed", logfields.Duration(result.Duration), logfields.Error(err))
	return result, err
}

// graph assembles seq(clean, all(compile=all(style, script, page, image, font), extra)).
func (p *Pipeline) graph(date time.Time) (*taskgraph.Node, error) {
	pkg, err := transform.LoadPackageMetadata(p.cfg.PackageFile())
	if err != nil {
		return nil, err
	}
	env := transform.NewEnv(p.cfg.SourceDir(), p.cfg.Sass.Binary, pkg, date, p.cfg.Data)

	names := []string{cleanTask}
	compile := make([]*taskgraph.Node, 0, len(compileSpecs))
	for _, spec := range compileSpecs {
		compile = append(compile, p.leaf(spec, env))
		names = append(names, string(spec.category))
	}
	extra := p.leaf(extraSpec, env)
	names = append(names, string(extraSpec.category))

	p.mu.Lock()
	p.report = newReport(names)
	p.mu.Unlock()

	outputDir := p.cfg.OutputDir()
	clean := taskgraph.Leaf(cleanTask, func(context.Context) error {
		return assets.Clean(outputDir)
	})
	return taskgraph.Seq("build",
		clean,
		taskgraph.All("outputs",
			taskgraph.All("compile", compile...),
			extra,
		),
	), nil
}

func (p *Pipeline) leaf(spec taskSpec, env transform.Env) *taskgraph.Node {
	tr, ok := p.overrides[spec.category]
	if !ok {
		tr = transform.Registry[spec.category](env)
	}
	task := newTask(p.cfg, spec, tr)
	return taskgraph.Leaf(task.Name, func(ctx context.Context) error {
		res, err := task.Run(ctx)
		p.report.recordFiles(task.Name, res)
		p.recorder.AddFilesWritten(task.Name, res.Files)
		return err
	})
}

// OnTaskStart implements taskgraph.Observer.
func (p *Pipeline) OnTaskStart(name string) {
	if name == cleanTask {
		p.transition(StateCleaning)
	}
}

// OnTaskComplete implements taskgraph.Observer.
func (p *Pipeline) OnTaskComplete(name string, d time.Duration, err error) {
	p.report.recordCompletion(name, d, err)
	p.recorder.ObserveTaskDuration(name, d)
	if err != nil {
		p.recorder.IncTaskResult(name, metrics.ResultFailed)
	} else {
		p.recorder.IncTaskResult(name, metrics.ResultSuccess)
	}

	if name != cleanTask {
		return
	}
	if err != nil {
		p.transition(StateFailed)
		return
	}
	p.transition(StateCompiling)
}

func (p *Pipeline) transition(to State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	from := p.state
	if from == to {
		return
	}
	if !isAllowedTransition(from, to) {
		p.logger.Error("Ignoring pipeline transition",
			logfields.BuildID(p.buildID), logfields.Error(transitionError(from, to)))
		return
	}
	p.state = to
	p.transitions = append(p.transitions, to)
	p.logger.Info("Pipeline state changed",
		logfields.BuildID(p.buildID),
		slog.String("from", string(from)),
		logfields.State(string(to)))
}
