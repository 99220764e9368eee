package runner

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"assetkit/internal/domain"
	"assetkit/internal/infra"
	"assetkit/internal/pipeline"
)

// Pipeline is the slice of the orchestrator the runner drives.
type Pipeline interface {
	Run(ctx context.Context, request domain.AssetRequest, sink pipeline.Sink) (*domain.AssetManifest, error)
}

// Factory builds a fresh pipeline for each run. Pipelines own per-run
// resources (the headless browser), so they are never reused.
type Factory func() (Pipeline, error)

// Recorder persists run history. Implementations must tolerate being called
// with a terminal state exactly once per run.
type Recorder interface {
	RunStarted(ctx context.Context, state domain.PipelineState)
	RunFinished(ctx context.Context, state domain.PipelineState)
}

// Runner serializes pipeline execution: at most one run is in flight per
// process. Extra submissions fail fast with domain.ErrBusy.
type Runner struct {
	factory  Factory
	recorder Recorder
	logger   zerolog.Logger

	mu      sync.Mutex
	busy    bool
	current *domain.PipelineState
}

func New(factory Factory, recorder Recorder, logger *infra.Logger) *Runner {
	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}
	return &Runner{factory: factory, recorder: recorder, logger: log}
}

// Busy reports whether a run is currently in flight.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// Current returns a snapshot of the most recent run's state, or false when no
// run has happened yet.
func (r *Runner) Current() (domain.PipelineState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return domain.PipelineState{}, false
	}
	return r.current.Snapshot(), true
}

// Admission is an exclusive claim on the runner, taken before a run starts so
// a transport can acknowledge the submission and execute it afterwards. Run
// must be called exactly once; the claim is released when Run returns.
type Admission struct {
	r *Runner
}

// Begin claims the runner for one run. It fails fast with domain.ErrBusy when
// a run is already in flight, so the caller's accept/reject decision and the
// admission happen atomically.
func (r *Runner) Begin() (*Admission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy {
		return nil, domain.ErrBusy
	}
	r.busy = true
	return &Admission{r: r}, nil
}

// Run executes the admitted run and blocks until it finishes.
func (ad *Admission) Run(ctx context.Context, request domain.AssetRequest, sink pipeline.Sink) (*domain.AssetManifest, error) {
	r := ad.r
	defer func() {
		r.mu.Lock()
		r.busy = false
		r.mu.Unlock()
	}()

	p, err := r.factory()
	if err != nil {
		return nil, err
	}

	if sink == nil {
		sink = pipeline.NopSink{}
	}
	tracked := pipeline.SinkFunc(func(state domain.PipelineState) {
		r.observe(ctx, state)
		sink.Publish(state)
	})

	manifest, err := p.Run(ctx, request, tracked)
	if err != nil {
		r.logger.Error().Err(err).Msg("run failed")
		return nil, err
	}
	return manifest, nil
}

// Submit claims the runner and runs to completion in one call. A second
// submission while one is in flight returns domain.ErrBusy without side
// effects.
func (r *Runner) Submit(ctx context.Context, request domain.AssetRequest, sink pipeline.Sink) (*domain.AssetManifest, error) {
	ad, err := r.Begin()
	if err != nil {
		return nil, err
	}
	return ad.Run(ctx, request, sink)
}

func (r *Runner) observe(ctx context.Context, state domain.PipelineState) {
	r.mu.Lock()
	first := r.current == nil || r.current.ID != state.ID
	r.current = &state
	r.mu.Unlock()

	if r.recorder == nil {
		return
	}
	if first {
		r.recorder.RunStarted(ctx, state)
	}
	if state.Status.Terminal() {
		r.recorder.RunFinished(ctx, state)
	}
}
