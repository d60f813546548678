package render

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
	"github.com/Fepozopo/tokenmaker/pkg/pipeline"
)

// DefaultTickInterval is how often Run polls the workspace.
const DefaultTickInterval = 50 * time.Millisecond

// Status is the state of a Scheduler.
type Status int

const (
	Idle Status = iota
	Busy
)

func (s Status) String() string {
	if s == Busy {
		return "busy"
	}
	return "idle"
}

// Result describes a finished render job.
type Result struct {
	Job     uint64
	Image   *image.NRGBA
	Err     error
	Elapsed time.Duration
}

// Scheduler renders a workspace whenever it is dirty, with at most one job in flight.
type Scheduler struct {
	ws         *Workspace
	interval   time.Duration
	bandRows   int
	logger     *slog.Logger
	onComplete func(Result)
	execute    func(pipeline.Chain, int) (*image.NRGBA, error)

	busy atomic.Bool
	jobs atomic.Uint64
	wg   sync.WaitGroup

	mu      sync.Mutex
	latest  *image.NRGBA
	lastErr error
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the polling interval used by Run.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithBandRows sets the band height used by the resampler.
func WithBandRows(rows int) Option {
	return func(s *Scheduler) {
		if rows > 0 {
			s.bandRows = rows
		}
	}
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOnComplete registers a callback invoked after every job, from the job's goroutine,
// once the scheduler is idle again.
func WithOnComplete(fn func(Result)) Option {
	return func(s *Scheduler) { s.onComplete = fn }
}

// NewScheduler returns an idle scheduler for ws.
func NewScheduler(ws *Workspace, opts ...Option) *Scheduler {
	s := &Scheduler{
		ws:       ws,
		interval: DefaultTickInterval,
		bandRows: imgops.DefaultBandRows,
		logger:   slog.Default(),
		execute:  pipeline.ExecuteBands,
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("workspace_id", ws.ID.String())
	return s
}

// Tick starts a render job if the scheduler is idle and the workspace is dirty. It never
// blocks on a running job and reports whether a job was started.
func (s *Scheduler) Tick() bool {
	if !s.busy.CompareAndSwap(false, true) {
		return false
	}
	chain, ok, err := s.ws.Snapshot()
	if !ok {
		s.busy.Store(false)
		return false
	}
	job := s.jobs.Add(1)
	if err != nil {
		s.logger.Error("Failed to build render chain", "job", job, "error", err)
		s.finish(Result{Job: job, Err: err})
		return false
	}

	s.logger.Debug("Dispatching render", "job", job, "chain", chain.String())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		start := time.Now()
		img, err := s.execute(chain, s.bandRows)
		elapsed := time.Since(start)
		if err != nil {
			s.logger.Error("Render failed", "job", job, "elapsed", elapsed, "error", err)
		} else {
			s.logger.Debug("Render complete", "job", job, "elapsed", elapsed)
		}
		s.finish(Result{Job: job, Image: img, Err: err, Elapsed: elapsed})
	}()
	return true
}

// finish stores the result, returns to Idle and notifies the callback.
func (s *Scheduler) finish(r Result) {
	s.mu.Lock()
	if r.Err == nil {
		s.latest = r.Image
	}
	s.lastErr = r.Err
	s.mu.Unlock()
	s.busy.Store(false)
	if s.onComplete != nil {
		s.onComplete(r)
	}
}

// Run calls Tick every interval until ctx is done. A job in flight when ctx ends is not
// cancelled; use Wait to block until it finishes.
func (s *Scheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	s.Tick()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.Tick()
		}
	}
}

// Wait blocks until no job is in flight.
func (s *Scheduler) Wait() { s.wg.Wait() }

// Status reports whether a job is in flight.
func (s *Scheduler) Status() Status {
	if s.busy.Load() {
		return Busy
	}
	return Idle
}

// Latest returns the most recent successful render, or nil.
func (s *Scheduler) Latest() *image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Err returns the error of the most recent job, or nil if it succeeded.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Dirty reports whether the workspace has changes not yet picked up by a job.
func (s *Scheduler) Dirty() bool { return s.ws.Dirty() }
