package profiling

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNoData is returned when statistics are requested before a capture
// has completed, or from a disabled Profiler.
var ErrNoData = errors.New("no profiling data available")

// State is the capture lifecycle of a Profiler.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateCapturing:
		return "capturing"
	case StateFinalized:
		return "finalized"
	default:
		return "idle"
	}
}

// Profiler captures call statistics for tracked functions between Start
// and Stop. A Profiler must only be driven from one goroutine.
type Profiler struct {
	opts   Options
	logger *logrus.Logger
	now    func() time.Time

	state  State
	tracer *tracer
	start  time.Time
	stats  *Stats
}

type ctxKey struct{}

// New creates a Profiler. A zero TS is treated as 1.
func New(opts Options, logger *logrus.Logger) *Profiler {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	if opts.TS == 0 {
		opts.TS = 1
	}
	return &Profiler{
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Options returns the profiler configuration.
func (p *Profiler) Options() Options {
	return p.opts
}

// State returns the current lifecycle state.
func (p *Profiler) State() State {
	return p.state
}

// Start begins a capture and returns ctx carrying the profiler for Track.
// When disabled it returns ctx unchanged.
func (p *Profiler) Start(ctx context.Context) context.Context {
	if !p.opts.Enabled {
		return ctx
	}
	p.tracer = newTracer(p.now)
	p.start = p.now()
	p.state = StateCapturing
	p.logger.WithFields(logrus.Fields{
		"sort": p.opts.Sort,
		"rank": p.opts.Rank,
		"frac": p.opts.Frac,
	}).Debug("Profiling started")
	return context.WithValue(ctx, ctxKey{}, p)
}

// Stop ends the capture. When enabled it writes the raw profile to
// Options.File if set, freezes the statistics and prints the top
// EffectiveLimit entries. It is a no-op when disabled or not capturing.
//
// On a dump or sort failure the error is returned and no statistics are
// kept.
func (p *Profiler) Stop() error {
	if !p.opts.Enabled || p.state != StateCapturing {
		return nil
	}
	t := p.tracer
	t.unwind()
	dur := p.now().Sub(p.start)
	p.tracer = nil
	p.state = StateIdle

	if p.opts.File != "" {
		if err := p.dump(t, dur); err != nil {
			return err
		}
	}

	stats, err := newStats(t, p.start, dur, p.opts.Sort)
	if err != nil {
		return err
	}
	p.stats = stats
	p.state = StateFinalized

	limit := EffectiveLimit(p.opts.Rank, p.opts.Frac, len(stats.Funcs))
	p.logger.WithFields(logrus.Fields{
		"functions": len(stats.Funcs),
		"limit":     limit,
		"duration":  dur,
	}).Debug("Profiling stopped")

	return PrintStats(p.opts.output(), stats, limit)
}

func (p *Profiler) dump(t *tracer, dur time.Duration) error {
	f, err := os.Create(p.opts.File)
	if err != nil {
		return fmt.Errorf("cannot create profile file: %w", err)
	}
	defer f.Close()

	prof := buildProfile(t.funcs, t.order, t.stacks, p.start, dur)
	if err := prof.Write(f); err != nil {
		return fmt.Errorf("cannot write profile: %w", err)
	}
	p.logger.WithField("file", p.opts.File).Debug("Profile written")
	return nil
}

// Run calls fn inside a capture. Stop runs on every exit path; a panic
// in fn is re-raised after Stop. fn's error takes precedence over Stop's.
func (p *Profiler) Run(ctx context.Context, fn func(context.Context) error) (err error) {
	ctx = p.Start(ctx)
	defer func() {
		if r := recover(); r != nil {
			_ = p.Stop()
			panic(r)
		}
		if stopErr := p.Stop(); err == nil {
			err = stopErr
		}
	}()
	return fn(ctx)
}

// Wrap returns fn wrapped in Run.
func (p *Profiler) Wrap(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		return p.Run(ctx, fn)
	}
}

// Stats returns the frozen statistics, or nil before a completed capture.
func (p *Profiler) Stats() *Stats {
	return p.stats
}

// Enter records entry into the calling function and returns the matching
// exit hook. Typical use is `defer p.Enter()()`.
func (p *Profiler) Enter() func() {
	return p.enter(2)
}

func (p *Profiler) enter(skip int) func() {
	if p == nil || p.state != StateCapturing {
		return noop
	}
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return noop
	}
	t := p.tracer
	t.enter(t.resolve(pc))
	return func() {
		if p.tracer == t {
			t.exit()
		}
	}
}

func noop() {}

// FromContext returns the profiler carried by ctx, or nil.
func FromContext(ctx context.Context) *Profiler {
	p, _ := ctx.Value(ctxKey{}).(*Profiler)
	return p
}

// Track records entry into the calling function on the profiler carried
// by ctx and returns the exit hook. It is a no-op without one.
func Track(ctx context.Context) func() {
	return FromContext(ctx).enter(2)
}
