package sim

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// Runner steps a Sim at a fixed simulated rate and fans every report out to
// subscribers.
type Runner struct {
	sim      *Sim
	dt       float64
	duration float64
	limiter  *rate.Limiter
	log      *slog.Logger

	mu     sync.Mutex
	subs   map[int]chan Report
	nextID int
}

type RunnerOption func(*Runner)

// WithDuration stops Run once the simulation clock reaches d seconds.
func WithDuration(d float64) RunnerOption {
	return func(r *Runner) { r.duration = d }
}

// Unpaced steps as fast as possible instead of in real time.
func Unpaced() RunnerOption {
	return func(r *Runner) { r.limiter = nil }
}

func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRunner creates a runner taking tickRate steps of 1/tickRate seconds
// per wall-clock second.
func NewRunner(s *Sim, tickRate float64, opts ...RunnerOption) *Runner {
	if tickRate <= 0 {
		tickRate = 20
	}
	r := &Runner{
		sim:     s,
		dt:      1 / tickRate,
		limiter: rate.NewLimiter(rate.Limit(tickRate), 1),
		log:     slog.Default(),
		subs:    make(map[int]chan Report),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Sim() *Sim   { return r.sim }
func (r *Runner) Dt() float64 { return r.dt }

// Run blocks until ctx is cancelled or the configured duration elapses.
// Cancellation is a clean stop and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("simulation started", "scenario", r.sim.Name(), "dt", r.dt, "duration", r.duration)
	defer r.closeAll()
	for {
		if err := r.wait(ctx); err != nil {
			if ctx.Err() != nil {
				r.log.Info("simulation stopped", "time", r.sim.Now())
				return nil
			}
			return err
		}
		rep := r.sim.Step(ctx, r.dt)
		r.publish(rep)
		if r.duration > 0 && rep.Time >= r.duration-r.dt/2 {
			r.log.Info("scenario finished", "scenario", r.sim.Name(), "time", rep.Time, "ticks", rep.Tick)
			return nil
		}
	}
}

func (r *Runner) wait(ctx context.Context) error {
	if r.limiter == nil {
		return ctx.Err()
	}
	return r.limiter.Wait(ctx)
}

// Subscribe returns a channel receiving every report from now on and a
// function that unsubscribes. Slow subscribers miss reports rather than
// stall the simulation.
func (r *Runner) Subscribe(buffer int) (<-chan Report, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Report, buffer)
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = ch
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if c, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(c)
			}
		})
	}
}

func (r *Runner) publish(rep Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ch := range r.subs {
		select {
		case ch <- rep:
		default:
			r.log.Debug("subscriber lagging, report dropped", "subscriber", id, "tick", rep.Tick)
		}
	}
}

func (r *Runner) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}
