// Package sim builds an arena and its scripted actors from a scenario and
// steps them together.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/arena"
	"github.com/nstehr/hive/behavior"
	"github.com/nstehr/hive/config"
	"github.com/nstehr/hive/model"
)

const tracerName = "github.com/nstehr/hive/sim"

// Actor is one spawned entity. Host is nil for actors without behaviors.
type Actor struct {
	Name string
	ID   model.EntityID
	Host *ai.Host
}

// Sim owns the arena, the shared throttle and every host. All methods are
// safe for concurrent use; Step and the commands serialize on one lock.
type Sim struct {
	mu       sync.Mutex
	name     string
	arena    *arena.Arena
	shared   *ai.Shared
	actors   []*Actor
	byName   map[string]*Actor
	hosts    map[model.EntityID]*ai.Host
	timeline []config.DamageEvent
	next     int
	tick     uint64
	last     Report

	seed   int64
	log    *slog.Logger
	tracer trace.Tracer
}

type Option func(*Sim)

func WithLogger(l *slog.Logger) Option {
	return func(s *Sim) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSeed seeds the arena's random rolls.
func WithSeed(seed int64) Option {
	return func(s *Sim) { s.seed = seed }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Sim) {
		if t != nil {
			s.tracer = t
		}
	}
}

// Build spawns every actor in sc and attaches its behaviors in order.
func Build(sc *config.Scenario, opts ...Option) (*Sim, error) {
	s := &Sim{
		name:   sc.Name,
		shared: ai.NewShared(),
		byName: make(map[string]*Actor),
		hosts:  make(map[model.EntityID]*ai.Host),
		seed:   1,
		log:    slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}

	seqs, err := sequences(sc.Arena.Sequences)
	if err != nil {
		return nil, err
	}
	vols, err := volleys(sc.Arena.Volleys)
	if err != nil {
		return nil, err
	}
	s.arena = arena.New(sc.Arena.Grid(),
		arena.WithSeed(s.seed),
		arena.WithGravity(sc.Arena.Gravity),
		arena.WithDamageScale(sc.Arena.DamageScale),
		arena.WithSequences(seqs),
		arena.WithVolleys(vols),
		arena.WithLogger(s.log),
	)
	s.arena.Listen(s)

	for i, ac := range sc.Actors {
		if err := s.spawn(ac); err != nil {
			return nil, fmt.Errorf("actor %d: %w", i, err)
		}
	}

	s.timeline = append([]config.DamageEvent(nil), sc.Damage...)
	sort.SliceStable(s.timeline, func(i, j int) bool { return s.timeline[i].At < s.timeline[j].At })

	s.last = s.report()
	s.log.Info("scenario built", "scenario", sc.Name, "actors", len(s.actors), "hosts", len(s.hosts))
	return s, nil
}

func sequences(in map[string]config.SequenceConfig) (map[model.Activity]arena.Sequence, error) {
	out := make(map[model.Activity]arena.Sequence, len(in))
	for name, sc := range in {
		if sc.Duration < 0 {
			return nil, fmt.Errorf("sequence %s: negative duration", name)
		}
		seq := arena.Sequence{Duration: sc.Duration, Speed: sc.Speed}
		for ev, at := range sc.Markers {
			seq.Markers = append(seq.Markers, arena.Marker{At: at, Event: model.AnimEvent(ev)})
		}
		sort.Slice(seq.Markers, func(i, j int) bool { return seq.Markers[i].At < seq.Markers[j].At })
		out[model.Activity(name)] = seq
	}
	return out, nil
}

func volleys(in map[string]config.VolleyConfig) (map[string]arena.Volley, error) {
	out := make(map[string]arena.Volley, len(in))
	for name, vc := range in {
		types, err := model.ParseDamageType(vc.Types)
		if err != nil {
			return nil, fmt.Errorf("volley %s: %w", name, err)
		}
		out[name] = arena.Volley{
			Speed:    vc.Speed,
			Damage:   vc.Damage,
			Splash:   vc.Splash,
			Types:    types,
			Lifetime: vc.Lifetime,
		}
	}
	return out, nil
}

type volleySetter interface {
	SetVolley(string)
}

func (s *Sim) spawn(ac config.ActorConfig) error {
	class, ok := model.ParseClass(ac.Class)
	if !ok {
		return fmt.Errorf("unknown class %q", ac.Class)
	}
	id := s.arena.Spawn(model.Entity{
		Class:     class,
		Team:      ac.Team,
		Pos:       ac.Pos,
		Yaw:       model.NormalizeAngle(ac.Yaw),
		Radius:    ac.Radius,
		Height:    ac.Height,
		Mass:      ac.Mass,
		Static:    ac.Static,
		Health:    ac.Health,
		MaxHealth: ac.Health,
	})
	name := ac.Name
	if name == "" {
		name = fmt.Sprintf("%s-%d", class, id)
	}
	if _, dup := s.byName[name]; dup {
		return fmt.Errorf("duplicate actor name %q", name)
	}
	for _, m := range ac.Missing {
		s.arena.RemoveSequence(id, model.Activity(m))
	}
	a := &Actor{Name: name, ID: id}
	s.actors = append(s.actors, a)
	s.byName[name] = a

	if len(ac.Behaviors) == 0 {
		return nil
	}

	log := s.log.With("name", name)
	h := ai.NewHost(id, class, s.arena, s.shared,
		ai.WithLogger(log),
		ai.WithTransitionHook(func(old, cur ai.Behavior) {
			log.Debug("behavior changed", "from", behaviorName(old), "to", behaviorName(cur))
		}),
	)
	for k, v := range ac.Params {
		h.AddParam(k, v)
	}
	for _, bc := range ac.Behaviors {
		b, err := behavior.New(bc.Kind, bc.Name, bc.Params, log)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if bc.Volley != "" {
			vs, ok := b.(volleySetter)
			if !ok {
				return fmt.Errorf("%s: behavior %s does not fire volleys", name, b.Name())
			}
			vs.SetVolley(bc.Volley)
		}
		var bopts []ai.BehaviorOption
		if bc.When != "" {
			g, err := ai.CompileGuard(bc.When)
			if err != nil {
				return fmt.Errorf("%s: behavior %s: %w", name, b.Name(), err)
			}
			bopts = append(bopts, ai.WithGuard(g))
		}
		if err := h.AddBehavior(b, bopts...); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	a.Host = h
	s.hosts[id] = h
	return nil
}

func behaviorName(b ai.Behavior) string {
	if b == nil {
		return ""
	}
	return b.Name()
}

func (s *Sim) Name() string        { return s.name }
func (s *Sim) Arena() *arena.Arena { return s.arena }
func (s *Sim) Shared() *ai.Shared  { return s.shared }
func (s *Sim) Actors() []*Actor    { return s.actors }

// Actor looks an actor up by name.
func (s *Sim) Actor(name string) (*Actor, bool) {
	a, ok := s.byName[name]
	return a, ok
}

// Now returns the simulation clock.
func (s *Sim) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arena.Now()
}

// Last returns the most recent report.
func (s *Sim) Last() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Step applies due scripted damage, advances the world by dt and then ticks
// every host in ID order.
func (s *Sim) Step(ctx context.Context, dt float64) Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, span := s.tracer.Start(ctx, "sim.step", trace.WithAttributes(
		attribute.Int64("sim.tick", int64(s.tick+1)),
	))
	defer span.End()

	for s.next < len(s.timeline) && s.timeline[s.next].At <= s.arena.Now() {
		ev := s.timeline[s.next]
		s.next++
		if err := s.damage(ev); err != nil {
			s.log.Warn("scripted damage skipped", "at", ev.At, "target", ev.Target, "error", err)
		}
	}

	s.arena.Step(dt)
	now := s.arena.Now()
	for _, a := range s.actors {
		if a.Host == nil {
			continue
		}
		prev := a.Host.LastError()
		a.Host.Tick(now)
		if err := a.Host.LastError(); err != nil && err != prev {
			span.AddEvent("task failed", trace.WithAttributes(
				attribute.String("actor", a.Name),
				attribute.String("error", err.Error()),
			))
		}
	}
	s.tick++
	s.last = s.report()

	active := 0
	for _, ar := range s.last.Actors {
		if ar.Active != "" {
			active++
		}
	}
	span.SetAttributes(
		attribute.Float64("sim.time", now),
		attribute.Int("sim.active", active),
	)
	return s.last
}

// Damage applies a blow to the named target, as if dealt by attacker.
func (s *Sim) Damage(ev config.DamageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.damage(ev)
}

func (s *Sim) damage(ev config.DamageEvent) error {
	target, ok := s.byName[ev.Target]
	if !ok {
		return fmt.Errorf("unknown target %q", ev.Target)
	}
	types, err := model.ParseDamageType(ev.Types)
	if err != nil {
		return err
	}
	info := model.DamageInfo{
		Amount:  ev.Amount,
		Types:   types,
		Stumble: ev.Stumble,
	}
	if ev.Attacker != "" {
		attacker, ok := s.byName[ev.Attacker]
		if !ok {
			return fmt.Errorf("unknown attacker %q", ev.Attacker)
		}
		if e, ok := s.arena.Entity(attacker.ID); ok {
			info.Attacker = e.ID
			info.AttackerClass = e.Class
			info.AttackerPos = e.Pos
		}
	}
	s.arena.ApplyDamage(target.ID, info)
	return nil
}

// ForcePounce orders actor to leap at target on its next tick.
func (s *Sim) ForcePounce(actor, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byName[actor]
	if !ok || a.Host == nil {
		return fmt.Errorf("unknown scripted actor %q", actor)
	}
	t, ok := s.byName[target]
	if !ok {
		return fmt.Errorf("unknown target %q", target)
	}
	if !behavior.ForcePounce(a.Host, t.ID) {
		return fmt.Errorf("actor %q cannot pounce", actor)
	}
	return nil
}

// SetParam changes a host parameter.
func (s *Sim) SetParam(actor, name string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byName[actor]
	if !ok || a.Host == nil {
		return fmt.Errorf("unknown scripted actor %q", actor)
	}
	return a.Host.SetParam(name, value)
}

// OnTouch, OnAnimEvent and OnDamage route arena events to the hosts.

func (s *Sim) OnTouch(self, other model.EntityID) {
	if h, ok := s.hosts[self]; ok {
		h.HandleTouch(other)
	}
}

func (s *Sim) OnAnimEvent(self model.EntityID, ev model.AnimEvent) {
	if h, ok := s.hosts[self]; ok {
		h.HandleAnimEvent(ev)
	}
}

func (s *Sim) OnDamage(target model.EntityID, info model.DamageInfo) {
	if h, ok := s.hosts[target]; ok {
		h.TakeDamage(info)
	}
}
