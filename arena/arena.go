// Package arena is an in-memory world: sphere-hull traces against a grid
// floor plan, gravity, simple perception, animation timing and damage
// bookkeeping. It satisfies ai.World for every actor it holds.
package arena

import (
	"log/slog"
	"math/rand"
	"sort"

	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/model"
)

const (
	DefaultGravity  = 800.0
	memoryLifetime  = 10.0 // seconds a lost enemy is remembered
	knockdownTime   = 1.5
	floorTolerance  = 0.01
	defaultEyeRatio = 0.75
)

type body struct {
	model.Entity
	activity     model.Activity
	actStarted   float64
	firedMarkers int
	gestures     []model.Activity
	missing      map[model.Activity]bool
	enemy        model.EntityID
	memories     map[model.EntityID]model.Memory
	perceives    bool
}

// Listener receives world events the hosts need to see.
type Listener interface {
	OnTouch(self, other model.EntityID)
	OnAnimEvent(self model.EntityID, ev model.AnimEvent)
	OnDamage(target model.EntityID, info model.DamageInfo)
}

// Arena implements ai.World. It is not safe for concurrent use.
type Arena struct {
	grid    *model.TerrainGrid
	bodies  map[model.EntityID]*body
	nextID  model.EntityID
	now     float64
	gravity float64
	scale   float64

	rng    *rand.Rand
	random func(lo, hi float64) float64

	sequences   map[model.Activity]Sequence
	volleys     map[string]Volley
	projectiles []*Projectile
	priorities  map[model.Class]int
	listeners   []Listener
	log         *slog.Logger
}

var _ ai.World = (*Arena)(nil)

type Option func(*Arena)

// WithSeed makes RandomFloat reproducible.
func WithSeed(seed int64) Option {
	return func(a *Arena) { a.rng = rand.New(rand.NewSource(seed)) }
}

// WithRandom replaces RandomFloat entirely.
func WithRandom(fn func(lo, hi float64) float64) Option {
	return func(a *Arena) { a.random = fn }
}

func WithGravity(g float64) Option {
	return func(a *Arena) {
		if g > 0 {
			a.gravity = g
		}
	}
}

// WithDamageScale sets the difficulty multiplier applied by attackers.
func WithDamageScale(s float64) Option {
	return func(a *Arena) {
		if s > 0 {
			a.scale = s
		}
	}
}

func WithSequences(seqs map[model.Activity]Sequence) Option {
	return func(a *Arena) {
		for k, v := range seqs {
			a.sequences[k] = v
		}
	}
}

func WithVolleys(v map[string]Volley) Option {
	return func(a *Arena) {
		for k, s := range v {
			a.volleys[k] = s
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Arena) {
		if l != nil {
			a.log = l
		}
	}
}

// New creates an arena over grid. A nil grid is an endless open floor.
func New(grid *model.TerrainGrid, opts ...Option) *Arena {
	a := &Arena{
		grid:       grid,
		bodies:     make(map[model.EntityID]*body),
		nextID:     model.WorldID + 1,
		gravity:    DefaultGravity,
		scale:      1,
		rng:        rand.New(rand.NewSource(1)),
		sequences:  DefaultSequences(),
		volleys:    DefaultVolleys(),
		priorities: map[model.Class]int{model.ClassPlayer: 10, model.ClassNeutral: 1},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Arena) Grid() *model.TerrainGrid { return a.grid }
func (a *Arena) Now() float64             { return a.now }
func (a *Arena) Gravity() float64         { return a.gravity }

// Listen registers l for touches, anim events and damage.
func (a *Arena) Listen(l Listener) {
	a.listeners = append(a.listeners, l)
}

// SetPriority sets how attractive targets of class c are.
func (a *Arena) SetPriority(c model.Class, p int) {
	a.priorities[c] = p
}

// Spawn adds e and returns its ID. A zero ID is assigned automatically.
// Alien-class entities perceive and pick enemies each step.
func (a *Arena) Spawn(e model.Entity) model.EntityID {
	if e.ID == model.NoEntity || e.ID == model.WorldID {
		e.ID = a.nextID
	}
	if e.ID >= a.nextID {
		a.nextID = e.ID + 1
	}
	if e.Pos.Z <= floorTolerance {
		e.Pos.Z = 0
		e.Grounded = true
	}
	if e.Radius <= 0 {
		e.Radius = 16
	}
	if e.Height <= 0 {
		e.Height = 2 * e.Radius
	}
	a.bodies[e.ID] = &body{
		Entity:    e,
		activity:  model.ActIdle,
		missing:   make(map[model.Activity]bool),
		memories:  make(map[model.EntityID]model.Memory),
		perceives: e.Class == model.ClassAlien,
	}
	return e.ID
}

// Remove deletes an entity.
func (a *Arena) Remove(id model.EntityID) {
	delete(a.bodies, id)
}

// IDs returns every entity ID in ascending order.
func (a *Arena) IDs() []model.EntityID {
	ids := make([]model.EntityID, 0, len(a.bodies))
	for id := range a.bodies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Entities returns snapshots of every entity in ID order.
func (a *Arena) Entities() []model.Entity {
	ids := a.IDs()
	out := make([]model.Entity, len(ids))
	for i, id := range ids {
		out[i] = a.bodies[id].Entity
	}
	return out
}

func (a *Arena) Entity(id model.EntityID) (model.Entity, bool) {
	b, ok := a.bodies[id]
	if !ok {
		return model.Entity{}, false
	}
	return b.Entity, true
}

// Move teleports an entity.
func (a *Arena) Move(id model.EntityID, pos model.Vec3) {
	if b, ok := a.bodies[id]; ok {
		b.Pos = pos
		b.Grounded = pos.Z <= floorTolerance
	}
}

// SetHealth overrides an entity's health.
func (a *Arena) SetHealth(id model.EntityID, hp float64) {
	if b, ok := a.bodies[id]; ok {
		b.Health = hp
	}
}

func (a *Arena) SetYaw(self model.EntityID, yaw float64) {
	if b, ok := a.bodies[self]; ok {
		b.Yaw = model.NormalizeAngle(yaw)
	}
}

func (a *Arena) SetVelocity(self model.EntityID, v model.Vec3) {
	if b, ok := a.bodies[self]; ok {
		b.Velocity = v
	}
}

func (a *Arena) SetGrounded(self model.EntityID, grounded bool) {
	if b, ok := a.bodies[self]; ok {
		b.Grounded = grounded
	}
}

func (a *Arena) DamageScale() float64 { return a.scale }

func (a *Arena) RandomFloat(lo, hi float64) float64 {
	if a.random != nil {
		return a.random(lo, hi)
	}
	if hi <= lo {
		return lo
	}
	return lo + a.rng.Float64()*(hi-lo)
}

func (a *Arena) Relationship(self, other model.EntityID) model.Disposition {
	s, ok1 := a.bodies[self]
	o, ok2 := a.bodies[other]
	if !ok1 || !ok2 {
		return model.Neutral
	}
	if s.Team != "" && s.Team == o.Team {
		return model.Friend
	}
	switch o.Class {
	case model.ClassPlayer, model.ClassAlien:
		if s.Class == o.Class {
			return model.Friend
		}
		return model.Hostile
	}
	return model.Neutral
}

func (a *Arena) Priority(self, other model.EntityID) int {
	o, ok := a.bodies[other]
	if !ok {
		return 0
	}
	return a.priorities[o.Class]
}

// ApplyDamage subtracts health and notifies listeners. Entities without
// health are unaffected.
func (a *Arena) ApplyDamage(target model.EntityID, info model.DamageInfo) {
	b, ok := a.bodies[target]
	if !ok || !b.Damageable() {
		return
	}
	if info.Time == 0 {
		info.Time = a.now
	}
	b.Health -= info.Amount
	if b.Health < 0 {
		b.Health = 0
	}
	a.log.Debug("damage applied",
		"target", uint32(target),
		"attacker", uint32(info.Attacker),
		"amount", info.Amount,
		"types", info.Types.String(),
		"health", b.Health,
	)
	for _, l := range a.listeners {
		l.OnDamage(target, info)
	}
}

// Knockdown throws the target along force and plays its knockdown pose.
func (a *Arena) Knockdown(target model.EntityID, force model.Vec3) {
	b, ok := a.bodies[target]
	if !ok || b.Static {
		return
	}
	mass := b.Mass
	if mass <= 0 {
		mass = 100
	}
	push := force.Flat().Scale(100 / mass)
	b.Velocity = model.Vec3{X: push.X, Y: push.Y, Z: 150}
	b.Grounded = false
	a.SetActivity(target, model.ActKnockdown)
}
