package ai

import "github.com/nstehr/hive/model"

// The engine never reimplements physics, perception or animation; it consumes
// them through these interfaces. The arena package provides an in-memory
// implementation of all of them.

// TraceFilter excludes entities from a trace.
type TraceFilter struct {
	Ignore model.EntityID
	// IgnoreTeam skips every actor on that team.
	IgnoreTeam string
	// MinPropMass skips props lighter than this; they get shoved aside.
	MinPropMass float64
	// Sight makes the trace behave like a line of sight: movement-only
	// blockers such as glass are transparent.
	Sight bool
	// Pass lists further entities the sweep moves through.
	Pass []model.EntityID
}

// Trace is the result of a hull or line sweep.
type Trace struct {
	Blocked  bool
	Fraction float64
	End      model.Vec3
	Hit      model.EntityID // model.WorldID for static geometry
}

// HitWorld reports whether the sweep stopped on static geometry.
func (t Trace) HitWorld() bool { return t.Blocked && t.Hit == model.WorldID }

type Tracer interface {
	TraceHull(start, end model.Vec3, radius float64, filter TraceFilter) Trace
	TraceLine(start, end model.Vec3, filter TraceFilter) Trace
}

type Perception interface {
	CurrentEnemy(self model.EntityID) model.EntityID
	// Memories returns remembered enemies, most recently seen first.
	Memories(self model.EntityID) []model.Memory
	Visible(self, target model.EntityID) bool
}

type Animator interface {
	// SetActivity returns false when the actor's model has no sequence for a;
	// the actor keeps its previous pose.
	SetActivity(self model.EntityID, a model.Activity) bool
	// AddGesture layers a short activity over the current one.
	AddGesture(self model.EntityID, a model.Activity) bool
	ActivityFinished(self model.EntityID) bool
	HasSequence(self model.EntityID, a model.Activity) bool
	// SequenceDuration returns 0 when unknown.
	SequenceDuration(self model.EntityID, a model.Activity) float64
	// AutoMove advances the actor along its facing by the current activity's
	// ground speed and reports what it ran into. Movable props the filter
	// skips are shoved out of the way.
	AutoMove(self model.EntityID, dt float64, filter TraceFilter) Trace
}

type Mover interface {
	// Gravity is the downward acceleration airborne actors fall at.
	Gravity() float64
	SetYaw(self model.EntityID, yaw float64)
	SetVelocity(self model.EntityID, v model.Vec3)
	SetGrounded(self model.EntityID, grounded bool)
}

type Combat interface {
	Entity(id model.EntityID) (model.Entity, bool)
	ApplyDamage(target model.EntityID, info model.DamageInfo)
	Knockdown(target model.EntityID, force model.Vec3)
	Relationship(self, other model.EntityID) model.Disposition
	// Priority ranks how much self wants to attack other.
	Priority(self, other model.EntityID) int
}

// Rules exposes game-rule scaling.
type Rules interface {
	DamageScale() float64
}

type Launcher interface {
	LaunchProjectile(self model.EntityID, volley string, target model.Vec3)
}

// World bundles every collaborator a host needs.
type World interface {
	Tracer
	Perception
	Animator
	Mover
	Combat
	Rules
	Launcher
	RandomFloat(lo, hi float64) float64
}
