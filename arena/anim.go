package arena

import (
	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/model"
)

// Marker fires Event once At seconds into a sequence.
type Marker struct {
	At    float64         `yaml:"at" json:"at"`
	Event model.AnimEvent `yaml:"event" json:"event"`
}

// Sequence describes how one activity plays. A zero Duration loops forever.
// Speed is the ground speed AutoMove uses; negative moves backwards.
type Sequence struct {
	Duration float64  `yaml:"duration" json:"duration"`
	Speed    float64  `yaml:"speed" json:"speed"`
	Markers  []Marker `yaml:"markers" json:"markers"`
}

// DefaultSequences is the stock animation table every spawned actor has.
func DefaultSequences() map[model.Activity]Sequence {
	return map[model.Activity]Sequence{
		model.ActIdle: {},
		model.ActRun:  {Speed: 250},

		model.ActMeleeAttack1: {Duration: 0.6, Markers: []Marker{{At: 0.3, Event: model.AnimMeleeHit}}},
		model.ActMeleeAttack2: {Duration: 0.8, Markers: []Marker{{At: 0.4, Event: model.AnimMeleeHit}}},
		model.ActMeleeHit:     {Duration: 0.3},
		model.ActMeleeMiss:    {Duration: 0.4},

		model.ActPounceLaunch: {Duration: 0.3, Markers: []Marker{{At: 0.2, Event: model.AnimPounceLeave}}},
		model.ActPounceGlide:  {},
		model.ActPounceHit:    {Duration: 0.5},
		model.ActPounceMiss:   {Duration: 0.6},
		model.ActPounceLand:   {Duration: 0.4},

		model.ActChargeStart:      {Duration: 0.4},
		model.ActChargeRun:        {Speed: 350},
		model.ActChargeAnticipate: {Duration: 0.3},
		model.ActChargeCrash:      {Duration: 1.2},
		model.ActChargeStop:       {Duration: 0.6},
		model.ActChargeHit:        {Duration: 0.4},

		model.ActRangePrepare: {Duration: 0.4},
		model.ActRangeFire:    {Duration: 0.3, Markers: []Marker{{At: 0.1, Event: model.AnimRangedFire}}},
		model.ActRangeRecover: {Duration: 0.5},

		model.ActStepBack: {Duration: 0.6, Speed: -120},

		model.ActFlinchFront:  {Duration: 0.4},
		model.ActFlinchBack:   {Duration: 0.4},
		model.ActFlinchLeft:   {Duration: 0.4},
		model.ActFlinchRight:  {Duration: 0.4},
		model.ActStumbleFront: {Duration: 1.0, Speed: -60},
		model.ActStumbleBack:  {Duration: 1.0, Speed: 60},
		model.ActStumbleLeft:  {Duration: 1.0},
		model.ActStumbleRight: {Duration: 1.0},

		model.ActCombatStun: {Duration: 2.0},
		model.ActKnockdown:  {Duration: knockdownTime},
	}
}

// RemoveSequence strips activity a from one actor's model, as if its art
// never shipped that animation.
func (a *Arena) RemoveSequence(id model.EntityID, act model.Activity) {
	if b, ok := a.bodies[id]; ok {
		b.missing[act] = true
	}
}

func (a *Arena) sequence(id model.EntityID, act model.Activity) (Sequence, bool) {
	b, ok := a.bodies[id]
	if !ok || b.missing[act] {
		return Sequence{}, false
	}
	s, ok := a.sequences[act]
	return s, ok
}

func (a *Arena) HasSequence(self model.EntityID, act model.Activity) bool {
	_, ok := a.sequence(self, act)
	return ok
}

func (a *Arena) SequenceDuration(self model.EntityID, act model.Activity) float64 {
	s, _ := a.sequence(self, act)
	return s.Duration
}

// SetActivity restarts the sequence even when act is already playing.
func (a *Arena) SetActivity(self model.EntityID, act model.Activity) bool {
	if _, ok := a.sequence(self, act); !ok {
		return false
	}
	b := a.bodies[self]
	b.activity = act
	b.actStarted = a.now
	b.firedMarkers = 0
	return true
}

func (a *Arena) AddGesture(self model.EntityID, act model.Activity) bool {
	if _, ok := a.sequence(self, act); !ok {
		return false
	}
	b := a.bodies[self]
	b.gestures = append(b.gestures, act)
	return true
}

// Activity returns the activity an actor is playing.
func (a *Arena) Activity(id model.EntityID) model.Activity {
	if b, ok := a.bodies[id]; ok {
		return b.activity
	}
	return ""
}

// Gestures returns every gesture layered on an actor so far.
func (a *Arena) Gestures(id model.EntityID) []model.Activity {
	b, ok := a.bodies[id]
	if !ok {
		return nil
	}
	return append([]model.Activity(nil), b.gestures...)
}

func (a *Arena) ActivityFinished(self model.EntityID) bool {
	b, ok := a.bodies[self]
	if !ok {
		return true
	}
	s, _ := a.sequence(self, b.activity)
	if s.Duration <= 0 {
		return false
	}
	return a.now-b.actStarted >= s.Duration
}

// AutoMove walks the actor along its facing at the sequence's ground speed.
// The mover never collides with itself.
func (a *Arena) AutoMove(self model.EntityID, dt float64, filter ai.TraceFilter) ai.Trace {
	b, ok := a.bodies[self]
	if !ok {
		return ai.Trace{}
	}
	s, _ := a.sequence(self, b.activity)
	if s.Speed == 0 || dt <= 0 {
		return ai.Trace{Fraction: 1, End: b.Pos}
	}
	filter.Ignore = self
	dir := b.Forward()
	if s.Speed < 0 {
		dir = dir.Scale(-1)
	}
	end := b.Pos.Add(b.Forward().Scale(s.Speed * dt))
	tr := a.TraceHull(b.Pos, end, b.Radius, filter)
	b.Pos = tr.End
	a.shove(b, dir, filter)
	return tr
}

// shove pushes light props overlapping the mover out to its edge. A prop
// that would end up inside a wall stays put and the mover slides through.
func (a *Arena) shove(mover *body, dir model.Vec3, filter ai.TraceFilter) {
	for _, id := range a.IDs() {
		p := a.bodies[id]
		if p == mover || !light(p, filter) {
			continue
		}
		reach := mover.Radius + p.Radius
		rel := p.Pos.Sub(mover.Pos).Flat()
		if rel.Len2D() >= reach {
			continue
		}
		out := rel.Normalize()
		if out == (model.Vec3{}) {
			out = dir
		}
		to := mover.Pos.Add(out.Scale(reach))
		to.Z = p.Pos.Z
		if a.grid != nil && a.grid.Overlaps(to.X, to.Y, p.Radius, model.TerrainType.BlocksMovement) {
			continue
		}
		p.Pos = to
	}
}

// advanceAnimations fires markers that came due during the last step.
func (a *Arena) advanceAnimations() {
	for _, id := range a.IDs() {
		b, ok := a.bodies[id]
		if !ok {
			continue
		}
		s, _ := a.sequence(id, b.activity)
		cycle := a.now - b.actStarted
		act := b.activity
		for b.firedMarkers < len(s.Markers) && s.Markers[b.firedMarkers].At <= cycle {
			ev := s.Markers[b.firedMarkers].Event
			b.firedMarkers++
			for _, l := range a.listeners {
				l.OnAnimEvent(id, ev)
			}
			// a listener may have switched the activity
			if b.activity != act {
				break
			}
		}
	}
}
