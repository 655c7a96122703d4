package sim

import (
	"github.com/nstehr/hive/model"
)

// Report is the state of every actor after one step.
type Report struct {
	Tick   uint64        `json:"tick"`
	Time   float64       `json:"time"`
	Actors []ActorReport `json:"actors"`
}

// ActorReport describes one actor. The scheduling fields are empty for
// actors without a host.
type ActorReport struct {
	ID         uint32     `json:"id"`
	Name       string     `json:"name"`
	Class      string     `json:"class"`
	Health     float64    `json:"health"`
	Alive      bool       `json:"alive"`
	Pos        model.Vec3 `json:"pos"`
	Yaw        float64    `json:"yaw"`
	Activity   string     `json:"activity"`
	Scripted   bool       `json:"scripted"`
	Active     string     `json:"active,omitempty"`
	Previous   string     `json:"previous,omitempty"`
	State      string     `json:"state,omitempty"`
	Schedule   string     `json:"schedule,omitempty"`
	Task       string     `json:"task,omitempty"`
	Outcome    string     `json:"outcome,omitempty"`
	Error      string     `json:"error,omitempty"`
	Enemy      uint32     `json:"enemy,omitempty"`
	Conditions []string   `json:"conditions,omitempty"`
	Stunned    bool       `json:"electro_stunned,omitempty"`
	OnFire     bool       `json:"on_fire,omitempty"`
}

// Actor returns the named actor's entry.
func (r Report) Actor(name string) (ActorReport, bool) {
	for _, a := range r.Actors {
		if a.Name == name {
			return a, true
		}
	}
	return ActorReport{}, false
}

func (s *Sim) report() Report {
	r := Report{
		Tick:   s.tick,
		Time:   s.arena.Now(),
		Actors: make([]ActorReport, 0, len(s.actors)),
	}
	for _, a := range s.actors {
		e, ok := s.arena.Entity(a.ID)
		if !ok {
			continue
		}
		ar := ActorReport{
			ID:       uint32(a.ID),
			Name:     a.Name,
			Class:    e.Class.String(),
			Health:   e.Health,
			Alive:    e.Alive(),
			Pos:      e.Pos,
			Yaw:      e.Yaw,
			Activity: string(s.arena.Activity(a.ID)),
		}
		if h := a.Host; h != nil {
			ar.Scripted = true
			ar.Active = h.ActiveName()
			ar.Previous = behaviorName(h.Previous())
			ar.State = h.State().String()
			if sched, _ := h.CurrentSchedule(); sched != nil {
				ar.Schedule = sched.Name
			}
			if t, ok := h.CurrentTask(); ok {
				ar.Task = t.String()
			}
			ar.Outcome = h.LastOutcome().String()
			if err := h.LastError(); err != nil {
				ar.Error = err.Error()
			}
			ar.Enemy = uint32(h.EnemyID())
			ar.Conditions = h.Conditions().Snapshot().Names()
			ar.Stunned = h.ElectroStunned()
			ar.OnFire = h.OnFire()
		}
		r.Actors = append(r.Actors, ar)
	}
	return r
}
