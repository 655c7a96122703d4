package agent

import (
	"fmt"

	"github.com/nstehr/hive/sim"
)

// EventKind identifies a decision worth surfacing to an inspector.
type EventKind string

const (
	EventBehaviorChanged EventKind = "behavior_changed"
	EventTaskFailed      EventKind = "task_failed"
	EventInterrupted     EventKind = "schedule_interrupted"
	EventActorDied       EventKind = "actor_died"
	EventEnemyAcquired   EventKind = "enemy_acquired"
)

// Event is a decision detected by diffing consecutive tick reports.
type Event struct {
	Kind   EventKind `json:"kind"`
	Tick   uint64    `json:"tick"`
	Time   float64   `json:"time"`
	Actor  string    `json:"actor"`
	Detail string    `json:"detail"`
}

// snapshot captures the diffable fields of one report, keyed by actor name.
type snapshot struct {
	tick   uint64
	actors map[string]sim.ActorReport
}

func takeSnapshot(rep sim.Report) snapshot {
	snap := snapshot{tick: rep.Tick, actors: make(map[string]sim.ActorReport, len(rep.Actors))}
	for _, a := range rep.Actors {
		snap.actors[a.Name] = a
	}
	return snap
}

// ended reports whether the schedule running in prev finished by cur. A
// behavior that finished and was reselected in the same tick still changes
// the outcome or error.
func ended(prev, cur sim.ActorReport) bool {
	if prev.Active == "" {
		return false
	}
	return cur.Active != prev.Active || cur.Schedule != prev.Schedule ||
		cur.Outcome != prev.Outcome || cur.Error != prev.Error
}

// detectEvents compares a report against the previous snapshot and returns
// the decisions made in between, in actor order. Returns nil if prev is nil
// (first report).
func detectEvents(rep sim.Report, prev *snapshot) []Event {
	if prev == nil {
		return nil
	}

	var events []Event
	emit := func(kind EventKind, actor, detail string) {
		events = append(events, Event{Kind: kind, Tick: rep.Tick, Time: rep.Time, Actor: actor, Detail: detail})
	}

	for _, cur := range rep.Actors {
		old, ok := prev.actors[cur.Name]
		if !ok {
			continue
		}

		if old.Alive && !cur.Alive {
			emit(EventActorDied, cur.Name, fmt.Sprintf("%s died", cur.Name))
			continue
		}
		if !cur.Scripted {
			continue
		}

		if ended(old, cur) {
			switch cur.Outcome {
			case "failed":
				emit(EventTaskFailed, cur.Name, cur.Error)
			case "interrupted":
				emit(EventInterrupted, cur.Name, fmt.Sprintf("%s interrupted during %s", old.Active, old.Task))
			}
		}

		if cur.Active != "" && cur.Active != old.Active {
			from := old.Active
			if from == "" {
				from = "idle"
			}
			emit(EventBehaviorChanged, cur.Name, fmt.Sprintf("%s → %s (%s)", from, cur.Active, cur.Schedule))
		}

		if cur.Enemy != 0 && cur.Enemy != old.Enemy {
			emit(EventEnemyAcquired, cur.Name, fmt.Sprintf("enemy %d", cur.Enemy))
		}
	}
	return events
}
