// Package agent serves inspector sessions: it streams decision reports to a
// client and applies the commands the client sends back.
package agent

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/nstehr/hive/config"
	"github.com/nstehr/hive/ipc"
	"github.com/nstehr/hive/sim"
)

// reportBuffer is how many reports a session may fall behind before it
// starts missing them.
const reportBuffer = 64

// Session owns one inspector connection.
type Session struct {
	ID     uuid.UUID
	Conn   *ipc.Connection
	Client string

	runner *sim.Runner
	log    *slog.Logger

	mu     sync.Mutex
	follow map[string]bool
	stop   func()
}

func New(conn *ipc.Connection, runner *sim.Runner) *Session {
	id := uuid.New()
	conn.Session = id.String()
	return &Session{
		ID:     id,
		Conn:   conn,
		runner: runner,
		log:    slog.Default().With("session", id.String()),
	}
}

// Register installs the session's handlers on its connection.
func (s *Session) Register() {
	s.Conn.RegisterHandler(ipc.TypeHello, s.HandleHello)
	s.Conn.RegisterHandler(ipc.TypeDamage, s.HandleDamage)
	s.Conn.RegisterHandler(ipc.TypeForcePounce, s.HandleForcePounce)
	s.Conn.RegisterHandler(ipc.TypeSetParam, s.HandleSetParam)
}

// HandleHello identifies the client and starts streaming reports.
func (s *Session) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := env.Decode(&hello); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.Client = hello.Client
	s.follow = make(map[string]bool, len(hello.Follow))
	for _, name := range hello.Follow {
		s.follow[name] = true
	}
	s.mu.Unlock()
	s.log.Info("client identified", "client", hello.Client, "follow", hello.Follow)

	ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{
		Status:   "ok",
		Session:  s.ID.String(),
		Scenario: s.runner.Sim().Name(),
		Terrain:  terrainData(s.runner.Sim()),
	})
	if err != nil {
		return nil, err
	}
	s.startStream()
	return &ack, nil
}

func terrainData(sm *sim.Sim) *ipc.TerrainData {
	g := sm.Arena().Grid()
	if g == nil {
		return nil
	}
	td := &ipc.TerrainData{Cols: g.Cols, Rows: g.Rows, CellSize: g.CellSize, Grid: make([]int, len(g.Grid))}
	for i, c := range g.Grid {
		td.Grid[i] = int(c)
	}
	return td
}

func (s *Session) HandleDamage(env ipc.Envelope) (*ipc.Envelope, error) {
	var cmd ipc.DamageCommand
	if err := env.Decode(&cmd); err != nil {
		return nil, err
	}
	err := s.runner.Sim().Damage(config.DamageEvent{
		Target:   cmd.Target,
		Attacker: cmd.Attacker,
		Amount:   cmd.Amount,
		Types:    cmd.Types,
		Stumble:  cmd.Stumble,
	})
	if err != nil {
		return nil, fmt.Errorf("damage: %w", err)
	}
	s.log.Info("damage applied", "target", cmd.Target, "amount", cmd.Amount, "types", cmd.Types)
	return ack()
}

func (s *Session) HandleForcePounce(env ipc.Envelope) (*ipc.Envelope, error) {
	var cmd ipc.ForcePounceCommand
	if err := env.Decode(&cmd); err != nil {
		return nil, err
	}
	if err := s.runner.Sim().ForcePounce(cmd.Actor, cmd.Target); err != nil {
		return nil, fmt.Errorf("force pounce: %w", err)
	}
	s.log.Info("pounce ordered", "actor", cmd.Actor, "target", cmd.Target)
	return ack()
}

func (s *Session) HandleSetParam(env ipc.Envelope) (*ipc.Envelope, error) {
	var cmd ipc.SetParamCommand
	if err := env.Decode(&cmd); err != nil {
		return nil, err
	}
	if err := s.runner.Sim().SetParam(cmd.Actor, cmd.Param, cmd.Value); err != nil {
		return nil, fmt.Errorf("set param: %w", err)
	}
	s.log.Info("parameter set", "actor", cmd.Actor, "param", cmd.Param, "value", cmd.Value)
	return ack()
}

func ack() (*ipc.Envelope, error) {
	env, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok"})
	if err != nil {
		return nil, err
	}
	return &env, nil
}

// startStream subscribes to the runner once per session. A repeated hello
// only updates the follow list.
func (s *Session) startStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	reports, stop := s.runner.Subscribe(reportBuffer)
	s.stop = stop
	first := takeSnapshot(s.runner.Sim().Last())
	go s.stream(reports, &first)
}

// stream diffs each report against the one before it, starting from the
// state at subscription time.
func (s *Session) stream(reports <-chan sim.Report, prev *snapshot) {
	for rep := range reports {
		events := detectEvents(rep, prev)
		snap := takeSnapshot(rep)
		prev = &snap

		if err := s.Conn.Send(ipc.TypeReport, s.filter(rep)); err != nil {
			s.log.Warn("report stream ended", "error", err)
			s.Close()
			return
		}
		for _, ev := range events {
			if !s.following(ev.Actor) {
				continue
			}
			s.log.Debug("decision event", "kind", ev.Kind, "actor", ev.Actor, "detail", ev.Detail)
			if err := s.Conn.Send(ipc.TypeEvent, ev); err != nil {
				s.log.Warn("report stream ended", "error", err)
				s.Close()
				return
			}
		}
	}
}

func (s *Session) following(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.follow) == 0 || s.follow[name]
}

func (s *Session) filter(rep sim.Report) sim.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.follow) == 0 {
		return rep
	}
	out := sim.Report{Tick: rep.Tick, Time: rep.Time}
	for _, a := range rep.Actors {
		if s.follow[a.Name] {
			out.Actors = append(out.Actors, a)
		}
	}
	return out
}

// Close stops the report stream and closes the connection. It is safe to
// call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	stop := s.stop
	s.stop = func() {}
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
	s.Conn.Close()
}
