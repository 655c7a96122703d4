package ipc

// Message types understood by the inspector.
const (
	TypeHello  = "hello"
	TypeAck    = "ack"
	TypeError  = "error"
	TypeReport = "tick_report"
	TypeEvent  = "decision_event"
)

// HelloMessage opens a session. Follow restricts streamed reports to the
// named actors; empty follows everyone.
type HelloMessage struct {
	Client string   `json:"client"`
	Follow []string `json:"follow,omitempty"`
}

// AckMessage answers hello and every accepted command. Only the hello reply
// carries the session details.
type AckMessage struct {
	Status   string       `json:"status"`
	Session  string       `json:"session,omitempty"`
	Scenario string       `json:"scenario,omitempty"`
	Terrain  *TerrainData `json:"terrain,omitempty"`
}

// TerrainData is the arena floor plan, row-major.
// Absent when the arena is an open floor.
type TerrainData struct {
	Cols     int     `json:"cols"`
	Rows     int     `json:"rows"`
	CellSize float64 `json:"cellSize"`
	Grid     []int   `json:"grid"`
}

type ErrorMessage struct {
	Command string `json:"command"`
	Error   string `json:"error"`
}
