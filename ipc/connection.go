package ipc

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
)

// Handler processes a received envelope. Return nil to send no reply.
type Handler func(env Envelope) (*Envelope, error)

// Connection is one inspector client. Replies from the read loop and
// streamed reports from other goroutines share the socket, so writes are
// serialized.
type Connection struct {
	Session string

	conn     net.Conn
	log      *slog.Logger
	handlers map[string]Handler

	mu sync.Mutex
}

// NewConnection wraps conn. A nil logger uses slog.Default.
func NewConnection(conn net.Conn, log *slog.Logger) *Connection {
	if log == nil {
		log = slog.Default()
	}
	return &Connection{
		conn:     conn,
		log:      log,
		handlers: make(map[string]Handler),
	}
}

// RegisterHandler must be called before ReadLoop starts.
func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

// Send encodes data under msgType and writes it as one frame.
func (c *Connection) Send(msgType string, data any) error {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return c.write(env)
}

func (c *Connection) write(env Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return WriteEnvelope(c.conn, env)
}

// Close closes the underlying socket, ending ReadLoop.
func (c *Connection) Close() error {
	return c.conn.Close()
}

// ReadLoop serves requests until the client hangs up or a reply cannot be
// written, then closes the socket.
func (c *Connection) ReadLoop() {
	defer c.conn.Close()

	for {
		req, err := ReadEnvelope(c.conn)
		if err != nil {
			c.log.Info("connection read ended", "session", c.Session, "error", err)
			return
		}

		resp := c.dispatch(req)
		if resp == nil {
			continue
		}
		if err := c.write(*resp); err != nil {
			c.log.Error("failed to send response", "type", resp.Type, "session", c.Session, "error", err)
			return
		}
		c.log.Debug("sent response", "request", req.Type, "type", resp.Type, "session", c.Session)
	}
}

// dispatch runs the handler for req. Unknown types and handler failures come
// back as an error envelope naming the request.
func (c *Connection) dispatch(req Envelope) *Envelope {
	handler, ok := c.handlers[req.Type]
	if !ok {
		c.log.Warn("no handler for message type", "type", req.Type, "session", c.Session)
		return c.errorReply(req.Type, fmt.Errorf("unknown message type %q", req.Type))
	}
	resp, err := handler(req)
	if err != nil {
		c.log.Warn("handler error", "type", req.Type, "session", c.Session, "error", err)
		return c.errorReply(req.Type, err)
	}
	return resp
}

func (c *Connection) errorReply(command string, cause error) *Envelope {
	env, err := NewEnvelope(TypeError, ErrorMessage{Command: command, Error: cause.Error()})
	if err != nil {
		c.log.Error("failed to encode error reply", "type", command, "error", err)
		return nil
	}
	return &env
}
