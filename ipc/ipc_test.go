package ipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	env, err := NewEnvelope(TypeSetParam, SetParamCommand{Actor: "drone", Param: "aggression", Value: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := WriteEnvelope(&buf, env); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := binary.LittleEndian.Uint32(buf.Bytes()[:4]); int(got) != buf.Len()-4 {
		t.Errorf("expected prefix %d, got %d", buf.Len()-4, got)
	}

	got, err := ReadEnvelope(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Type != TypeSetParam {
		t.Errorf("expected type %s, got %s", TypeSetParam, got.Type)
	}
	var cmd SetParamCommand
	if err := got.Decode(&cmd); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cmd.Actor != "drone" || cmd.Param != "aggression" || cmd.Value != 2 {
		t.Errorf("unexpected command %+v", cmd)
	}
}

func TestReadEnvelopeRejectsBadLength(t *testing.T) {
	tests := []struct {
		name   string
		length uint32
	}{
		{"zero", 0},
		{"too large", maxFrame + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			binary.Write(&buf, binary.LittleEndian, tt.length)
			if _, err := ReadEnvelope(&buf); err == nil {
				t.Errorf("expected an error for length %d", tt.length)
			}
		})
	}
}

func TestReadEnvelopeTruncated(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(10))
	buf.WriteString(`{"ty`)
	if _, err := ReadEnvelope(&buf); err == nil {
		t.Errorf("expected an error for a truncated payload")
	}
}

func TestReadEnvelopeRequiresType(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"data":{}}`)
	binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
	if _, err := ReadEnvelope(&buf); err == nil {
		t.Errorf("expected an error for an envelope without a type")
	}
}

// serve runs a connection over an in-memory pipe and returns the client end.
func serve(t *testing.T, setup func(c *Connection)) net.Conn {
	t.Helper()
	server, client := net.Pipe()
	c := NewConnection(server, nil)
	setup(c)
	go c.ReadLoop()
	t.Cleanup(func() { client.Close() })
	client.SetDeadline(time.Now().Add(2 * time.Second))
	return client
}

func roundTrip(t *testing.T, conn net.Conn, msgType string, data any) Envelope {
	t.Helper()
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	if err := WriteEnvelope(conn, env); err != nil {
		t.Fatalf("write: %v", err)
	}
	resp, err := ReadEnvelope(conn)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return resp
}

func TestConnectionDispatch(t *testing.T) {
	client := serve(t, func(c *Connection) {
		c.RegisterHandler(TypeHello, func(env Envelope) (*Envelope, error) {
			var hello HelloMessage
			if err := env.Decode(&hello); err != nil {
				return nil, err
			}
			ack, err := NewEnvelope(TypeAck, AckMessage{Status: "ok", Session: hello.Client})
			return &ack, err
		})
		c.RegisterHandler(TypeDamage, func(Envelope) (*Envelope, error) {
			return nil, errors.New("unknown target")
		})
	})

	resp := roundTrip(t, client, TypeHello, HelloMessage{Client: "cli"})
	var ack AckMessage
	if err := resp.Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if resp.Type != TypeAck || ack.Session != "cli" {
		t.Errorf("unexpected reply %s %+v", resp.Type, ack)
	}

	resp = roundTrip(t, client, TypeDamage, DamageCommand{Target: "ghost"})
	var msg ErrorMessage
	if err := resp.Decode(&msg); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Type != TypeError || msg.Command != TypeDamage || !strings.Contains(msg.Error, "unknown target") {
		t.Errorf("unexpected error reply %s %+v", resp.Type, msg)
	}

	resp = roundTrip(t, client, "teleport", struct{}{})
	if resp.Type != TypeError {
		t.Errorf("expected an error for an unknown type, got %s", resp.Type)
	}
}

func TestConnectionSendWhileReading(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	c := NewConnection(server, nil)
	go c.ReadLoop()
	client.SetDeadline(time.Now().Add(2 * time.Second))

	go func() {
		for i := 0; i < 3; i++ {
			c.Send(TypeEvent, map[string]int{"n": i})
		}
	}()
	for i := 0; i < 3; i++ {
		env, err := ReadEnvelope(client)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if env.Type != TypeEvent {
			t.Errorf("expected %s, got %s", TypeEvent, env.Type)
		}
	}
}
