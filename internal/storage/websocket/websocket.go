// Package websocket streams combat sessions to the web server as they happen.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/OCAP2/unitcore/pkg/core"
	"github.com/OCAP2/unitcore/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
	Tag    string
}

// Backend streams session data over WebSocket to the web server.
// It implements storage.Backend but not storage.Uploadable.
type Backend struct {
	conn          *connection
	cfg           Config
	nextSessionID atomic.Uint64
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope queues the payload without waiting for the server.
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// StartSession assigns a session ID, sends the session and waits for server ack.
func (b *Backend) StartSession(s *core.Session) error {
	s.ID = uint(b.nextSessionID.Add(1))
	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.NewSessionPayload(s, b.cfg.Tag))
	if err != nil {
		return err
	}

	b.conn.setReplay(data)
	return b.conn.sendAndWait(data, streaming.TypeStartSession, ackTimeout)
}

// EndSession sends end_session and waits for server ack.
func (b *Backend) EndSession() error {
	data, err := marshalEnvelope(streaming.TypeEndSession, nil)
	if err == nil {
		err = b.conn.sendAndWait(data, streaming.TypeEndSession, ackTimeout)
	}

	b.conn.setReplay(nil)
	return err
}

func (b *Backend) AddUnit(u *core.UnitRecord) error {
	return b.sendEnvelope(streaming.TypeAddUnit, streaming.NewUnitPayload(u))
}

func (b *Backend) RecordDamageEvent(e *core.DamageEvent) error {
	return b.sendEnvelope(streaming.TypeDamageEvent, streaming.NewDamagePayload(e))
}

func (b *Backend) RecordHealEvent(e *core.HealEvent) error {
	return b.sendEnvelope(streaming.TypeHealEvent, streaming.NewHealPayload(e))
}

func (b *Backend) RecordKillEvent(e *core.KillEvent) error {
	return b.sendEnvelope(streaming.TypeKillEvent, streaming.NewKillPayload(e))
}

func (b *Backend) RecordControlStateEvent(e *core.ControlStateEvent) error {
	return b.sendEnvelope(streaming.TypeControlState, streaming.NewControlStatePayload(e))
}

func (b *Backend) RecordAuraEvent(e *core.AuraEvent) error {
	return b.sendEnvelope(streaming.TypeAuraEvent, streaming.NewAuraPayload(e))
}

func (b *Backend) RecordTargetEvent(e *core.TargetEvent) error {
	return b.sendEnvelope(streaming.TypeTargetEvent, streaming.NewTargetPayload(e))
}

// Stats reports messages dropped on a full send channel and successful reconnects.
func (b *Backend) Stats() (dropped, reconnects uint64) {
	return b.conn.dropped.Load(), b.conn.reconnects.Load()
}
