// Package streaming defines the messages exchanged with the web server over WebSocket.
package streaming

import (
	"encoding/json"
	"time"

	"github.com/OCAP2/unitcore/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
	TypeAddUnit      = "add_unit"
	TypeDamageEvent  = "damage_event"
	TypeHealEvent    = "heal_event"
	TypeKillEvent    = "kill_event"
	TypeControlState = "control_state"
	TypeAuraEvent    = "aura_event"
	TypeTargetEvent  = "target_event"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// SessionPayload carries session metadata.
type SessionPayload struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	Author           string    `json:"author"`
	StartTime        time.Time `json:"startTime"`
	ExtensionVersion string    `json:"extensionVersion"`
	ExtensionBuild   string    `json:"extensionBuild"`
	Tag              string    `json:"tag,omitempty"`
}

// UnitPayload carries a unit registration.
type UnitPayload struct {
	Handle     uint32     `json:"handle"`
	Kind       string     `json:"kind"`
	Name       string     `json:"name"`
	FactionID  int        `json:"factionId"`
	FreeForAll bool       `json:"freeForAll"`
	Level      int        `json:"level"`
	MaxHealth  int        `json:"maxHealth"`
	MaxMana    int        `json:"maxMana"`
	ModelID    int        `json:"modelId"`
	SpawnTick  uint64     `json:"spawnTick"`
	Position   [3]float64 `json:"position"`
}

// CombatPayload carries damage and heal events. Source and Target are the
// attacker and victim for damage, the caster and target for heals.
type CombatPayload struct {
	Tick      uint64    `json:"tick"`
	Time      time.Time `json:"time"`
	Source    uint32    `json:"source"`
	Target    uint32    `json:"target"`
	Requested int       `json:"requested"`
	Amount    int       `json:"amount"`
	Killing   bool      `json:"killing,omitempty"`
	Distance  float32   `json:"distance,omitempty"`
}

// KillPayload carries a death.
type KillPayload struct {
	Tick     uint64     `json:"tick"`
	Time     time.Time  `json:"time"`
	Killer   uint32     `json:"killer"`
	Victim   uint32     `json:"victim"`
	Position [3]float64 `json:"position"`
	Distance float32    `json:"distance"`
}

// ControlStatePayload carries one control-state request result.
type ControlStatePayload struct {
	Tick    uint64 `json:"tick"`
	Unit    uint32 `json:"unit"`
	State   string `json:"state"`
	Applied bool   `json:"applied"`
	Active  string `json:"active"`
	Changed bool   `json:"changed"`
}

// AuraPayload carries an aura change.
type AuraPayload struct {
	Tick    uint64   `json:"tick"`
	Unit    uint32   `json:"unit"`
	AuraID  uint32   `json:"auraId"`
	SpellID int      `json:"spellId"`
	Action  string   `json:"action"`
	Effects []string `json:"effects"`
}

// TargetPayload carries a targeting decision.
type TargetPayload struct {
	Tick       uint64   `json:"tick"`
	Referer    uint32   `json:"referer"`
	Selected   uint32   `json:"selected"`
	Candidates int      `json:"candidates"`
	History    []uint32 `json:"history"`
}

func position(p core.Position3D) [3]float64 {
	return [3]float64{p.X, p.Y, p.Z}
}

// NewSessionPayload builds a SessionPayload.
func NewSessionPayload(s *core.Session, tag string) SessionPayload {
	return SessionPayload{
		ID:               s.ID,
		Name:             s.Name,
		Author:           s.Author,
		StartTime:        s.StartTime,
		ExtensionVersion: s.ExtensionVersion,
		ExtensionBuild:   s.ExtensionBuild,
		Tag:              tag,
	}
}

// NewUnitPayload builds a UnitPayload.
func NewUnitPayload(u *core.UnitRecord) UnitPayload {
	return UnitPayload{
		Handle:     uint32(u.Handle),
		Kind:       u.Kind.String(),
		Name:       u.Name,
		FactionID:  u.FactionID,
		FreeForAll: u.FreeForAll,
		Level:      u.Level,
		MaxHealth:  u.MaxHealth,
		MaxMana:    u.MaxMana,
		ModelID:    u.ModelID,
		SpawnTick:  u.SpawnTick,
		Position:   position(u.Position),
	}
}

// NewDamagePayload builds a CombatPayload from a damage event.
func NewDamagePayload(e *core.DamageEvent) CombatPayload {
	return CombatPayload{
		Tick:      e.Tick,
		Time:      e.Time,
		Source:    uint32(e.Attacker),
		Target:    uint32(e.Victim),
		Requested: e.Requested,
		Amount:    e.Amount,
		Killing:   e.Killing,
		Distance:  e.Distance,
	}
}

// NewHealPayload builds a CombatPayload from a heal event.
func NewHealPayload(e *core.HealEvent) CombatPayload {
	return CombatPayload{
		Tick:      e.Tick,
		Time:      e.Time,
		Source:    uint32(e.Caster),
		Target:    uint32(e.Target),
		Requested: e.Requested,
		Amount:    e.Amount,
	}
}

// NewKillPayload builds a KillPayload.
func NewKillPayload(e *core.KillEvent) KillPayload {
	return KillPayload{
		Tick:     e.Tick,
		Time:     e.Time,
		Killer:   uint32(e.Killer),
		Victim:   uint32(e.Victim),
		Position: position(e.VictimPosition),
		Distance: e.Distance,
	}
}

// NewControlStatePayload builds a ControlStatePayload.
func NewControlStatePayload(e *core.ControlStateEvent) ControlStatePayload {
	return ControlStatePayload{
		Tick:    e.Tick,
		Unit:    uint32(e.Unit),
		State:   e.State.String(),
		Applied: e.Applied,
		Active:  e.Active.String(),
		Changed: e.Changed,
	}
}

// NewAuraPayload builds an AuraPayload.
func NewAuraPayload(e *core.AuraEvent) AuraPayload {
	effects := make([]string, 0, len(e.Effects))
	for _, eff := range e.Effects {
		effects = append(effects, eff.String())
	}
	return AuraPayload{
		Tick:    e.Tick,
		Unit:    uint32(e.Unit),
		AuraID:  e.AuraID,
		SpellID: e.SpellID,
		Action:  e.Action,
		Effects: effects,
	}
}

// NewTargetPayload builds a TargetPayload.
func NewTargetPayload(e *core.TargetEvent) TargetPayload {
	history := make([]uint32, 0, len(e.History))
	for _, h := range e.History {
		history = append(history, uint32(h))
	}
	return TargetPayload{
		Tick:       e.Tick,
		Referer:    uint32(e.Referer),
		Selected:   uint32(e.Selected),
		Candidates: e.Candidates,
		History:    history,
	}
}
