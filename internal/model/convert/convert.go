// Package convert maps core records onto their GORM models.
package convert

import (
	"database/sql"
	"encoding/json"

	"github.com/OCAP2/unitcore/internal/geo"
	"github.com/OCAP2/unitcore/internal/model"
	"github.com/OCAP2/unitcore/pkg/core"
	"gorm.io/datatypes"
)

// handleOrNull stores the zero handle as NULL.
func handleOrNull(h core.Handle) sql.NullInt64 {
	if h == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(h), Valid: true}
}

// toJSON marshals v, falling back to an empty array.
func toJSON(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}

// CoreToSession converts a core.Session to a GORM model.Session.
// A zero EndTime stays NULL.
func CoreToSession(s core.Session, tag string) model.Session {
	out := model.Session{
		Name:             s.Name,
		Author:           s.Author,
		StartTime:        s.StartTime,
		ExtensionVersion: s.ExtensionVersion,
		ExtensionBuild:   s.ExtensionBuild,
		Tag:              tag,
	}
	out.ID = s.ID
	if !s.EndTime.IsZero() {
		out.EndTime = sql.NullTime{Time: s.EndTime, Valid: true}
	}
	return out
}

// CoreToUnit converts a core.UnitRecord to a GORM model.Unit.
func CoreToUnit(u core.UnitRecord, sessionID uint) model.Unit {
	return model.Unit{
		SessionID:       sessionID,
		Handle:          uint32(u.Handle),
		SpawnTime:       u.SpawnTime,
		SpawnTick:       u.SpawnTick,
		Kind:            u.Kind.String(),
		Name:            u.Name,
		FactionID:       u.FactionID,
		FreeForAll:      u.FreeForAll,
		Level:           u.Level,
		MaxHealth:       u.MaxHealth,
		MaxMana:         u.MaxMana,
		ModelID:         u.ModelID,
		OriginalModelID: u.OriginalModelID,
		Scale:           u.Scale,
		Position:        geo.PointFromPosition(u.Position),
	}
}

// CoreToDamageEvent converts a core.DamageEvent to a GORM model.DamageEvent.
func CoreToDamageEvent(e core.DamageEvent) model.DamageEvent {
	return model.DamageEvent{
		Time:           e.Time,
		SessionID:      e.SessionID,
		Tick:           e.Tick,
		AttackerHandle: uint32(e.Attacker),
		VictimHandle:   uint32(e.Victim),
		Requested:      e.Requested,
		Amount:         e.Amount,
		Killing:        e.Killing,
		Distance:       e.Distance,
	}
}

// CoreToHealEvent converts a core.HealEvent to a GORM model.HealEvent.
func CoreToHealEvent(e core.HealEvent) model.HealEvent {
	return model.HealEvent{
		Time:         e.Time,
		SessionID:    e.SessionID,
		Tick:         e.Tick,
		CasterHandle: uint32(e.Caster),
		TargetHandle: uint32(e.Target),
		Requested:    e.Requested,
		Amount:       e.Amount,
	}
}

// CoreToKillEvent converts a core.KillEvent to a GORM model.KillEvent.
func CoreToKillEvent(e core.KillEvent) model.KillEvent {
	return model.KillEvent{
		Time:           e.Time,
		SessionID:      e.SessionID,
		Tick:           e.Tick,
		KillerHandle:   handleOrNull(e.Killer),
		VictimHandle:   uint32(e.Victim),
		VictimPosition: geo.PointFromPosition(e.VictimPosition),
		Distance:       e.Distance,
	}
}

// CoreToControlStateEvent converts a core.ControlStateEvent to a GORM model.ControlStateEvent.
func CoreToControlStateEvent(e core.ControlStateEvent) model.ControlStateEvent {
	return model.ControlStateEvent{
		Time:       e.Time,
		SessionID:  e.SessionID,
		Tick:       e.Tick,
		UnitHandle: uint32(e.Unit),
		State:      e.State.String(),
		Applied:    e.Applied,
		Active:     e.Active.String(),
		Changed:    e.Changed,
	}
}

// CoreToAuraEvent converts a core.AuraEvent to a GORM model.AuraEvent.
// Effects are stored by name.
func CoreToAuraEvent(e core.AuraEvent) model.AuraEvent {
	names := make([]string, 0, len(e.Effects))
	for _, eff := range e.Effects {
		names = append(names, eff.String())
	}
	return model.AuraEvent{
		Time:                e.Time,
		SessionID:           e.SessionID,
		Tick:                e.Tick,
		UnitHandle:          uint32(e.Unit),
		AuraID:              e.AuraID,
		SpellID:             e.SpellID,
		Effects:             toJSON(names),
		Action:              e.Action,
		PersistThroughDeath: e.PersistThroughDeath,
	}
}

// CoreToTargetEvent converts a core.TargetEvent to a GORM model.TargetEvent.
func CoreToTargetEvent(e core.TargetEvent) model.TargetEvent {
	history := make([]uint32, 0, len(e.History))
	for _, h := range e.History {
		history = append(history, uint32(h))
	}
	return model.TargetEvent{
		Time:           e.Time,
		SessionID:      e.SessionID,
		Tick:           e.Tick,
		RefererHandle:  uint32(e.Referer),
		SelectedHandle: handleOrNull(e.Selected),
		EntityTypes:    uint8(e.EntityTypes),
		Candidates:     e.Candidates,
		History:        toJSON(history),
	}
}
