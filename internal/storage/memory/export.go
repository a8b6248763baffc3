package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/OCAP2/unitcore/internal/util"
	"github.com/OCAP2/unitcore/pkg/core"
)

// FormatVersion is written to every exported combat log.
const FormatVersion = 1

// CombatLog is the root JSON structure
type CombatLog struct {
	Version          int        `json:"version"`
	ExtensionVersion string     `json:"extensionVersion"`
	SessionName      string     `json:"sessionName"`
	SessionAuthor    string     `json:"sessionAuthor"`
	Tag              string     `json:"tag"`
	StartTime        string     `json:"startTime"`
	EndTime          string     `json:"endTime"`
	EndTick          uint64     `json:"endTick"`
	Units            []UnitJSON `json:"units"`
	Events           [][]any    `json:"events"`
}

// UnitJSON represents one unit and its state history
type UnitJSON struct {
	Handle        uint32  `json:"handle"`
	Name          string  `json:"name"`
	Kind          string  `json:"kind"`
	FactionID     int     `json:"factionId"`
	Level         int     `json:"level"`
	MaxHealth     int     `json:"maxHealth"`
	SpawnTick     uint64  `json:"spawnTick"`
	Position      []any   `json:"position"`
	ControlStates [][]any `json:"controlStates"`
	Auras         [][]any `json:"auras"`
}

type tickedEvent struct {
	tick uint64
	row  []any
}

func handles(hs []core.Handle) []uint32 {
	out := make([]uint32, 0, len(hs))
	for _, h := range hs {
		out = append(out, uint32(h))
	}
	return out
}

func effectNames(effects []core.AuraType) []string {
	out := make([]string, 0, len(effects))
	for _, e := range effects {
		out = append(out, e.String())
	}
	return out
}

// exportJSON writes the session data to a (optionally gzipped) JSON file.
// Callers hold mu.
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	name := util.SafeFileName(b.session.Name)
	timestamp := b.session.StartTime.Format("20060102_150405")

	filename := fmt.Sprintf("%s_%s.json", name, timestamp)
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := writeExport(outputPath, export, b.cfg.CompressOutput); err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() CombatLog {
	export := CombatLog{
		Version:          FormatVersion,
		ExtensionVersion: b.session.ExtensionVersion,
		SessionName:      b.session.Name,
		SessionAuthor:    b.session.Author,
		Tag:              b.tag,
		StartTime:        b.session.StartTime.UTC().Format(time.RFC3339),
		EndTime:          b.session.EndTime.UTC().Format(time.RFC3339),
		Units:            make([]UnitJSON, 0, len(b.unitOrder)),
		Events:           make([][]any, 0),
	}

	var maxTick uint64
	seen := func(tick uint64) {
		maxTick = max(maxTick, tick)
	}

	for _, h := range b.unitOrder {
		record := b.units[h]
		u := record.Unit
		seen(u.SpawnTick)
		unit := UnitJSON{
			Handle:        uint32(u.Handle),
			Name:          u.Name,
			Kind:          u.Kind.String(),
			FactionID:     u.FactionID,
			Level:         u.Level,
			MaxHealth:     u.MaxHealth,
			SpawnTick:     u.SpawnTick,
			Position:      []any{u.Position.X, u.Position.Y, u.Position.Z},
			ControlStates: make([][]any, 0, len(record.ControlStates)),
			Auras:         make([][]any, 0, len(record.Auras)),
		}

		// Format: [tick, state, applied, active]
		for _, cs := range record.ControlStates {
			seen(cs.Tick)
			unit.ControlStates = append(unit.ControlStates, []any{
				cs.Tick, cs.State.String(), cs.Applied, cs.Active.String(),
			})
		}

		// Format: [tick, auraId, spellId, action, effects]
		for _, a := range record.Auras {
			seen(a.Tick)
			unit.Auras = append(unit.Auras, []any{
				a.Tick, a.AuraID, a.SpellID, a.Action, effectNames(a.Effects),
			})
		}

		export.Units = append(export.Units, unit)
	}

	var events []tickedEvent

	// Format: [tick, "damage", attacker, victim, amount, requested, killing, distance]
	for _, e := range b.damageEvents {
		events = append(events, tickedEvent{e.Tick, []any{
			e.Tick, "damage", uint32(e.Attacker), uint32(e.Victim), e.Amount, e.Requested, e.Killing, e.Distance,
		}})
	}

	// Format: [tick, "heal", caster, target, amount, requested]
	for _, e := range b.healEvents {
		events = append(events, tickedEvent{e.Tick, []any{
			e.Tick, "heal", uint32(e.Caster), uint32(e.Target), e.Amount, e.Requested,
		}})
	}

	// Format: [tick, "killed", victim, killer, distance]
	for _, e := range b.killEvents {
		events = append(events, tickedEvent{e.Tick, []any{
			e.Tick, "killed", uint32(e.Victim), uint32(e.Killer), e.Distance,
		}})
	}

	// Format: [tick, "target", referer, selected, candidates, history]
	for _, e := range b.targetEvents {
		events = append(events, tickedEvent{e.Tick, []any{
			e.Tick, "target", uint32(e.Referer), uint32(e.Selected), e.Candidates, handles(e.History),
		}})
	}

	slices.SortStableFunc(events, func(a, b tickedEvent) int {
		switch {
		case a.tick < b.tick:
			return -1
		case a.tick > b.tick:
			return 1
		}
		return 0
	})
	for _, e := range events {
		seen(e.tick)
		export.Events = append(export.Events, e.row)
	}

	export.EndTick = maxTick
	return export
}

func writeExport(path string, data CombatLog, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	if compress {
		gz := gzip.NewWriter(f)
		defer gz.Close()
		w = gz
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode combat log: %w", err)
	}
	return nil
}
