// Package parser converts raw command arguments into typed requests.
// It performs no world or storage operations.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/OCAP2/unitcore/internal/aura"
	"github.com/OCAP2/unitcore/internal/geo"
	"github.com/OCAP2/unitcore/internal/targeting"
	"github.com/OCAP2/unitcore/internal/util"
	"github.com/OCAP2/unitcore/internal/world"
	"github.com/OCAP2/unitcore/pkg/core"
)

// ErrArgCount is returned when a command receives too few arguments.
var ErrArgCount = errors.New("not enough arguments")

// parseUintFromFloat parses a string that may be an integer ("32") or float ("32.00") into uint64.
// Scripting hosts without an integer type may serialize numbers as floats.
func parseUintFromFloat(s string) (uint64, error) {
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(uint64(f)) {
		return 0, fmt.Errorf("parseUintFromFloat: %q is not a valid uint64", s)
	}
	return uint64(f), nil
}

// parseIntFromFloat parses a string that may be an integer or float into int64.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

// Parser provides pure []string -> request conversion.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// clean trims quotes from every argument and checks the count.
func clean(data []string, want int) ([]string, error) {
	if len(data) < want {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrArgCount, want, len(data))
	}
	out := make([]string, len(data))
	for i, v := range data {
		out[i] = util.CleanArg(v)
	}
	return out, nil
}

func parseHandle(field, s string) (core.Handle, error) {
	v, err := parseUintFromFloat(s)
	if err != nil || v > uint64(^uint32(0)) {
		return 0, fmt.Errorf("error converting %s to handle: %q", field, s)
	}
	return core.Handle(v), nil
}

func parseInt(field, s string) (int, error) {
	v, err := parseIntFromFloat(s)
	if err != nil {
		return 0, fmt.Errorf("error converting %s to int: %w", field, err)
	}
	return int(v), nil
}

func parseBool(field, s string) (bool, error) {
	v, err := util.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("error converting %s to bool: %w", field, err)
	}
	return v, nil
}

// SessionRequest starts a session.
type SessionRequest struct {
	Name   string
	Author string
}

// ParseSession parses [name, author]. Author is optional.
func (p *Parser) ParseSession(data []string) (SessionRequest, error) {
	args, err := clean(data, 1)
	if err != nil {
		return SessionRequest{}, err
	}
	req := SessionRequest{Name: args[0]}
	if len(args) > 1 {
		req.Author = args[1]
	}
	return req, nil
}

// ParseHandle parses [handle].
func (p *Parser) ParseHandle(data []string) (core.Handle, error) {
	args, err := clean(data, 1)
	if err != nil {
		return 0, err
	}
	return parseHandle("handle", args[0])
}

// ParseSpawn parses
// [handle, kind, name, factionId, maxHealth, maxMana, level, position, modelId, freeForAll, scale].
// Fields after position are optional.
func (p *Parser) ParseSpawn(data []string) (world.SpawnDef, error) {
	var def world.SpawnDef
	args, err := clean(data, 8)
	if err != nil {
		return def, err
	}

	if def.Handle, err = parseHandle("handle", args[0]); err != nil {
		return def, err
	}
	if def.Kind, err = core.ParseEntityKind(args[1]); err != nil {
		return def, fmt.Errorf("error parsing kind: %w", err)
	}
	def.Name = args[2]
	if def.FactionID, err = parseInt("factionId", args[3]); err != nil {
		return def, err
	}
	if def.MaxHealth, err = parseInt("maxHealth", args[4]); err != nil {
		return def, err
	}
	if def.MaxMana, err = parseInt("maxMana", args[5]); err != nil {
		return def, err
	}
	if def.Level, err = parseInt("level", args[6]); err != nil {
		return def, err
	}
	if def.Position, err = geo.ParsePosition(args[7]); err != nil {
		return def, fmt.Errorf("error parsing position: %w", err)
	}

	def.Scale = 1
	if len(args) > 8 && args[8] != "" {
		if def.ModelID, err = parseInt("modelId", args[8]); err != nil {
			return def, err
		}
	}
	if len(args) > 9 && args[9] != "" {
		if def.FreeForAll, err = parseBool("freeForAll", args[9]); err != nil {
			return def, err
		}
	}
	if len(args) > 10 && args[10] != "" {
		scale, err := strconv.ParseFloat(args[10], 32)
		if err != nil {
			return def, fmt.Errorf("error converting scale to float: %w", err)
		}
		def.Scale = float32(scale)
	}

	p.logger.Debug("Parsed unit", "handle", def.Handle, "kind", def.Kind, "name", def.Name)
	return def, nil
}

// MoveRequest moves a unit.
type MoveRequest struct {
	Handle   core.Handle
	Position core.Position3D
}

// ParseMove parses [handle, position].
func (p *Parser) ParseMove(data []string) (MoveRequest, error) {
	var req MoveRequest
	args, err := clean(data, 2)
	if err != nil {
		return req, err
	}
	if req.Handle, err = parseHandle("handle", args[0]); err != nil {
		return req, err
	}
	if req.Position, err = geo.ParsePosition(args[1]); err != nil {
		return req, fmt.Errorf("error parsing position: %w", err)
	}
	return req, nil
}

// CombatRequest is a damage or heal from Source to Target.
type CombatRequest struct {
	Source core.Handle
	Target core.Handle
	Amount int
}

// ParseCombat parses [source, target, amount].
func (p *Parser) ParseCombat(data []string) (CombatRequest, error) {
	var req CombatRequest
	args, err := clean(data, 3)
	if err != nil {
		return req, err
	}
	if req.Source, err = parseHandle("source", args[0]); err != nil {
		return req, err
	}
	if req.Target, err = parseHandle("target", args[1]); err != nil {
		return req, err
	}
	if req.Amount, err = parseInt("amount", args[2]); err != nil {
		return req, err
	}
	return req, nil
}

// KillRequest kills Victim. A zero Killer means no unit source.
type KillRequest struct {
	Killer core.Handle
	Victim core.Handle
}

// ParseKill parses [killer, victim].
func (p *Parser) ParseKill(data []string) (KillRequest, error) {
	var req KillRequest
	args, err := clean(data, 2)
	if err != nil {
		return req, err
	}
	if req.Killer, err = parseHandle("killer", args[0]); err != nil {
		return req, err
	}
	if req.Victim, err = parseHandle("victim", args[1]); err != nil {
		return req, err
	}
	return req, nil
}

// ControlRequest applies or clears a control state.
type ControlRequest struct {
	Handle  core.Handle
	State   core.ControlState
	Applied bool
}

// ParseControl parses [handle, state, applied].
func (p *Parser) ParseControl(data []string) (ControlRequest, error) {
	var req ControlRequest
	args, err := clean(data, 3)
	if err != nil {
		return req, err
	}
	if req.Handle, err = parseHandle("handle", args[0]); err != nil {
		return req, err
	}
	if req.State, err = core.ParseControlState(args[1]); err != nil {
		return req, fmt.Errorf("error parsing state: %w", err)
	}
	if req.Applied, err = parseBool("applied", args[2]); err != nil {
		return req, err
	}
	return req, nil
}

// AuraRequest applies an aura to a unit.
type AuraRequest struct {
	Handle core.Handle
	Aura   aura.Aura
}

// ParseAuraApply parses
// [handle, auraId, spellId, effects, modifier, durationMs, persistThroughDeath, caster].
// Fields after effects are optional.
func (p *Parser) ParseAuraApply(data []string) (AuraRequest, error) {
	var req AuraRequest
	args, err := clean(data, 4)
	if err != nil {
		return req, err
	}
	if req.Handle, err = parseHandle("handle", args[0]); err != nil {
		return req, err
	}
	id, err := parseUintFromFloat(args[1])
	if err != nil || id > uint64(^uint32(0)) {
		return req, fmt.Errorf("error converting auraId: %q", args[1])
	}
	req.Aura.ID = uint32(id)
	if req.Aura.SpellID, err = parseInt("spellId", args[2]); err != nil {
		return req, err
	}
	for _, name := range util.SplitList(args[3]) {
		effect, err := core.ParseAuraType(name)
		if err != nil {
			return req, fmt.Errorf("error parsing effects: %w", err)
		}
		req.Aura.Effects = append(req.Aura.Effects, effect)
	}

	if len(args) > 4 && args[4] != "" {
		if req.Aura.Modifier, err = strconv.ParseFloat(args[4], 64); err != nil {
			return req, fmt.Errorf("error converting modifier to float: %w", err)
		}
	}
	if len(args) > 5 && args[5] != "" {
		ms, err := parseInt("durationMs", args[5])
		if err != nil {
			return req, err
		}
		if ms < 0 {
			return req, fmt.Errorf("negative durationMs %d", ms)
		}
		req.Aura.Duration = time.Duration(ms) * time.Millisecond
	}
	if len(args) > 6 && args[6] != "" {
		if req.Aura.PersistThroughDeath, err = parseBool("persistThroughDeath", args[6]); err != nil {
			return req, err
		}
	}
	if len(args) > 7 && args[7] != "" {
		if req.Aura.CasterHandle, err = parseHandle("caster", args[7]); err != nil {
			return req, err
		}
	}
	return req, nil
}

// AuraRemoveRequest removes an aura by id.
type AuraRemoveRequest struct {
	Handle core.Handle
	AuraID uint32
}

// ParseAuraRemove parses [handle, auraId].
func (p *Parser) ParseAuraRemove(data []string) (AuraRemoveRequest, error) {
	var req AuraRemoveRequest
	args, err := clean(data, 2)
	if err != nil {
		return req, err
	}
	if req.Handle, err = parseHandle("handle", args[0]); err != nil {
		return req, err
	}
	id, err := parseUintFromFloat(args[1])
	if err != nil || id > uint64(^uint32(0)) {
		return req, fmt.Errorf("error converting auraId: %q", args[1])
	}
	req.AuraID = uint32(id)
	return req, nil
}

// TargetRequest asks for the best target of Referer.
type TargetRequest struct {
	Referer core.Handle
	Options targeting.Options
}

// ParseEntityTypes converts a list such as "players,creatures" into a bitset.
// An empty list accepts every kind.
func ParseEntityTypes(s string) (core.TargetingEntityType, error) {
	var out core.TargetingEntityType
	for _, name := range util.SplitList(s) {
		switch name {
		case "players", "player":
			out |= core.TargetPlayers
		case "creatures", "creature":
			out |= core.TargetCreatures
		case "all":
			out |= core.TargetAll
		default:
			return 0, fmt.Errorf("unknown entity type %q", name)
		}
	}
	if out == 0 {
		out = core.TargetAll
	}
	return out, nil
}

// ParseTarget parses [referer, entityTypes, relation, skipDead]. Fields after referer are optional.
func (p *Parser) ParseTarget(data []string) (TargetRequest, error) {
	req := TargetRequest{Options: targeting.Options{EntityTypes: core.TargetAll, SkipDead: true}}
	args, err := clean(data, 1)
	if err != nil {
		return req, err
	}
	if req.Referer, err = parseHandle("referer", args[0]); err != nil {
		return req, err
	}
	if len(args) > 1 {
		if req.Options.EntityTypes, err = ParseEntityTypes(args[1]); err != nil {
			return req, err
		}
	}
	if len(args) > 2 {
		if req.Options.Relation, err = targeting.ParseRelation(args[2]); err != nil {
			return req, err
		}
	}
	if len(args) > 3 && args[3] != "" {
		if req.Options.SkipDead, err = parseBool("skipDead", args[3]); err != nil {
			return req, err
		}
	}
	return req, nil
}

// ParseTick parses [deltaMs].
func (p *Parser) ParseTick(data []string) (time.Duration, error) {
	args, err := clean(data, 1)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, fmt.Errorf("error converting deltaMs to float: %w", err)
	}
	if ms < 0 {
		return 0, fmt.Errorf("negative deltaMs %v", ms)
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

// CastRequest starts an action.
type CastRequest struct {
	Handle  core.Handle
	SpellID int
	Target  core.Handle
}

// ParseCast parses [handle, spellId, target]. Target is optional.
func (p *Parser) ParseCast(data []string) (CastRequest, error) {
	var req CastRequest
	args, err := clean(data, 2)
	if err != nil {
		return req, err
	}
	if req.Handle, err = parseHandle("handle", args[0]); err != nil {
		return req, err
	}
	if req.SpellID, err = parseInt("spellId", args[1]); err != nil {
		return req, err
	}
	if len(args) > 2 && args[2] != "" {
		if req.Target, err = parseHandle("target", args[2]); err != nil {
			return req, err
		}
	}
	return req, nil
}

// ReviveRequest brings a dead unit back.
type ReviveRequest struct {
	Handle core.Handle
	Health int
}

// ParseRevive parses [handle, health]. Health defaults to 1.
func (p *Parser) ParseRevive(data []string) (ReviveRequest, error) {
	req := ReviveRequest{Health: 1}
	args, err := clean(data, 1)
	if err != nil {
		return req, err
	}
	if req.Handle, err = parseHandle("handle", args[0]); err != nil {
		return req, err
	}
	if len(args) > 1 && args[1] != "" {
		if req.Health, err = parseInt("health", args[1]); err != nil {
			return req, err
		}
	}
	return req, nil
}

// ParseFaction parses [id, name, hostileIds, friendlyIds].
func (p *Parser) ParseFaction(data []string) (*core.Faction, error) {
	args, err := clean(data, 2)
	if err != nil {
		return nil, err
	}
	id, err := parseInt("id", args[0])
	if err != nil {
		return nil, err
	}
	lists := [2][]int{}
	for i := range lists {
		if len(args) <= 2+i {
			continue
		}
		for _, s := range util.SplitList(args[2+i]) {
			v, err := parseInt("faction id", s)
			if err != nil {
				return nil, err
			}
			lists[i] = append(lists[i], v)
		}
	}
	return core.NewFaction(id, args[1], lists[0], lists[1]), nil
}

// ParseMetric cleans metric arguments for the influx writer.
func (p *Parser) ParseMetric(data []string) ([]string, error) {
	return clean(data, 2)
}
