package worker

import (
	"context"
	"fmt"

	"github.com/OCAP2/unitcore/internal/dispatcher"
	"github.com/OCAP2/unitcore/internal/influx"
	"github.com/OCAP2/unitcore/pkg/core"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RegisterHandlers registers all command handlers with the dispatcher.
// World requests run synchronously so arrival order is processing order.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Session lifecycle
	d.Register(":NEW:SESSION:", m.handleNewSession, dispatcher.Logged())
	d.Register(":END:SESSION:", m.handleEndSession, dispatcher.Logged())

	// Registration
	d.Register(":NEW:FACTION:", m.handleNewFaction, dispatcher.Logged())
	d.Register(":NEW:UNIT:", m.handleNewUnit, dispatcher.Logged())
	d.Register(":DESPAWN:", m.handleDespawn, dispatcher.Logged())

	// World requests
	d.Register(":MOVE:", m.handleMove, dispatcher.Logged())
	d.Register(":DAMAGE:", m.handleDamage, dispatcher.Logged())
	d.Register(":HEAL:", m.handleHeal, dispatcher.Logged())
	d.Register(":KILL:", m.handleKill, dispatcher.Logged())
	d.Register(":REVIVE:", m.handleRevive, dispatcher.Logged())
	d.Register(":CONTROL:", m.handleControl, dispatcher.Logged())
	d.Register(":CAST:", m.handleCast, dispatcher.Logged())
	d.Register(":AURA:APPLY:", m.handleAuraApply, dispatcher.Logged())
	d.Register(":AURA:REMOVE:", m.handleAuraRemove, dispatcher.Logged())
	d.Register(":TARGET:", m.handleTarget, dispatcher.Logged())
	d.Register(":TICK:", m.handleTick, dispatcher.Logged())
	d.Register(":STATUS:", m.handleStatus, dispatcher.Logged())

	// Custom metrics - buffered
	d.Register(":METRIC:", m.handleMetric, dispatcher.Buffered(1000), dispatcher.Logged())
}

func (m *Manager) handleNewSession(e dispatcher.Event) (any, error) {
	req, err := m.deps.Parser.ParseSession(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if m.deps.Session.Active() {
		if err := m.endSession(); err != nil {
			m.log.Warn("Failed to end previous session", "error", err)
		}
	}
	s, err := m.startSession(req)
	if err != nil {
		return nil, err
	}
	return s.ID, nil
}

func (m *Manager) handleEndSession(e dispatcher.Event) (any, error) {
	return nil, m.endSession()
}

func (m *Manager) handleNewFaction(e dispatcher.Event) (any, error) {
	f, err := m.deps.Parser.ParseFaction(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse faction: %w", err)
	}
	m.deps.World.SetFaction(f)
	return nil, nil
}

func (m *Manager) handleNewUnit(e dispatcher.Event) (any, error) {
	def, err := m.deps.Parser.ParseSpawn(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse unit: %w", err)
	}
	u, err := m.deps.World.Spawn(def)
	if err != nil {
		return nil, err
	}

	rec := core.UnitRecord{
		Handle:          def.Handle,
		Kind:            def.Kind,
		Name:            def.Name,
		FactionID:       def.FactionID,
		FreeForAll:      def.FreeForAll,
		Level:           def.Level,
		MaxHealth:       def.MaxHealth,
		MaxMana:         def.MaxMana,
		ModelID:         def.ModelID,
		OriginalModelID: def.ModelID,
		Scale:           def.Scale,
		SpawnTime:       e.Timestamp,
		SpawnTick:       m.tick(),
		Position:        u.Position(),
	}
	m.record("unit", func() error { return m.backend.AddUnit(&rec) })
	return nil, nil
}

func (m *Manager) handleDespawn(e dispatcher.Event) (any, error) {
	h, err := m.deps.Parser.ParseHandle(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse despawn: %w", err)
	}
	return nil, m.deps.World.Despawn(h)
}

func (m *Manager) handleMove(e dispatcher.Event) (any, error) {
	req, err := m.deps.Parser.ParseMove(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse move: %w", err)
	}
	res, err := m.deps.World.Move(req.Handle, req.Position)
	if err != nil {
		return nil, fmt.Errorf("move %s: %w", req.Handle, err)
	}
	return res.Moving, nil
}

func (m *Manager) handleDamage(e dispatcher.Event) (any, error) {
	req, err := m.deps.Parser.ParseCombat(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse damage: %w", err)
	}
	res, err := m.deps.World.Damage(req.Source, req.Target, req.Amount)
	if err != nil {
		return nil, err
	}

	tick := m.tick()
	ev := core.DamageEvent{
		Time:      e.Timestamp,
		Tick:      tick,
		Attacker:  req.Source,
		Victim:    req.Target,
		Requested: res.Requested,
		Amount:    res.Amount,
		Killing:   res.Killed,
		Distance:  float32(res.Distance),
	}
	m.metrics.damage.Add(context.Background(), int64(res.Amount))
	m.record("damage", func() error { return m.backend.RecordDamageEvent(&ev) })
	m.writePoint(influx.BucketCombat, influx.DamagePoint(m.deps.Session.Name(), &ev))

	if res.Killed {
		m.recordKill(e, tick, req.Source, req.Target, res.Position, res.Distance)
	}
	return res.Amount, nil
}

func (m *Manager) handleHeal(e dispatcher.Event) (any, error) {
	req, err := m.deps.Parser.ParseCombat(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse heal: %w", err)
	}
	res, err := m.deps.World.Heal(req.Source, req.Target, req.Amount)
	if err != nil {
		return nil, err
	}

	ev := core.HealEvent{
		Time:      e.Timestamp,
		Tick:      m.tick(),
		Caster:    req.Source,
		Target:    req.Target,
		Requested: res.Requested,
		Amount:    res.Amount,
	}
	m.metrics.heal.Add(context.Background(), int64(res.Amount))
	m.record("heal", func() error { return m.backend.RecordHealEvent(&ev) })
	m.writePoint(influx.BucketCombat, influx.HealPoint(m.deps.Session.Name(), &ev))
	return res.Amount, nil
}

func (m *Manager) handleKill(e dispatcher.Event) (any, error) {
	req, err := m.deps.Parser.ParseKill(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse kill: %w", err)
	}
	res, err := m.deps.World.Kill(req.Killer, req.Victim)
	if err != nil {
		return nil, err
	}
	if res.Killed {
		m.recordKill(e, m.tick(), req.Killer, req.Victim, res.Position, res.Distance)
	}
	return res.Killed, nil
}

func (m *Manager) recordKill(e dispatcher.Event, tick uint64, killer, victim core.Handle, pos core.Position3D, distance float64) {
	ev := core.KillEvent{
		Time:           e.Timestamp,
		Tick:           tick,
		Killer:         killer,
		Victim:         victim,
		VictimPosition: pos,
		Distance:       float32(distance),
	}
	m.metrics.kills.Add(context.Background(), 1)
	m.record("kill", func() error { return m.backend.RecordKillEvent(&ev) })
	m.writePoint(influx.BucketCombat, influx.KillPoint(m.deps.Session.Name(), &ev))
}

func (m *Manager) handleRevive(e dispatcher.Event) (any, error) {
	req, err := m.deps.Parser.ParseRevive(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse revive: %w", err)
	}
	return nil, m.deps.World.Revive(req.Handle, req.Health)
}

func (m *Manager) handleControl(e dispatcher.Event) (any, error) {
	req, err := m.deps.Parser.ParseControl(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse control state: %w", err)
	}
	res, err := m.deps.World.RequestState(req.Handle, req.State, req.Applied)
	if err != nil {
		return nil, err
	}

	ev := core.ControlStateEvent{
		Time:    e.Timestamp,
		Tick:    m.tick(),
		Unit:    req.Handle,
		State:   req.State,
		Applied: req.Applied,
		Active:  res.Active,
		Changed: res.Changed,
	}
	if res.Changed {
		m.metrics.control.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("state", req.State.String())))
	}
	m.record("control", func() error { return m.backend.RecordControlStateEvent(&ev) })
	m.writePoint(influx.BucketCombat, influx.ControlStatePoint(m.deps.Session.Name(), &ev))
	return res.Active, nil
}

func (m *Manager) handleCast(e dispatcher.Event) (any, error) {
	req, err := m.deps.Parser.ParseCast(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cast: %w", err)
	}
	if err := m.deps.World.StartCast(req.Handle, req.SpellID, req.Target); err != nil {
		return nil, fmt.Errorf("cast %d on %s: %w", req.SpellID, req.Handle, err)
	}
	return nil, nil
}

func (m *Manager) handleAuraApply(e dispatcher.Event) (any, error) {
	req, err := m.deps.Parser.ParseAuraApply(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse aura: %w", err)
	}
	if err := m.deps.World.ApplyAura(req.Handle, req.Aura); err != nil {
		return nil, fmt.Errorf("aura %d on %s: %w", req.Aura.ID, req.Handle, err)
	}

	ev := auraEvent(e.Timestamp, m.tick(), req.Handle, req.Aura, "applied")
	m.record("aura", func() error { return m.backend.RecordAuraEvent(&ev) })
	return nil, nil
}

// handleAuraRemove relies on the world listener to record the removal.
func (m *Manager) handleAuraRemove(e dispatcher.Event) (any, error) {
	req, err := m.deps.Parser.ParseAuraRemove(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse aura removal: %w", err)
	}
	return m.deps.World.RemoveAura(req.Handle, req.AuraID)
}

func (m *Manager) handleTarget(e dispatcher.Event) (any, error) {
	req, err := m.deps.Parser.ParseTarget(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse target request: %w", err)
	}
	res, err := m.deps.World.SelectTarget(req.Referer, req.Options)
	if err != nil {
		return nil, err
	}

	ev := core.TargetEvent{
		Time:        e.Timestamp,
		Tick:        m.tick(),
		Referer:     req.Referer,
		Selected:    res.Selected,
		EntityTypes: req.Options.EntityTypes,
		Candidates:  res.Candidates,
		History:     res.History,
	}
	m.metrics.targets.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Bool("found", res.Selected != 0)))
	m.record("target", func() error { return m.backend.RecordTargetEvent(&ev) })
	return res.Selected, nil
}

func (m *Manager) handleTick(e dispatcher.Event) (any, error) {
	delta, err := m.deps.Parser.ParseTick(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tick: %w", err)
	}
	return m.deps.World.Tick(delta).Expired, nil
}

func (m *Manager) handleStatus(e dispatcher.Event) (any, error) {
	h, err := m.deps.Parser.ParseHandle(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	return m.deps.World.Status(h)
}

func (m *Manager) handleMetric(e dispatcher.Event) (any, error) {
	if m.deps.Influx == nil || !m.deps.Influx.Enabled() {
		return nil, nil
	}
	args, err := m.deps.Parser.ParseMetric(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metric: %w", err)
	}
	bucket, point, err := influx.ProcessMetricData(args)
	if err != nil {
		return nil, fmt.Errorf("failed to process metric: %w", err)
	}
	return nil, m.deps.Influx.WritePoint(bucket, point)
}
