package parser

import (
	"log/slog"
	"testing"
	"time"

	"github.com/OCAP2/unitcore/internal/targeting"
	"github.com/OCAP2/unitcore/pkg/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return NewParser(slog.Default())
}

func TestNewParser(t *testing.T) {
	p := newTestParser()
	require.NotNil(t, p)
}

func TestParseUintFromFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    uint64
		wantErr bool
	}{
		{"integer", "32", 32, false},
		{"zero", "0", 0, false},
		{"float with decimals", "32.00", 32, false},
		{"float with trailing zero", "30.0", 30, false},
		{"large integer", "65535", 65535, false},
		{"large float", "65535.00", 65535, false},
		{"fractional rejects", "10.99", 0, true},
		{"empty string", "", 0, true},
		{"non-numeric", "abc", 0, true},
		{"negative", "-1", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseUintFromFloat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseIntFromFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"integer", "32", 32, false},
		{"zero", "0", 0, false},
		{"negative integer", "-1", -1, false},
		{"float with decimals", "32.00", 32, false},
		{"negative float", "-1.00", -1, false},
		{"large integer", "65535", 65535, false},
		{"fractional rejects", "10.99", 0, true},
		{"empty string", "", 0, true},
		{"non-numeric", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIntFromFloat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}


func TestParseSession(t *testing.T) {
	p := newTestParser()

	req, err := p.ParseSession([]string{`"Arena Finals"`, `"referee"`})
	require.NoError(t, err)
	assert.Equal(t, SessionRequest{Name: "Arena Finals", Author: "referee"}, req)

	req, err = p.ParseSession([]string{"solo"})
	require.NoError(t, err)
	assert.Empty(t, req.Author)

	_, err = p.ParseSession(nil)
	assert.ErrorIs(t, err, ErrArgCount)
}

func TestParseSpawn(t *testing.T) {
	p := newTestParser()

	def, err := p.ParseSpawn([]string{"7", "creature", `"Wolf"`, "2", "100.00", "50", "12", "[10,20,0]", "", "true", "1.5"})
	require.NoError(t, err)
	assert.Equal(t, core.Handle(7), def.Handle)
	assert.Equal(t, core.KindCreature, def.Kind)
	assert.Equal(t, "Wolf", def.Name)
	assert.Equal(t, 2, def.FactionID)
	assert.Equal(t, 100, def.MaxHealth)
	assert.Equal(t, 50, def.MaxMana)
	assert.Equal(t, 12, def.Level)
	assert.Equal(t, core.Position3D{X: 10, Y: 20, Z: 0}, def.Position)
	assert.Zero(t, def.ModelID)
	assert.True(t, def.FreeForAll)
	assert.Equal(t, float32(1.5), def.Scale)

	def, err = p.ParseSpawn([]string{"1", "player", "Hero", "1", "100", "0", "1", "[0,0]"})
	require.NoError(t, err)
	assert.Equal(t, float32(1), def.Scale, "scale defaults to 1")
	assert.False(t, def.FreeForAll)
}

func TestParseSpawn_Errors(t *testing.T) {
	p := newTestParser()
	base := []string{"1", "player", "Hero", "1", "100", "0", "1", "[0,0,0]"}

	tests := []struct {
		name  string
		index int
		value string
		field string
	}{
		{"bad handle", 0, "x", "handle"},
		{"bad kind", 1, "vehicle", "kind"},
		{"bad faction", 3, "red", "factionId"},
		{"bad health", 4, "1.5", "maxHealth"},
		{"bad position", 7, "[1]", "position"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string(nil), base...)
			args[tt.index] = tt.value
			_, err := p.ParseSpawn(args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	_, err := p.ParseSpawn(base[:5])
	assert.ErrorIs(t, err, ErrArgCount)
}

func TestParseHandleAndMove(t *testing.T) {
	p := newTestParser()

	h, err := p.ParseHandle([]string{"42.00"})
	require.NoError(t, err)
	assert.Equal(t, core.Handle(42), h)

	_, err = p.ParseHandle([]string{"4294967296"})
	assert.Error(t, err, "handles are 32 bit")

	move, err := p.ParseMove([]string{"3", "[1.5, 2, 3]"})
	require.NoError(t, err)
	assert.Equal(t, MoveRequest{Handle: 3, Position: core.Position3D{X: 1.5, Y: 2, Z: 3}}, move)
}

func TestParseCombatAndKill(t *testing.T) {
	p := newTestParser()

	req, err := p.ParseCombat([]string{"1", "2", "30"})
	require.NoError(t, err)
	assert.Equal(t, CombatRequest{Source: 1, Target: 2, Amount: 30}, req)

	_, err = p.ParseCombat([]string{"1", "2", "lots"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount")

	kill, err := p.ParseKill([]string{"0", "5"})
	require.NoError(t, err)
	assert.Equal(t, KillRequest{Killer: 0, Victim: 5}, kill)
}

func TestParseControl(t *testing.T) {
	p := newTestParser()

	req, err := p.ParseControl([]string{"4", "stunned", "1"})
	require.NoError(t, err)
	assert.Equal(t, ControlRequest{Handle: 4, State: core.StateStunned, Applied: true}, req)

	_, err = p.ParseControl([]string{"4", "frozen", "true"})
	assert.Error(t, err)

	_, err = p.ParseControl([]string{"4", "root", "maybe"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "applied")
}

func TestParseAuraApply(t *testing.T) {
	p := newTestParser()

	req, err := p.ParseAuraApply([]string{"9", "100", "5211", "[stun,damageDone]", "0.5", "4000", "true", "3"})
	require.NoError(t, err)
	assert.Equal(t, core.Handle(9), req.Handle)
	assert.Equal(t, uint32(100), req.Aura.ID)
	assert.Equal(t, 5211, req.Aura.SpellID)
	assert.Equal(t, []core.AuraType{core.AuraStunState, core.AuraModDamageDone}, req.Aura.Effects)
	assert.Equal(t, 0.5, req.Aura.Modifier)
	assert.Equal(t, 4*time.Second, req.Aura.Duration)
	assert.True(t, req.Aura.PersistThroughDeath)
	assert.Equal(t, core.Handle(3), req.Aura.CasterHandle)

	req, err = p.ParseAuraApply([]string{"9", "101", "1", "root"})
	require.NoError(t, err)
	assert.Zero(t, req.Aura.Duration, "zero duration is permanent")

	_, err = p.ParseAuraApply([]string{"9", "101", "1", "bogus"})
	assert.Error(t, err)

	_, err = p.ParseAuraApply([]string{"9", "101", "1", "root", "", "-5"})
	assert.Error(t, err)

	rm, err := p.ParseAuraRemove([]string{"9", "100"})
	require.NoError(t, err)
	assert.Equal(t, AuraRemoveRequest{Handle: 9, AuraID: 100}, rm)
}

func TestParseEntityTypes(t *testing.T) {
	tests := []struct {
		in   string
		want core.TargetingEntityType
	}{
		{"", core.TargetAll},
		{"players", core.TargetPlayers},
		{"[creatures]", core.TargetCreatures},
		{"players,creatures", core.TargetAll},
		{"all", core.TargetAll},
	}
	for _, tt := range tests {
		got, err := ParseEntityTypes(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseEntityTypes("vehicles")
	assert.Error(t, err)
}

func TestParseTarget(t *testing.T) {
	p := newTestParser()

	req, err := p.ParseTarget([]string{"1"})
	require.NoError(t, err)
	assert.Equal(t, core.Handle(1), req.Referer)
	assert.Equal(t, targeting.Options{EntityTypes: core.TargetAll, SkipDead: true}, req.Options)

	req, err = p.ParseTarget([]string{"1", "creatures", "hostile", "false"})
	require.NoError(t, err)
	assert.Equal(t, targeting.Options{
		EntityTypes: core.TargetCreatures,
		Relation:    targeting.RelationHostile,
		SkipDead:    false,
	}, req.Options)

	_, err = p.ParseTarget([]string{"1", "all", "neutral"})
	assert.Error(t, err)
}

func TestParseTick(t *testing.T) {
	p := newTestParser()

	d, err := p.ParseTick([]string{"250"})
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)

	d, err = p.ParseTick([]string{"0.5"})
	require.NoError(t, err)
	assert.Equal(t, 500*time.Microsecond, d)

	_, err = p.ParseTick([]string{"-1"})
	assert.Error(t, err)
}

func TestParseCastAndRevive(t *testing.T) {
	p := newTestParser()

	cast, err := p.ParseCast([]string{"1", "133", "2"})
	require.NoError(t, err)
	assert.Equal(t, CastRequest{Handle: 1, SpellID: 133, Target: 2}, cast)

	cast, err = p.ParseCast([]string{"1", "133"})
	require.NoError(t, err)
	assert.Zero(t, cast.Target)

	rev, err := p.ParseRevive([]string{"6"})
	require.NoError(t, err)
	assert.Equal(t, ReviveRequest{Handle: 6, Health: 1}, rev)

	rev, err = p.ParseRevive([]string{"6", "40"})
	require.NoError(t, err)
	assert.Equal(t, 40, rev.Health)
}

func TestParseFaction(t *testing.T) {
	p := newTestParser()

	f, err := p.ParseFaction([]string{"1", "red", "[2,3]", "[1]"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.ID)
	assert.Equal(t, "red", f.Name)
	assert.True(t, f.IsHostileTo(core.NewFaction(2, "blue", nil, nil)))
	assert.True(t, f.IsFriendlyTo(f))

	f, err = p.ParseFaction([]string{"4", "neutral"})
	require.NoError(t, err)
	assert.False(t, f.IsHostileTo(core.NewFaction(2, "blue", nil, nil)))

	_, err = p.ParseFaction([]string{"4", "neutral", "[x]"})
	assert.Error(t, err)
}

func TestParseMetric(t *testing.T) {
	p := newTestParser()

	args, err := p.ParseMetric([]string{`"combat"`, `"tag::arena::north"`})
	require.NoError(t, err)
	assert.Equal(t, []string{"combat", "tag::arena::north"}, args)

	_, err = p.ParseMetric([]string{"combat"})
	assert.ErrorIs(t, err, ErrArgCount)
}
