// pkg/core/control.go
package core

import (
	"fmt"
	"strings"
)

// ControlState is a bitset of crowd-control and movement states of a unit.
type ControlState uint32

const (
	StateStunned ControlState = 1 << iota
	StateRoot
	StateConfused
	StateMoving
)

var controlStateNames = []struct {
	state ControlState
	name  string
}{
	{StateStunned, "stunned"},
	{StateRoot, "root"},
	{StateConfused, "confused"},
	{StateMoving, "moving"},
}

// String lists the set states separated by "|".
func (s ControlState) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	for _, n := range controlStateNames {
		if s&n.state != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseControlState converts a single state name into its bit.
func ParseControlState(s string) (ControlState, error) {
	for _, n := range controlStateNames {
		if strings.EqualFold(n.name, s) {
			return n.state, nil
		}
	}
	return 0, fmt.Errorf("unknown control state %q", s)
}

// UnitFlags is a bitset of flags read by movement and gameplay code.
type UnitFlags uint32

const (
	UnitFlagStunned UnitFlags = 1 << iota
	UnitFlagInCombat
	UnitFlagNonAttackable
)

// MovementFlags is a bitset describing the movement of a unit.
type MovementFlags uint32

const (
	MovementFlagForward MovementFlags = 1 << iota
	MovementFlagBackward
	MovementFlagStrafeLeft
	MovementFlagStrafeRight
	MovementFlagRoot

	MovementMaskMoving = MovementFlagForward | MovementFlagBackward | MovementFlagStrafeLeft | MovementFlagStrafeRight
)

var movementFlagNames = []struct {
	flag MovementFlags
	name string
}{
	{MovementFlagForward, "forward"},
	{MovementFlagBackward, "backward"},
	{MovementFlagStrafeLeft, "strafeLeft"},
	{MovementFlagStrafeRight, "strafeRight"},
	{MovementFlagRoot, "root"},
}

// String lists the set flags separated by "|".
func (m MovementFlags) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for _, n := range movementFlagNames {
		if m&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// DeathState is Alive or Dead.
type DeathState uint8

const (
	Alive DeathState = iota
	Dead
)

// String implements fmt.Stringer.
func (d DeathState) String() string {
	if d == Dead {
		return "dead"
	}
	return "alive"
}

// AuraType is an aura effect category.
type AuraType uint16

const (
	AuraNone AuraType = iota
	AuraStunState
	AuraRootState
	AuraConfusionState
	AuraModDamageDone
	AuraModHealingDone
	AuraModHaste
	AuraChangeDisplayModel
)

var auraTypeNames = map[string]AuraType{
	"stun":         AuraStunState,
	"root":         AuraRootState,
	"confusion":    AuraConfusionState,
	"damageDone":   AuraModDamageDone,
	"healingDone":  AuraModHealingDone,
	"haste":        AuraModHaste,
	"displayModel": AuraChangeDisplayModel,
}

// ParseAuraType converts an aura effect name into its category.
func ParseAuraType(s string) (AuraType, error) {
	if t, ok := auraTypeNames[s]; ok {
		return t, nil
	}
	return AuraNone, fmt.Errorf("unknown aura type %q", s)
}

// String returns the name accepted by ParseAuraType.
func (t AuraType) String() string {
	for name, v := range auraTypeNames {
		if v == t {
			return name
		}
	}
	return "none"
}

// ControlState returns the control state an aura category forces, if any.
func (t AuraType) ControlState() (ControlState, bool) {
	switch t {
	case AuraStunState:
		return StateStunned, true
	case AuraRootState:
		return StateRoot, true
	case AuraConfusionState:
		return StateConfused, true
	default:
		return 0, false
	}
}
