// Package movement holds the movement and in-progress action state the
// control-state machine drives for one unit.
package movement

import (
	"sync"

	"github.com/OCAP2/unitcore/pkg/core"
)

// Action is an in-progress action such as a spell cast.
type Action struct {
	SpellID int
	Target  core.Handle
}

// Controller tracks movement flags, free movement control and the current action.
type Controller struct {
	mu           sync.Mutex
	flags        core.MovementFlags
	freeControl  bool
	action       *Action
	stops        int
	cancellation int
}

// NewController returns a controller with free movement control enabled.
func NewController() *Controller {
	return &Controller{freeControl: true}
}

// StartAction begins a new action, replacing the current one.
func (c *Controller) StartAction(a Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.action = &a
}

// FinishAction completes the current action without counting a cancellation.
func (c *Controller) FinishAction() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.action = nil
}

// CurrentAction returns the in-progress action.
func (c *Controller) CurrentAction() (Action, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.action == nil {
		return Action{}, false
	}
	return *c.action, true
}

// IsCasting reports whether an action is in progress.
func (c *Controller) IsCasting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.action != nil
}

// CancelCurrentAction drops the in-progress action, if any.
func (c *Controller) CancelCurrentAction() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.action != nil {
		c.action = nil
		c.cancellation++
	}
}

// StopAllMovement clears every moving flag.
func (c *Controller) StopAllMovement() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flags &^= core.MovementMaskMoving
	c.stops++
}

// SetMovementFlag sets or clears flag.
func (c *Controller) SetMovementFlag(flag core.MovementFlags, applied bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if applied {
		c.flags |= flag
	} else {
		c.flags &^= flag
	}
}

// HasMovementFlag reports whether every bit of flag is set.
func (c *Controller) HasMovementFlag(flag core.MovementFlags) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flags&flag == flag
}

// Flags returns the current movement flags.
func (c *Controller) Flags() core.MovementFlags {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flags
}

// SetFreeMovementControl enables or disables player-driven movement.
func (c *Controller) SetFreeMovementControl(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.freeControl = enabled
}

// FreeMovementControl reports whether player-driven movement is enabled.
func (c *Controller) FreeMovementControl() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.freeControl
}

// Stats returns how many times movement was stopped and an action was cancelled.
func (c *Controller) Stats() (stops, cancellations int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops, c.cancellation
}
