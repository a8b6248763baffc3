// Package session tracks the combat session currently being recorded.
package session

import (
	"sync"

	"github.com/OCAP2/unitcore/pkg/core"
)

// NoSessionName is reported while no session is active.
const NoSessionName = "No session loaded"

// Context holds the current session
type Context struct {
	mu      sync.RWMutex
	session *core.Session
}

// NewContext creates a Context with no active session
func NewContext() *Context {
	return &Context{}
}

// Get returns a copy of the current session and whether one is active
func (c *Context) Get() (core.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return core.Session{Name: NoSessionName}, false
	}
	return *c.session, true
}

// Name returns the current session name
func (c *Context) Name() string {
	s, _ := c.Get()
	return s.Name
}

// ID returns the current session ID, 0 when none is active
func (c *Context) ID() uint {
	s, _ := c.Get()
	return s.ID
}

// Active reports whether a session is being recorded
func (c *Context) Active() bool {
	_, ok := c.Get()
	return ok
}

// Set makes s the current session
func (c *Context) Set(s *core.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// Clear ends the current session and returns it
func (c *Context) Clear() (core.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return core.Session{}, false
	}
	s := *c.session
	c.session = nil
	return s, true
}
