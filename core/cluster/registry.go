package cluster

import (
	"sync"

	"github.com/harsheyeditor/OneBlood/core/model"
)

// Role distinguishes the two kinds of connected actors.
type Role string

const (
	RoleHospital Role = "hospital"
	RoleDonor    Role = "donor"
)

// Conn is a live connection handle. Implementations must tolerate Send being
// called after Close; such sends are dropped.
type Conn interface {
	Identity() string
	Send(event string, payload []byte) error
}

type entry struct {
	conn Conn
	role Role
	cell string
}

// Registry tracks one live connection per identity plus per-cell membership.
// A reconnect under the same identity is last-writer-wins. All methods are
// safe for concurrent use; iteration snapshots handles so the lock is never
// held while a callback or send runs.
type Registry struct {
	mu         sync.RWMutex
	byIdentity map[string]*entry
	byCell     map[string]map[string]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byIdentity: make(map[string]*entry),
		byCell:     make(map[string]map[string]*entry),
	}
}

// Connect registers a connection under its identity and homes it in the cell
// for loc. An existing connection for the identity is displaced.
func (r *Registry) Connect(c Conn, role Role, loc model.GeoPoint) {
	id := c.Identity()
	cell := CellKey(loc)
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byIdentity[id]; ok {
		r.removeFromCellLocked(id, old.cell)
	}
	e := &entry{conn: c, role: role, cell: cell}
	r.byIdentity[id] = e
	r.addToCellLocked(id, e)
}

// Disconnect removes every registry entry for the identity. A stale handle
// (already replaced by a reconnect) is left untouched.
func (r *Registry) Disconnect(c Conn) {
	id := c.Identity()
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byIdentity[id]
	if !ok || e.conn != c {
		return
	}
	r.removeFromCellLocked(id, e.cell)
	delete(r.byIdentity, id)
}

// Rehome moves the identity's connection to the cell for loc: removed from
// the old cell set first, then added to the new one. At most one cell
// membership holds at any time.
func (r *Registry) Rehome(identity string, loc model.GeoPoint) {
	cell := CellKey(loc)
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byIdentity[identity]
	if !ok || e.cell == cell {
		return
	}
	r.removeFromCellLocked(identity, e.cell)
	e.cell = cell
	r.addToCellLocked(identity, e)
}

// Identity returns the live connection for an identity, if any.
func (r *Registry) Identity(identity string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byIdentity[identity]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// Cell returns a snapshot of the connections homed in the cell for loc,
// optionally restricted to one role (empty role means all).
func (r *Registry) Cell(loc model.GeoPoint, role Role) []Conn {
	cell := CellKey(loc)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Conn
	for _, e := range r.byCell[cell] {
		if role == "" || e.role == role {
			out = append(out, e.conn)
		}
	}
	return out
}

// All returns a snapshot of every live connection.
func (r *Registry) All() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.byIdentity))
	for _, e := range r.byIdentity {
		out = append(out, e.conn)
	}
	return out
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byIdentity)
}

func (r *Registry) addToCellLocked(id string, e *entry) {
	set, ok := r.byCell[e.cell]
	if !ok {
		set = make(map[string]*entry)
		r.byCell[e.cell] = set
	}
	set[id] = e
}

func (r *Registry) removeFromCellLocked(id, cell string) {
	set, ok := r.byCell[cell]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.byCell, cell)
	}
}
