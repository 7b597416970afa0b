package thoughtbot

import (
	"fmt"
	"sync"
)

// Scope controls which part of a User/Room pair forms a Dialogue's audience
// key.
type Scope int

const (
	// ScopeUserRoom keys on both user and room — the same user in two
	// different rooms gets two independent dialogues.
	ScopeUserRoom Scope = iota
	// ScopeUser keys on the user alone, across every room they appear in.
	ScopeUser
	// ScopeRoom keys on the room alone, shared by every user in it.
	ScopeRoom
)

func audienceKey(scope Scope, user User) string {
	switch scope {
	case ScopeUser:
		return "user:" + user.ID
	case ScopeRoom:
		return "room:" + user.Room.ID
	default:
		return fmt.Sprintf("user+room:%s:%s", user.ID, user.Room.ID)
	}
}

// Dialogue scopes a private Path to one audience for the duration of a
// conversation. ProgressPath, RevertPath and Dialogues.Close implement the
// per-turn engagement lifecycle that Thoughts.Receive drives.
type Dialogue struct {
	AudienceKey  string
	path         *Path
	previousPath *Path
}

// ProgressPath snapshots the dialogue's current path as previousPath and
// installs a fresh, empty Path for branch callbacks in this turn to add
// follow-up branches to. It returns the fresh path.
func (d *Dialogue) ProgressPath() *Path {
	d.previousPath = d.path
	d.path = NewPath()
	return d.path
}

// RevertPath restores the path snapshotted by the most recent ProgressPath,
// called when a turn under this dialogue matched nothing.
func (d *Dialogue) RevertPath() {
	if d.previousPath != nil {
		d.path = d.previousPath
		d.previousPath = nil
	}
}

// Path returns the dialogue's currently active Path.
func (d *Dialogue) Path() *Path { return d.path }

// Dialogues is the process-wide registry of engaged Dialogues, keyed by
// audience.
type Dialogues struct {
	mu    sync.Mutex
	scope Scope
	byKey map[string]*Dialogue
}

// NewDialogues builds an empty registry scoped by user+room.
func NewDialogues() *Dialogues {
	return &Dialogues{scope: ScopeUserRoom, byKey: make(map[string]*Dialogue)}
}

// NewDialoguesScoped builds an empty registry under the given Scope.
func NewDialoguesScoped(scope Scope) *Dialogues {
	return &Dialogues{scope: scope, byKey: make(map[string]*Dialogue)}
}

// Engaged returns the Dialogue for user's audience, or nil if none is
// engaged.
func (r *Dialogues) Engaged(user User) *Dialogue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byKey[audienceKey(r.scope, user)]
}

// Engage starts (or replaces) a Dialogue for user's audience with the given
// initial Path, typically called from a branch callback that wants the
// next turn scoped to a private conversation.
func (r *Dialogues) Engage(user User, path *Path) *Dialogue {
	key := audienceKey(r.scope, user)
	d := &Dialogue{AudienceKey: key, path: path}
	r.mu.Lock()
	r.byKey[key] = d
	r.mu.Unlock()
	return d
}

// Close removes the Dialogue for the given audience key.
func (r *Dialogues) Close(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byKey, key)
}

// List enumerates currently engaged audience keys, for introspection
// commands such as a status branch.
func (r *Dialogues) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		keys = append(keys, k)
	}
	return keys
}
