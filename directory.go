package thoughtbot

import (
	"encoding/json"
	"sync"
)

// Directory deduplicates Users seen across inbound messages, keyed by id.
// First seen wins for a given id unless a caller explicitly Updates it —
// the remember stage calls See for the matched message's user on every
// successful run.
type Directory struct {
	mu    sync.Mutex
	users map[string]User
}

// NewDirectory builds an empty Directory.
func NewDirectory() *Directory {
	return &Directory{users: make(map[string]User)}
}

// See records user if its id has never been seen, otherwise returns the
// previously stored record unchanged.
func (d *Directory) See(user User) User {
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.users[user.ID]; ok {
		return existing
	}
	d.users[user.ID] = user
	return user
}

// Update explicitly overwrites the stored record for user.ID.
func (d *Directory) Update(user User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user
}

// Get returns the stored record for id, if any.
func (d *Directory) Get(id string) (User, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	return u, ok
}

// Len reports how many distinct users have been seen.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.users)
}

// Snapshot copies the id → user mapping for the "users" sub a StorageAdapter
// persists under SaveMemory.
func (d *Directory) Snapshot() map[string]User {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]User, len(d.users))
	for k, v := range d.users {
		out[k] = v
	}
	return out
}

// Load replaces the directory's contents wholesale, used to rehydrate the
// "users" sub from a StorageAdapter's LoadMemory at startup.
func (d *Directory) Load(users map[string]User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users = make(map[string]User, len(users))
	for k, v := range users {
		d.users[k] = v
	}
}

// DecodeUsers converts the raw "users" value returned by a StorageAdapter's
// LoadMemory into a map[string]User. An in-process adapter (tests, a
// hand-rolled fake) may hand back the typed map directly; a real adapter
// that round-trips SaveMemory's payload through JSON hands back a
// map[string]interface{} instead, since that's what json.Unmarshal
// produces for a nested object with no static type to target. Re-encoding
// and decoding into the typed map handles both shapes uniformly.
func DecodeUsers(raw any) (map[string]User, error) {
	if typed, ok := raw.(map[string]User); ok {
		return typed, nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var users map[string]User
	if err := json.Unmarshal(encoded, &users); err != nil {
		return nil, err
	}
	return users, nil
}
