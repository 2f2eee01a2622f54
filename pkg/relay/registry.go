package relay

import "sync"

// Registry tracks live handles and the room each one is currently in. The
// room entry is a back-reference for cleanup; RoomTable owns membership.
type Registry struct {
	mu    sync.RWMutex
	conns map[Handle]string
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[Handle]string)}
}

// Register adds h with no room association. Registering a live handle again
// keeps its current room.
func (r *Registry) Register(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[h]; !ok {
		r.conns[h] = ""
	}
}

// Unregister drops h and its room back-reference. Unknown handles are ignored.
func (r *Registry) Unregister(h Handle) {
	r.remove(h)
}

// Live reports whether h is registered.
func (r *Registry) Live(h Handle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[h]
	return ok
}

// CurrentRoom returns the room h has joined, if any.
func (r *Registry) CurrentRoom(h Handle) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.conns[h]
	if !ok || room == "" {
		return "", false
	}
	return room, true
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// assign records roomID for h. It returns false when h is not registered.
func (r *Registry) assign(h Handle, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[h]; !ok {
		return false
	}
	r.conns[h] = roomID
	return true
}

// remove unregisters h and returns the room it was in. ok is false when h was
// not registered.
func (r *Registry) remove(h Handle) (room string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok = r.conns[h]
	if ok {
		delete(r.conns, h)
	}
	return room, ok
}
