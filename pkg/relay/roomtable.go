package relay

import "sync"

// RoomTable maps room ids to their members in join order.
//
// Every mutation holds the table lock, so joins and leaves on a room are
// linearized. Members returns a copy taken under the read lock.
type RoomTable struct {
	mu         sync.RWMutex
	rooms      map[string]*room
	maxMembers int
}

type room struct {
	members []Handle
	present map[Handle]struct{}
}

// NewRoomTable returns an empty table. maxMembers <= 0 leaves rooms
// unbounded.
func NewRoomTable(maxMembers int) *RoomTable {
	if maxMembers < 0 {
		maxMembers = 0
	}
	return &RoomTable{
		rooms:      make(map[string]*room),
		maxMembers: maxMembers,
	}
}

// Join adds h to roomID, creating the room if needed, and returns the
// earliest member that was already present. It returns ok=false when the room
// was empty or h was already a member; the latter changes nothing.
func (t *RoomTable) Join(roomID string, h Handle) (peer Handle, ok bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.rooms[roomID]
	if r == nil {
		r = &room{present: make(map[Handle]struct{})}
		t.rooms[roomID] = r
	}
	if _, dup := r.present[h]; dup {
		return "", false, nil
	}
	if t.maxMembers > 0 && len(r.members) >= t.maxMembers {
		return "", false, ErrRoomFull
	}

	if len(r.members) > 0 {
		peer, ok = r.members[0], true
	}
	r.members = append(r.members, h)
	r.present[h] = struct{}{}
	return peer, ok, nil
}

// Leave removes h from roomID and deletes the room once it is empty. Absent
// handles and rooms are ignored.
func (t *RoomTable) Leave(roomID string, h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.rooms[roomID]
	if r == nil {
		return
	}
	if _, ok := r.present[h]; !ok {
		return
	}
	delete(r.present, h)
	for i, m := range r.members {
		if m == h {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	if len(r.members) == 0 {
		delete(t.rooms, roomID)
	}
}

// Members returns the members of roomID in join order. A missing room has no
// members.
func (t *RoomTable) Members(roomID string) []Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r := t.rooms[roomID]
	if r == nil {
		return nil
	}
	out := make([]Handle, len(r.members))
	copy(out, r.members)
	return out
}

// Rooms returns the number of non-empty rooms.
func (t *RoomTable) Rooms() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms)
}

// MaxMembers returns the configured cap, 0 when unbounded.
func (t *RoomTable) MaxMembers() int {
	return t.maxMembers
}
