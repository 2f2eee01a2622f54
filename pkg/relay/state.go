package relay

// State is the shared relay state: one Registry and one RoomTable for the
// whole process. Build it once at startup and pass it to every component.
type State struct {
	Registry *Registry
	Rooms    *RoomTable
}

// StateOptions configures NewState.
type StateOptions struct {
	// MaxRoomMembers caps room size. Zero keeps rooms unbounded.
	MaxRoomMembers int
}

func NewState(opts StateOptions) *State {
	return &State{
		Registry: NewRegistry(),
		Rooms:    NewRoomTable(opts.MaxRoomMembers),
	}
}

// ActiveConnections implements metrics.Gauges.
func (s *State) ActiveConnections() int {
	return s.Registry.Len()
}

// ActiveRooms implements metrics.Gauges.
func (s *State) ActiveRooms() int {
	return s.Rooms.Rooms()
}
