package session

// State is what a session remembers between commands. A nil field was
// never set; a pointer to "" was set to the empty string.
type State struct {
	Title       *string
	Description *string
}

// snapshot returns a copy that shares no memory with the receiver.
func (state State) snapshot() State {
	return State{
		Title:       copyText(state.Title),
		Description: copyText(state.Description),
	}
}

func copyText(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
