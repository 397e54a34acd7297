package domain

// Screen represents a registered physical display.
// A screen shows at most one playlist at a time; an empty PlaylistID means
// nothing has been assigned yet.
type Screen struct {
	Timestamps
	OwnerID    string `json:"owner_id"`
	Name       string `json:"name"`
	Location   string `json:"location,omitempty"` // Free-form, e.g. "Lobby, 2nd floor"
	PlaylistID string `json:"playlist_id,omitempty"`
}

// HasPlaylist returns true if a playlist is currently assigned.
func (s *Screen) HasPlaylist() bool {
	return s.PlaylistID != ""
}

// AssignPlaylist sets the screen's playlist. Passing an empty ID clears
// the assignment.
func (s *Screen) AssignPlaylist(playlistID string) {
	s.PlaylistID = playlistID
}
