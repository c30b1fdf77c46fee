package user

// Principal is the authenticated streamer operating the dashboard surface.
type Principal struct {
	UserID   string
	Username string
}
