package ws

import "time"

// ConnInfo describes the current realtime connection.
type ConnInfo struct {
	ConnID      string
	UserID      string
	URL         string
	Attempt     int
	ConnectedAt time.Time
}
