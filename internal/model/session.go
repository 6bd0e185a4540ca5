package model

import "time"

// Session is an orchestrator conversation session.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}
