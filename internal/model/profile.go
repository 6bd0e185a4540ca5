package model

import "time"

// Profile is the user CLI profile, zero values are not set.
type Profile struct {
	APIURL       string
	UserID       string
	PollInterval time.Duration
	PollTimeout  time.Duration
	HTTPTimeout  time.Duration
}
