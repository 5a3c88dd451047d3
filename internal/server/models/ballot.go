package models

import "time"

// Ballot is a recorded vote. CastAt is the client-supplied timestamp,
// CreatedAt is when the server stored it.
type Ballot struct {
	ID        string
	VoterID   string
	Voter     string
	Candidate string
	CastAt    time.Time
	Receipt   string
	CreatedAt time.Time
}
