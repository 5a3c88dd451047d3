package models

import "time"

// Voter is a registered user of the voting application.
type Voter struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	Location  string
	Eligible  bool
	HasVoted  bool
	CreatedAt time.Time
}
