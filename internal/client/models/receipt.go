// Package models defines client-side data models used by the facevote CLI.
package models

import "time"

// Receipt is the local record of an accepted ballot.
type Receipt struct {
	// BallotID is the server-assigned ballot identifier.
	BallotID string

	Voter     string
	Candidate string

	// CastAt is the client-generated ballot timestamp in UTC.
	CastAt time.Time

	// Receipt is the digest returned by the server.
	Receipt string

	// Verified reports whether Receipt matched the locally computed digest.
	Verified bool

	CreatedAt time.Time
}
