package client

import (
	"context"
	"time"
)

// RecognitionResponse is the envelope returned by POST /face-recognition.
type RecognitionResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username,omitempty"`
	Token    string `json:"token,omitempty"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message,omitempty"`
}

// UserRecord is one element of GET /user/username/{username}.
type UserRecord struct {
	ID        string `json:"_id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Location  string `json:"location"`
}

// VoteRequest is the body of POST /api/vote/submit.
type VoteRequest struct {
	Voter     string    `json:"voter"`
	Candidate string    `json:"candidate"`
	Timestamp time.Time `json:"timestamp"`
}

// VoteResponse is the body returned for an accepted ballot.
type VoteResponse struct {
	Success  bool   `json:"success"`
	BallotID string `json:"ballotId,omitempty"`
	Receipt  string `json:"receipt,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Client is the transport used by the client services. Each method performs
// exactly one request.
type Client interface {
	// FaceRecognition triggers one recognition attempt on the server.
	FaceRecognition(ctx context.Context) (*RecognitionResponse, error)
	// LookupUser returns the user record or common.ErrorNotFound.
	LookupUser(ctx context.Context, username string) (*UserRecord, error)
	// VerifyUser reports whether the user may vote.
	VerifyUser(ctx context.Context, username string) (bool, error)
	// SubmitVote submits a ballot. token may be empty.
	SubmitVote(ctx context.Context, req VoteRequest, token string) (*VoteResponse, error)
}
