package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/facevote/internal/common"
)

const maxBallotBody = 16 << 10

type SubmitRequest struct {
	Voter     string    `json:"voter"`
	Candidate string    `json:"candidate"`
	Timestamp time.Time `json:"timestamp"`
}

type SubmitResponse struct {
	Success  bool   `json:"success"`
	BallotID string `json:"ballotId,omitempty"`
	Receipt  string `json:"receipt,omitempty"`
	Error    string `json:"error,omitempty"`
}

type TallyResponse struct {
	Counts map[string]int64 `json:"counts"`
}

func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SubmitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBallotBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Error: "request body must be valid JSON"})
		return
	}

	if s.deps.Tokens != nil {
		if !s.tokenMatches(r, req.Voter) {
			s.deps.Metrics.IncBallot("rejected")
			writeJSON(w, http.StatusUnauthorized, SubmitResponse{Error: "missing or invalid voter token"})
			return
		}
	}

	b, err := s.deps.Ballots.Submit(ctx, req.Voter, req.Candidate, req.Timestamp)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorInvalidBallot):
			s.deps.Metrics.IncBallot("rejected")
			writeJSON(w, http.StatusBadRequest, SubmitResponse{Error: "voter, candidate and timestamp are required"})
		case errors.Is(err, common.ErrorIneligible):
			s.deps.Metrics.IncBallot("ineligible")
			writeJSON(w, http.StatusForbidden, SubmitResponse{Error: "voter is not eligible"})
		case errors.Is(err, common.ErrorAlreadyVoted):
			s.deps.Metrics.IncBallot("duplicate")
			writeJSON(w, http.StatusConflict, SubmitResponse{Error: "voter has already voted"})
		default:
			s.deps.Metrics.IncBallot("error")
			s.logger.Error(ctx, "submit ballot", "error", err)
			writeJSON(w, http.StatusInternalServerError, SubmitResponse{Error: "internal error"})
		}
		return
	}

	s.deps.Metrics.IncBallot("accepted")
	s.logger.Info(ctx, "ballot recorded", "ballot_id", b.ID, "voter", b.Voter)
	writeJSON(w, http.StatusCreated, SubmitResponse{Success: true, BallotID: b.ID, Receipt: b.Receipt})
}

// tokenMatches checks that the bearer token was issued for voter.
func (s *Server) tokenMatches(r *http.Request, voter string) bool {
	h := r.Header.Get(common.AuthorizationHeaderName)
	token, ok := strings.CutPrefix(h, common.BearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		return false
	}

	username, err := s.deps.Tokens.Verify(strings.TrimSpace(token))
	if err != nil {
		return false
	}
	return username == strings.TrimSpace(voter)
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := s.deps.Ballots.Tally(ctx)
	if err != nil {
		s.logger.Error(ctx, "tally", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, TallyResponse{Counts: counts})
}
