package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/facevote/internal/common"
)

// UserRecord is the public view of a voter returned by the lookup route.
type UserRecord struct {
	ID        string `json:"_id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Location  string `json:"location"`
}

type VerifyResponse struct {
	Eligible bool `json:"eligible"`
}

// handleUserByUsername answers with a JSON array holding zero or one
// records; an unknown username is an empty array, not a 404.
func (s *Server) handleUserByUsername(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := r.PathValue("username")

	v, err := s.deps.Voters.Lookup(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeJSON(w, http.StatusOK, []UserRecord{})
			return
		}
		s.logger.Error(ctx, "voter lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, []UserRecord{{
		ID:        v.ID,
		Username:  v.Username,
		FirstName: v.FirstName,
		LastName:  v.LastName,
		Location:  v.Location,
	}})
}

func (s *Server) handleVerifyUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ok, err := s.deps.Voters.Verify(ctx, r.PathValue("username"))
	if err != nil {
		s.logger.Error(ctx, "voter verify", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, VerifyResponse{Eligible: ok})
}
