// Package services contains server-side business logic: voter lookup and
// eligibility, and transactional ballot recording.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/facevote/internal/common"
	"github.com/dmitrijs2005/facevote/internal/server/models"
	"github.com/dmitrijs2005/facevote/internal/server/repositories/repomanager"
)

type VoterService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewVoterService(db *sql.DB, m repomanager.RepositoryManager) *VoterService {
	return &VoterService{db: db, repomanager: m}
}

// Lookup returns the voter registered under username or
// common.ErrorNotFound.
func (s *VoterService) Lookup(ctx context.Context, username string) (*models.Voter, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, common.ErrorNotFound
	}

	v, err := s.repomanager.Voters(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error looking up voter: %w", err)
	}
	return v, nil
}

// Verify reports whether username may cast a ballot right now. Unknown
// voters and voters who already voted are not eligible.
func (s *VoterService) Verify(ctx context.Context, username string) (bool, error) {
	v, err := s.Lookup(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return v.Eligible && !v.HasVoted, nil
}

// Import registers voters that do not exist yet and returns how many were
// added. Existing usernames are left untouched.
func (s *VoterService) Import(ctx context.Context, voters []models.Voter) (int, error) {
	repo := s.repomanager.Voters(s.db)
	added := 0
	for i := range voters {
		v := voters[i]
		v.Username = strings.TrimSpace(v.Username)
		if v.Username == "" {
			continue
		}

		_, err := repo.GetByUsername(ctx, v.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return added, fmt.Errorf("error checking voter %s: %w", v.Username, err)
		}

		if _, err := repo.Create(ctx, &v); err != nil {
			return added, fmt.Errorf("error creating voter %s: %w", v.Username, err)
		}
		added++
	}
	return added, nil
}

type voterFileEntry struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Location  string `json:"location"`
	Eligible  *bool  `json:"eligible"`
}

// LoadVotersFile reads a JSON array of voters. Eligibility defaults to true.
func LoadVotersFile(path string) ([]models.Voter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read voters file: %w", err)
	}

	var entries []voterFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode voters file %s: %w", path, err)
	}

	res := make([]models.Voter, 0, len(entries))
	for _, e := range entries {
		eligible := true
		if e.Eligible != nil {
			eligible = *e.Eligible
		}
		res = append(res, models.Voter{
			Username:  e.Username,
			FirstName: e.FirstName,
			LastName:  e.LastName,
			Location:  e.Location,
			Eligible:  eligible,
		})
	}
	return res, nil
}
