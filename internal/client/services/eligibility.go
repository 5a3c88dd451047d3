package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/facevote/internal/client/client"
	"github.com/dmitrijs2005/facevote/internal/client/workflow"
	"github.com/dmitrijs2005/facevote/internal/common"
)

// EligibilityService looks the voter up and asks the server whether they may
// vote. Nothing is cached: every call performs fresh lookups.
type EligibilityService struct {
	client client.Client
}

func NewEligibilityService(c client.Client) *EligibilityService {
	return &EligibilityService{client: c}
}

// Check returns NotFound when no user record exists, then Eligible or
// Ineligible from the verify endpoint. Transport failures are errors.
func (s *EligibilityService) Check(ctx context.Context, username string) (workflow.Eligibility, error) {
	if _, err := s.client.LookupUser(ctx, username); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return workflow.NotFound, nil
		}
		return workflow.Ineligible, err
	}

	ok, err := s.client.VerifyUser(ctx, username)
	if err != nil {
		return workflow.Ineligible, err
	}
	if !ok {
		return workflow.Ineligible, nil
	}
	return workflow.Eligible, nil
}
