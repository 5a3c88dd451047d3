package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/facevote/internal/client/client"
	"github.com/dmitrijs2005/facevote/internal/client/workflow"
)

// BiometricAuthenticator identifies the voter through server-side face
// recognition. Each call triggers exactly one recognition attempt.
type BiometricAuthenticator struct {
	client client.Client
}

func NewBiometricAuthenticator(c client.Client) *BiometricAuthenticator {
	return &BiometricAuthenticator{client: c}
}

// Authenticate returns the recognized username and the voter token issued
// with it. Errors carry the server's message, e.g. "no match".
func (a *BiometricAuthenticator) Authenticate(ctx context.Context) (workflow.Identity, error) {
	resp, err := a.client.FaceRecognition(ctx)
	if err != nil {
		return workflow.Identity{}, err
	}
	return workflow.Identity{Username: resp.Username, Token: resp.Token}, nil
}

// PromptFunc asks the user for a value.
type PromptFunc func(ctx context.Context) (string, error)

// ErrEmptyUsername is returned when the identity prompt yields nothing.
var ErrEmptyUsername = errors.New("username is required")

// StandardAuthenticator takes the username from a prompt without checking
// any credential. It is used when biometric mode is off.
type StandardAuthenticator struct {
	prompt PromptFunc
}

func NewStandardAuthenticator(prompt PromptFunc) *StandardAuthenticator {
	return &StandardAuthenticator{prompt: prompt}
}

func (a *StandardAuthenticator) Authenticate(ctx context.Context) (workflow.Identity, error) {
	username, err := a.prompt(ctx)
	if err != nil {
		return workflow.Identity{}, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return workflow.Identity{}, ErrEmptyUsername
	}
	return workflow.Identity{Username: username}, nil
}
