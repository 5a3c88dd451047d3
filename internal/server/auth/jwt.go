// Package auth issues and verifies the short-lived voter token handed out
// after a successful face recognition.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/facevote/internal/common"
)

// Claims carries the recognized username in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

func GenerateToken(username string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func GetUsernameFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}

// Issuer binds a secret and lifetime so it can be handed to components
// that only need to mint or check tokens.
type Issuer struct {
	secretKey []byte
	validity  time.Duration
}

func NewIssuer(secretKey string, validity time.Duration) *Issuer {
	return &Issuer{secretKey: []byte(secretKey), validity: validity}
}

func (i *Issuer) GenerateToken(username string) (string, error) {
	return GenerateToken(username, i.secretKey, i.validity)
}

func (i *Issuer) Verify(token string) (string, error) {
	return GetUsernameFromToken(token, i.secretKey)
}
