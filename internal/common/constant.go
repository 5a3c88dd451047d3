// Package common contains shared constants and sentinel errors used across
// facevote components.
package common

// AuthorizationHeaderName carries the voter token on vote submission.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the voter token in AuthorizationHeaderName.
const BearerPrefix = "Bearer "
