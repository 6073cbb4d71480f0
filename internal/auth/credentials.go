// Package auth owns the access/refresh token pair for the remote quantum
// job API: expiry inspection, refresh, interactive login fallback and
// persistence into the shared config document.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Config document keys the manager persists credentials under. The
// "honeywell.global" namespace is shared with other provider tooling, so
// writes must preserve sibling keys.
const (
	KeyAccessToken  = "honeywell.global.access_token"
	KeyRefreshToken = "honeywell.global.refresh_token"
	KeyUser         = "honeywell.global.user"

	// EnvUser supplies the account identity when no explicit user is configured.
	EnvUser = "HQS_USER"
)

// ErrInvalidToken marks a token that cannot be decoded or carries no expiry claim.
var ErrInvalidToken = errors.New("auth: invalid token")

// ErrMissingIdentity marks a login attempt without a configured user identity.
var ErrMissingIdentity = errors.New("auth: no user identity configured")

// ErrExpiredRefreshToken marks a refresh rejected by the server (HTTP 400/403).
// It is recovered internally by falling back to a full login.
var ErrExpiredRefreshToken = errors.New("auth: refresh token expired")

// Credentials holds the token pair for one account. Tokens are opaque JWTs;
// only the expiry claim is ever inspected locally.
type Credentials struct {
	User         string
	AccessToken  string
	RefreshToken string
}

// TokenExpired decodes the token's expiry claim without verifying the
// signature and compares it against now. Undecodable tokens and tokens
// without an expiry claim report ErrInvalidToken.
func TokenExpired(token string, now time.Time) (bool, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false, errors.Wrap(ErrInvalidToken, err.Error())
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return false, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if exp == nil {
		return false, errors.Wrap(ErrInvalidToken, "token has no expiry claim")
	}
	return !now.Before(exp.Time), nil
}
