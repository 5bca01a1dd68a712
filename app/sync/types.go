// Package sync talks to the remote save endpoint and keeps its session
// tokens fresh.
package sync

import (
	"errors"

	"shopicsv/app/rowstore"
)

// ErrUnauthorized is returned when no usable session token can be obtained
var ErrUnauthorized = errors.New("not authorized: please log in again")

// Logger interface for transport diagnostics
type Logger interface {
	Log(level, message string)
}

// TokenStore persists the session/refresh token pair
type TokenStore interface {
	Tokens() (sessionToken, refreshToken string)
	SetTokens(sessionToken, refreshToken string) error
	ClearTokens() error
}

// SaveFileRequest is the body of POST /files/save
type SaveFileRequest struct {
	File     []rowstore.Row `json:"file"`
	FileName string         `json:"fileName"`
}

// RefreshRequest is the body of POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse is returned by POST /auth/refresh
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// ErrorResponse is the error envelope of the API
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
