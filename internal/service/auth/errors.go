package auth

import "errors"

// Token validation failures. The API layer maps all of them to 401.
var (
	ErrMissingToken     = errors.New("authentication token is missing")
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrWrongTokenType means an access token was used as a refresh token
	// or the other way round.
	ErrWrongTokenType = errors.New("wrong token type")

	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrExpiredRefreshToken = errors.New("refresh token has expired")
)
