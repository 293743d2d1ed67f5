package model

import "errors"

var (
	ErrTokenExpired   = errors.New("refresh token expired")
	ErrTokenUsed      = errors.New("refresh token already used")
	ErrTokenOwnership = errors.New("refresh token belongs to another user")
)
