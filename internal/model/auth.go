package model

import "time"

// TokenType is the scheme clients present access tokens with.
const TokenType = "Bearer"

// AuthResult is the bundle returned by login and refresh flows.
type AuthResult struct {
	Username     string
	Roles        []string
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    time.Duration
	User         User
	Properties   map[string]string
}
