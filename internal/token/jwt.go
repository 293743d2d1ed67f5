package token

import (
	"fmt"
	"time"

	"github.com/eventa-io/eventa-server/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents access-token claims. Roles is carried for future
// role-based checks and is currently always empty.
type Claims struct {
	jwt.RegisteredClaims
	Nickname string   `json:"nickname"`
	Roles    []string `json:"roles"`
}

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey string
	issuer    string
	accessTTL time.Duration
}

// NewJWT creates a new JWT token manager. Secret and issuer come from
// process configuration; tokens signed with a different secret or issuer
// fail verification.
func NewJWT(secretKey, issuer string, accessTTL time.Duration) *JWT {
	return &JWT{secretKey: secretKey, issuer: issuer, accessTTL: accessTTL}
}

var _ model.TokenManager = (*JWT)(nil)

// GenerateAccessToken creates a short-lived signed access token for the user.
func (j *JWT) GenerateAccessToken(user model.User) (string, time.Duration, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
		},
		Nickname: user.Nickname,
		Roles:    []string{},
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, j.accessTTL, nil
}

// ParseAccessToken verifies signature, issuer and expiry, and extracts
// the principal from a token's claims.
func (j *JWT) ParseAccessToken(tokenString string) (model.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	}, jwt.WithIssuer(j.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return model.Principal{}, fmt.Errorf("failed to parse access token: %w", err)
	}
	if !token.Valid {
		return model.Principal{}, fmt.Errorf("access token is invalid")
	}

	userID, err := uuidFromSubject(claims.Subject)
	if err != nil {
		return model.Principal{}, err
	}

	return model.Principal{
		UserID:   userID,
		Nickname: claims.Nickname,
		Roles:    claims.Roles,
	}, nil
}

func uuidFromSubject(subject string) (uuid.UUID, error) {
	userID, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse subject claim: %w", err)
	}
	return userID, nil
}
