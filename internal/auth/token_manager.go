package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the structured claims extracted from a validated token.
type Claims struct {
	WalletAddress string
	Role          Role
	SessionID     string
	ExpiresAt     time.Time
}

type tokenClaims struct {
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionToken is a signed access token for one wallet session.
type SessionToken struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TokenManager signs and validates wallet session tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret, issuer string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if issuer == "" {
		return nil, errors.New("token issuer must not be empty")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (m *TokenManager) Issue(identity Identity) (SessionToken, error) {
	issuedAt := m.now()
	expiresAt := issuedAt.Add(m.ttl)

	claims := tokenClaims{
		Role:      identity.Role.String(),
		SessionID: identity.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   identity.WalletAddress,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{AccessToken: signed, ExpiresAt: expiresAt}, nil
}

func (m *TokenManager) ParseAndValidate(rawToken string) (Claims, error) {
	claims := tokenClaims{}
	token, err := jwt.ParseWithClaims(rawToken, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Issuer != m.issuer || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	role := Role(claims.Role)
	if !isKnownRole(role) {
		return Claims{}, ErrInvalidToken
	}

	if claims.ExpiresAt == nil {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		WalletAddress: claims.Subject,
		Role:          role,
		SessionID:     claims.SessionID,
		ExpiresAt:     claims.ExpiresAt.Time,
	}, nil
}

func isKnownRole(role Role) bool {
	for _, known := range Roles() {
		if role == known {
			return true
		}
	}
	return false
}
