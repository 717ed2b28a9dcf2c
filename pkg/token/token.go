package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned when a token fails signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the identity fields embedded in issued tokens.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
}

// Issuer mints and verifies HMAC-signed bearer tokens. Every token gets a
// unique jti so the matching session record can be revoked on logout.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewIssuer(secret []byte, issuer string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
	}
}

// Issue signs a token for the given identity and returns the signed string
// together with the claims that went into it.
func (i *Issuer) Issue(username, userID, role string) (string, Claims, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Username: username,
		UserID:   userID,
		Role:     role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, claims, nil
}

// Parse verifies the signature and expiry of a token string and returns its
// claims.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
