package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuerName = "echohub"

var ErrInvalidToken = errors.New("invalid session token")

// Claims is the payload of a session token. RegisteredClaims.ID carries a
// random session id so that two logins by the same user never produce the
// same token.
//
// Session tokens do not expire. A session ends only when it is logged out
// or when a password reset invalidates every session of the user.
type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens with HS256.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

func NewIssuer(secret string, now func() time.Time) *Issuer {
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: []byte(secret), now: now}
}

// Issue creates a signed token for userID.
func (i *Issuer) Issue(userID int) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(i.now()),
			Issuer:   issuerName,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature of tokenString and returns its claims. A
// token that parses is not necessarily a live session; the caller still
// has to look its digest up.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return i.secret, nil
		},
		jwt.WithIssuer(issuerName),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
