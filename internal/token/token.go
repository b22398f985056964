package token

import (
	"crypto/rand"
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL is the fixed lifetime of an issued token. Expiry is the only
// invalidation mechanism; there is no revocation list.
const TTL = time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims are the assertions carried by an issued token.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// Issuer signs and verifies identity assertions with a symmetric secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer builds an Issuer around the given secret. An empty secret gets
// replaced with a random key so a misconfigured instance still refuses
// forged tokens; tokens then only verify within the same process.
func NewIssuer(secret []byte) *Issuer {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			panic("failed to generate jwt key: " + err.Error())
		}
	}
	return &Issuer{secret: secret, ttl: TTL}
}

// IssuerFromEnv builds an Issuer from the JWT_SECRET environment variable.
func IssuerFromEnv() *Issuer {
	return NewIssuer([]byte(os.Getenv("JWT_SECRET")))
}

// Issue signs a token carrying the user's id and email, valid for TTL.
func (i *Issuer) Issue(userID int64, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserID: userID,
		Email:  email,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(i.secret)
}

// Verify parses and validates a token string. Any structural or signature
// defect is a hard rejection. Expired tokens are reported as ErrTokenExpired,
// everything else as ErrInvalidToken.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
