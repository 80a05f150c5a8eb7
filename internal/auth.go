package internal

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	cookieName  = "ehd_admin_token"
	tokenIssuer = "ehd-tour"
	roleAdmin   = "admin"
)

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminGate checks the configured admin credentials and issues signed admin
// tokens.
type AdminGate struct {
	username string
	passHash []byte
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAdminGate(username, password string, secret []byte, ttl time.Duration) (*AdminGate, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &AdminGate{
		username: username,
		passHash: hash,
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

func (g *AdminGate) TTL() time.Duration { return g.ttl }

func (g *AdminGate) Login(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(g.passHash, []byte(password)) == nil
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}

	now := g.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: roleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	})
	s, err := tok.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return s, nil
}

func (g *AdminGate) Verify(tokenStr string) error {
	tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(token *jwt.Token) (any, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || !tok.Valid {
		return ErrInvalidToken
	}
	cl, ok := tok.Claims.(*claims)
	if !ok || cl.Role != roleAdmin {
		return ErrInvalidToken
	}
	return nil
}
