// Package tickets signs the tokens that let a connection claim a seat again
// after it drops.
package tickets

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid covers every way a ticket can fail to check out.
var ErrInvalid = errors.New("invalid ticket")

const issuer = "banker"

type claims struct {
	jwt.RegisteredClaims
	Room string `json:"room"`
}

type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner makes a signer. A zero ttl means tickets never expire.
func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue makes a ticket for player's seat in room.
func (s *Signer) Issue(room, player string) (string, error) {
	now := s.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  player,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Room: room,
	}
	if s.ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return token, nil
}

// Verify checks a ticket was issued for room and says whose seat it is.
func (s *Signer) Verify(room, ticket string) (string, error) {
	ticket = strings.TrimSpace(ticket)
	if ticket == "" {
		return "", ErrInvalid
	}

	var c claims
	_, err := jwt.ParseWithClaims(ticket, &c, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Room != room || c.Subject == "" {
		return "", ErrInvalid
	}
	return c.Subject, nil
}
