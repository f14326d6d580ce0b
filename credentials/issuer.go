/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package credentials issues and fetches the tokens that let a browser or a
// voice agent join the media room of a debate.
package credentials

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Seednode/debatebox/arena"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of an issued room token.
const DefaultTTL = 2 * time.Hour

// ErrUnavailable is returned when no credentials can be produced.
var ErrUnavailable = errors.New("credentials: unavailable")

// VideoGrant scopes a token to a single room.
type VideoGrant struct {
	Room     string `json:"room"`
	RoomJoin bool   `json:"roomJoin"`
}

// Claims are the JWT claims of a room-join token.
type Claims struct {
	Video VideoGrant `json:"video"`
	Name  string     `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs room-join tokens with an API key and secret.
type Issuer struct {
	url    string
	apiKey string
	secret []byte

	TTL time.Duration
	now func() time.Time
}

// NewIssuer returns an issuer for the media server at url.
func NewIssuer(url, apiKey, apiSecret string) *Issuer {
	return &Issuer{
		url:    url,
		apiKey: apiKey,
		secret: []byte(apiSecret),
		TTL:    DefaultTTL,
		now:    time.Now,
	}
}

// URL is the media server address handed to clients alongside tokens.
func (i *Issuer) URL() string {
	return i.url
}

// Issue signs a token letting identity join room.
func (i *Issuer) Issue(room, identity string) (string, error) {
	if len(i.secret) == 0 || i.apiKey == "" {
		return "", fmt.Errorf("%w: no api key or secret configured", ErrUnavailable)
	}
	if room == "" || identity == "" {
		return "", errors.New("credentials: room and identity are required")
	}

	now := i.now()
	claims := &Claims{
		Video: VideoGrant{
			Room:     room,
			RoomJoin: true,
		},
		Name: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   identity,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.TTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("credentials: sign token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a token signed by this issuer.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(i.apiKey),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("credentials: verify token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("credentials: invalid token")
	}

	return claims, nil
}

// Credentials issues credentials in-process, so the server can act as its
// own credential endpoint.
func (i *Issuer) Credentials(_ context.Context, req arena.JoinRequest) (arena.Credentials, error) {
	identity := req.User
	if identity == "" {
		identity = AnonymousIdentity()
	}

	token, err := i.Issue(req.Room, identity)
	if err != nil {
		return arena.Credentials{}, err
	}

	return arena.Credentials{URL: i.url, Token: token}, nil
}

// AnonymousIdentity names a participant who did not pick a name.
func AnonymousIdentity() string {
	id := uuid.New()
	return "human-" + hex.EncodeToString(id[:3])
}
