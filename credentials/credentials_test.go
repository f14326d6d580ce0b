/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/debatebox/arena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	iss := NewIssuer("wss://media.example:443", "devkey", "secret")

	token, err := iss.Issue("abc12345", "alice")
	require.NoError(t, err)

	claims, err := iss.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "abc12345", claims.Video.Room)
	assert.True(t, claims.Video.RoomJoin)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "devkey", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	token, err := NewIssuer("", "devkey", "secret").Issue("room", "bob")
	require.NoError(t, err)

	_, err = NewIssuer("", "devkey", "other-secret").Verify(token)
	assert.Error(t, err)

	_, err = NewIssuer("", "otherkey", "secret").Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredTokens(t *testing.T) {
	iss := NewIssuer("", "devkey", "secret")
	iss.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }

	token, err := iss.Issue("room", "bob")
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.Verify(token)
	assert.Error(t, err)
}

func TestIssueWithoutSecret(t *testing.T) {
	_, err := NewIssuer("", "devkey", "").Issue("room", "bob")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestIssuerAsCredentialSource(t *testing.T) {
	iss := NewIssuer("wss://media", "devkey", "secret")

	creds, err := iss.Credentials(context.Background(), arena.JoinRequest{Room: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "wss://media", creds.URL)

	claims, err := iss.Verify(creds.Token)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(claims.Subject, "human-"))
	assert.Len(t, claims.Subject, len("human-")+6)
}

func TestClientFetch(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/join", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"wss://media","token":"tok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	creds, err := c.Credentials(context.Background(), arena.JoinRequest{
		Room:     "r1",
		User:     "alice",
		Topic:    "Is AI good?",
		Personas: []string{"socrates", "einstein"},
	})
	require.NoError(t, err)

	assert.Equal(t, arena.Credentials{URL: "wss://media", Token: "tok"}, creds)
	assert.Equal(t, Request{
		Room:     "r1",
		User:     "alice",
		Topic:    "Is AI good?",
		Personas: []string{"socrates", "einstein"},
	}, got)
}

func TestClientFetchFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail":"Failed to join room"}`, http.StatusInternalServerError)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}},
		{"empty token", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"url":"wss://media"}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Fetch(context.Background(), Request{Room: "r"})
			assert.True(t, errors.Is(err, ErrUnavailable), "got %v", err)
		})
	}
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, 100*time.Millisecond).Fetch(context.Background(), Request{Room: "r"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSessionStartThroughFailingClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	d := arena.NewDraft(arena.DefaultCatalog())
	d.SetTopic("Is AI good?")
	d.TogglePersona("socrates")
	cfg, ok := d.Submit()
	require.True(t, ok)

	s := arena.NewSession(cfg, arena.WithRoom("r1"))
	err := s.Start(context.Background(), NewClient(srv.URL, time.Second))

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, arena.ConnFailed, s.Conn())
	assert.Equal(t, arena.ConnectionFailedNotice, s.Notice())
	assert.NotEqual(t, arena.StateReady, s.State())
}
