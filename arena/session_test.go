/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package arena

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	creds Credentials
	err   error
	got   JoinRequest
	calls int
}

func (s *stubSource) Credentials(_ context.Context, req JoinRequest) (Credentials, error) {
	s.calls++
	s.got = req
	return s.creds, s.err
}

func stepClock(start time.Time, step time.Duration) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func mustConfig(t *testing.T, topic string, ids ...string) *Configuration {
	t.Helper()

	d := NewDraft(DefaultCatalog())
	d.SetTopic(topic)
	d.SetTurnDuration(3)
	d.SetNumberOfTurns(4)
	for _, id := range ids {
		d.TogglePersona(id)
	}

	cfg, ok := d.Submit()
	require.True(t, ok)
	return cfg
}

func readySession(t *testing.T, opts ...SessionOption) *Session {
	t.Helper()

	s := NewSession(mustConfig(t, "Is AI good?", "socrates", "einstein"), opts...)
	require.NoError(t, s.Start(context.Background(), nil))
	return s
}

func TestSessionWithoutConfigurationRedirects(t *testing.T) {
	s := NewSession(nil)

	assert.Equal(t, StateAwaitingConfiguration, s.State())
	assert.True(t, s.Redirect())
	assert.Nil(t, s.Transcript())
	assert.Nil(t, s.Roster())
	assert.ErrorIs(t, s.Start(context.Background(), nil), ErrNotReady)

	_, ok := s.AppendUserMessage("hello")
	assert.False(t, ok)
	assert.Nil(t, s.Transcript())
}

func TestDebateScenario(t *testing.T) {
	s := NewSession(mustConfig(t, "Is AI good?", "socrates", "einstein"))
	require.NoError(t, s.Start(context.Background(), nil))

	assert.Equal(t, StateReady, s.State())
	assert.False(t, s.Redirect())

	roster := s.Roster()
	require.Len(t, roster, 3)
	assert.Equal(t, "Socrates", roster[0].DisplayName)
	assert.Equal(t, "Einstein", roster[1].DisplayName)
	assert.Equal(t, "You", roster[2].DisplayName)

	seed := s.Transcript()
	require.Len(t, seed, 1)
	assert.Equal(t, SystemSender, seed[0].Sender)
	assert.True(t, seed[0].SystemOrAI)
	assert.Contains(t, seed[0].Content, `"Is AI good?"`)

	entry, ok := s.AppendUserMessage("I think yes.")
	require.True(t, ok)
	assert.Equal(t, "You", entry.Sender)
	assert.Equal(t, "I think yes.", entry.Content)
	assert.False(t, entry.SystemOrAI)

	transcript := s.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, entry, transcript[1])
}

func TestWelcomeEntryKeepsTopicVerbatim(t *testing.T) {
	topic := "Is \"AI\" good?\u200b"
	s := NewSession(mustConfig(t, topic, "socrates"))

	seed := s.Transcript()
	require.Len(t, seed, 1)
	assert.Equal(t, "Welcome to the debate on \"Is \"AI\" good?\u200b\". The debate will begin shortly.", seed[0].Content)
	assert.NotContains(t, seed[0].Content, `\"`)
}

func TestAppendUserMessageIgnoresBlankText(t *testing.T) {
	s := readySession(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, ok := s.AppendUserMessage(text)
		assert.False(t, ok)
	}

	assert.Len(t, s.Transcript(), 1)
}

func TestAppendOrderingAndIDs(t *testing.T) {
	start := time.Date(2026, 10, 19, 14, 5, 0, 0, time.UTC)
	s := readySession(t, WithClock(stepClock(start, 30*time.Second)))

	const n = 25
	for i := 0; i < n; i++ {
		_, ok := s.AppendUserMessage(fmt.Sprintf("argument %d", i))
		require.True(t, ok)
	}

	transcript := s.Transcript()
	require.Len(t, transcript, 1+n)

	seen := make(map[uint64]bool)
	for i, e := range transcript {
		assert.False(t, seen[e.ID], "duplicate id %d", e.ID)
		seen[e.ID] = true

		if i > 0 {
			assert.Greater(t, e.ID, transcript[i-1].ID)
			assert.False(t, e.CreatedAt.Before(transcript[i-1].CreatedAt))
		}
	}

	assert.Equal(t, "14:05", transcript[0].Timestamp)
	assert.Equal(t, "argument 24", transcript[n].Content)
}

func TestCreatedAtNeverMovesBackwards(t *testing.T) {
	start := time.Date(2026, 10, 19, 14, 5, 0, 0, time.UTC)
	s := readySession(t, WithClock(stepClock(start, -time.Minute)))

	a, ok := s.AppendUserMessage("first")
	require.True(t, ok)
	b, ok := s.AppendUserMessage("second")
	require.True(t, ok)

	assert.False(t, b.CreatedAt.Before(a.CreatedAt))
}

func TestStartWithCredentialSource(t *testing.T) {
	src := &stubSource{creds: Credentials{URL: "wss://media", Token: "tok"}}
	s := NewSession(mustConfig(t, "Cats or dogs", "tesla"), WithRoom("abc"), WithUser("human-1"))

	assert.Equal(t, ConnConnecting, s.Conn())
	require.NoError(t, s.Start(context.Background(), src))

	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, ConnConnected, s.Conn())
	assert.Equal(t, ConnectedNotice, s.Notice())
	assert.Equal(t, "wss://media", s.Credentials().URL)
	assert.Equal(t, JoinRequest{
		Room:          "abc",
		User:          "human-1",
		Topic:         "Cats or dogs",
		Personas:      []string{"tesla"},
		TurnDuration:  3,
		NumberOfTurns: 4,
	}, src.got)

	require.NoError(t, s.Start(context.Background(), src))
	assert.Equal(t, 1, src.calls)
}

func TestStartFailureLeavesSessionNotReady(t *testing.T) {
	src := &stubSource{err: errors.New("boom")}
	s := NewSession(mustConfig(t, "Cats or dogs", "tesla"))

	err := s.Start(context.Background(), src)
	require.Error(t, err)

	assert.NotEqual(t, StateReady, s.State())
	assert.NotEqual(t, StateAwaitingConfiguration, s.State())
	assert.Equal(t, ConnFailed, s.Conn())
	assert.Equal(t, ConnectionFailedNotice, s.Notice())
	assert.Len(t, s.Transcript(), 1)

	_, ok := s.AppendUserMessage("anyone there?")
	assert.False(t, ok)
	assert.Len(t, s.Transcript(), 1)
}

func TestAppendIncoming(t *testing.T) {
	s := readySession(t)

	e, ok := s.AppendIncoming("Socrates", "What is good?", "🏛️")
	require.True(t, ok)
	assert.True(t, e.SystemOrAI)

	_, ok = s.AppendIncoming("Socrates", "  ", "")
	assert.False(t, ok)

	_, ok = s.AppendIncoming(SystemSender, "", "")
	assert.True(t, ok)

	_, ok = s.AppendIncoming("", "text", "")
	assert.False(t, ok)

	assert.Len(t, s.Transcript(), 3)
}

func TestInitialTimerIsDecorative(t *testing.T) {
	s := readySession(t)

	timer := s.Timer()
	assert.Equal(t, 180, timer.TimeLeft)
	assert.Equal(t, "Socrates", timer.CurrentSpeaker)
	assert.Equal(t, 1, timer.CurrentTurn)
	assert.Equal(t, 4, timer.TotalTurns)
	assert.False(t, timer.Running)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "awaiting_configuration", StateAwaitingConfiguration.String())
	assert.Equal(t, "failed", ConnFailed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
