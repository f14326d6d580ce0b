/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package arena

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// UserSender is the sender name of entries typed in the room.
	UserSender = "You"
	// SystemSender is the sender name of synthesized entries.
	SystemSender = "System"

	systemAvatar = "system"
	userAvatar   = "user"

	// ConnectionFailedNotice is shown when credentials cannot be fetched.
	ConnectionFailedNotice = "Connection Failed: Could not connect to the debate room."
	// ConnectedNotice is shown once credentials are in hand.
	ConnectedNotice = "Connected to Debate: You are now connected to the debate room."
)

// ErrNotReady is returned when a session is asked to do something only a
// Ready session can do.
var ErrNotReady = errors.New("arena: session not ready")

// State is the lifecycle state of a Session.
type State int

const (
	StateUninitialized State = iota
	StateAwaitingConfiguration
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAwaitingConfiguration:
		return "awaiting_configuration"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ConnState tracks the credential handshake of a Session.
type ConnState int

const (
	ConnConnecting ConnState = iota
	ConnConnected
	ConnFailed
)

func (c ConnState) String() string {
	switch c {
	case ConnConnecting:
		return "connecting"
	case ConnConnected:
		return "connected"
	case ConnFailed:
		return "failed"
	default:
		return fmt.Sprintf("ConnState(%d)", int(c))
	}
}

// JoinRequest is what a CredentialSource is asked for.
type JoinRequest struct {
	Room          string
	User          string
	Topic         string
	Personas      []string
	TurnDuration  int
	NumberOfTurns int
}

// Credentials let a participant join the media room of a debate.
type Credentials struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// CredentialSource hands out room-join credentials.
type CredentialSource interface {
	Credentials(ctx context.Context, req JoinRequest) (Credentials, error)
}

// Session is the debate room view of one Configuration.
//
// A Session is not safe for concurrent use; it is owned by a single goroutine.
type Session struct {
	room string
	user string
	cfg  *Configuration

	state      State
	conn       ConnState
	notice     string
	creds      Credentials
	transcript *Transcript
	timer      TimerState

	now    func() time.Time
	logger zerolog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRoom sets the room the session requests credentials for.
func WithRoom(room string) SessionOption {
	return func(s *Session) { s.room = room }
}

// WithUser sets the identity the session requests credentials as.
func WithUser(user string) SessionOption {
	return func(s *Session) { s.user = user }
}

// WithClock replaces time.Now for entry timestamps.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

func WithLogger(logger zerolog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// NewSession builds the room view for cfg. A nil cfg yields a session that
// only asks to be redirected back to the configurator; its transcript is
// never created.
func NewSession(cfg *Configuration, opts ...SessionOption) *Session {
	s := &Session{
		room:   "main",
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg == nil {
		s.state = StateAwaitingConfiguration
		return s
	}

	s.cfg = cfg
	s.transcript = newTranscript(s.now)
	s.transcript.append(
		SystemSender,
		fmt.Sprintf("Welcome to the debate on \"%s\". The debate will begin shortly.", cfg.Topic()),
		systemAvatar,
		true,
	)
	s.timer = initialTimer(cfg)

	return s
}

// Start fetches credentials and moves the session to Ready. A nil source
// connects optimistically. On failure the session keeps its seed transcript
// but stays out of Ready, and Notice reports the failure.
func (s *Session) Start(ctx context.Context, source CredentialSource) error {
	if s.cfg == nil {
		return ErrNotReady
	}
	if s.state == StateReady {
		return nil
	}

	s.conn = ConnConnecting

	if source != nil {
		creds, err := source.Credentials(ctx, JoinRequest{
			Room:          s.room,
			User:          s.user,
			Topic:         s.cfg.Topic(),
			Personas:      s.cfg.ParticipantIDs(),
			TurnDuration:  s.cfg.TurnDurationMinutes(),
			NumberOfTurns: s.cfg.NumberOfTurns(),
		})
		if err != nil {
			s.conn = ConnFailed
			s.notice = ConnectionFailedNotice
			s.logger.Warn().Err(err).Str("room", s.room).Msg("credential fetch failed")
			return fmt.Errorf("arena: start session %s: %w", s.room, err)
		}
		s.creds = creds
	}

	s.conn = ConnConnected
	s.notice = ConnectedNotice
	s.state = StateReady
	s.logger.Debug().Str("room", s.room).Str("topic", s.cfg.Topic()).Msg("session ready")

	return nil
}

// AppendUserMessage appends text as a "You" entry. Blank text, or a session
// that is not Ready, leaves the transcript unchanged and reports false.
func (s *Session) AppendUserMessage(text string) (Entry, bool) {
	if s.state != StateReady || strings.TrimSpace(text) == "" {
		return Entry{}, false
	}
	return s.transcript.append(UserSender, text, userAvatar, false), true
}

// AppendIncoming appends a message that arrived from outside the room, such
// as an AI persona's reply. Only system entries may be empty.
func (s *Session) AppendIncoming(sender, content, avatar string) (Entry, bool) {
	if s.state != StateReady || sender == "" {
		return Entry{}, false
	}
	if sender != SystemSender && strings.TrimSpace(content) == "" {
		return Entry{}, false
	}
	return s.transcript.append(sender, content, avatar, true), true
}

// Redirect reports whether the view should send the user back to the
// configurator.
func (s *Session) Redirect() bool {
	return s.state == StateAwaitingConfiguration
}

func (s *Session) State() State { return s.state }

func (s *Session) Conn() ConnState { return s.conn }

func (s *Session) Notice() string { return s.notice }

func (s *Session) Room() string { return s.room }

func (s *Session) User() string { return s.user }

func (s *Session) Credentials() Credentials { return s.creds }

// Configuration returns nil for a session built without one.
func (s *Session) Configuration() *Configuration { return s.cfg }

// Transcript returns the entries so far; nil when no configuration was given.
func (s *Session) Transcript() []Entry {
	if s.transcript == nil {
		return nil
	}
	return s.transcript.Entries()
}

// Roster returns the configured personas in display order, followed by the
// user's own seat.
func (s *Session) Roster() []Persona {
	if s.cfg == nil {
		return nil
	}
	roster := s.cfg.Participants()
	return append(roster, Persona{
		ID:          "you",
		Kind:        KindFixed,
		DisplayName: UserSender,
		Avatar:      userAvatar,
		Color:       "cyan",
	})
}

func (s *Session) Timer() TimerState { return s.timer }

// SetTimer records the latest state reported by a Countdown.
func (s *Session) SetTimer(t TimerState) {
	s.timer = t
}
