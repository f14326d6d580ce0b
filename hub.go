/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"sync"
	"time"

	"github.com/Seednode/debatebox/arena"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Messages coming from clients
type ClientMessage struct {
	Type    string `json:"type"`              // "message", "vote", "start_clock"
	Content string `json:"content,omitempty"` // message
	Side    string `json:"side,omitempty"`    // vote
}

// SessionInfoMessage is sent on connect with everything the room page needs
// to render.
type SessionInfoMessage struct {
	Type          string             `json:"type"` // "session_info"
	Room          string             `json:"room"`
	Topic         string             `json:"topic"`
	TurnDuration  int                `json:"turn_duration"`
	NumberOfTurns int                `json:"number_of_turns"`
	Participants  []arena.Persona    `json:"participants"`
	Transcript    []arena.Entry      `json:"transcript"`
	Timer         arena.TimerState   `json:"timer"`
	Poll          arena.PollResult   `json:"poll"`
	Connection    string             `json:"connection"`
	Notice        string             `json:"notice,omitempty"`
	Credentials   *arena.Credentials `json:"credentials,omitempty"`
	Ready         bool               `json:"ready"`
	IsModerator   bool               `json:"is_moderator"`
}

// EntryMessage carries one newly appended transcript entry.
type EntryMessage struct {
	Type  string      `json:"type"` // "entry"
	Entry arena.Entry `json:"entry"`
}

type TimerMessage struct {
	Type  string           `json:"type"` // "timer"
	Timer arena.TimerState `json:"timer"`
}

type PollMessage struct {
	Type string           `json:"type"` // "poll"
	Poll arena.PollResult `json:"poll"`
}

// SimpleMessage is for generic notifications ("rate_limited", "closed", etc.)
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
	limiter  *rate.Limiter
}

type command struct {
	client *Client
	msg    ClientMessage
}

// incoming is a message posted into the room from outside, usually by the
// voice agent speaking as a persona.
type incoming struct {
	sender  string
	content string
	avatar  string
	reply   chan incomingResult
}

type incomingResult struct {
	entry arena.Entry
	ok    bool
}

// Room is the hub of one debate. Its session, poll, and client set are only
// touched by the run goroutine.
type Room struct {
	id        string
	config    *arena.Configuration
	createdAt time.Time

	session *arena.Session
	poll    *arena.Poll
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	commands chan command
	incoming chan incoming
	ticks    chan arena.TimerState
	done     chan struct{}
	stopOnce sync.Once

	stopClock   context.CancelFunc
	moderatorID string

	mu         sync.RWMutex
	lastActive time.Time
}

func newRoom(id string, session *arena.Session) *Room {
	now := time.Now()
	return &Room{
		id:         id,
		config:     session.Configuration(),
		createdAt:  now,
		lastActive: now,
		session:    session,
		poll:       arena.NewPoll(),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		commands:   make(chan command),
		incoming:   make(chan incoming),
		ticks:      make(chan arena.TimerState),
		done:       make(chan struct{}),
	}
}

func (r *Room) touch() {
	r.mu.Lock()
	r.lastActive = time.Now()
	r.mu.Unlock()
}

func (r *Room) LastActive() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lastActive
}

// close stops the run loop, which disconnects every client.
func (r *Room) close() {
	r.stopOnce.Do(func() { close(r.done) })
}

func (r *Room) run(cfg *Config) {
	defer r.shutdown()

	for {
		select {
		case c := <-r.register:
			r.touch()

			// First connection moderates the clock
			if r.moderatorID == "" {
				r.moderatorID = c.playerID
			}

			r.clients[c] = true
			r.sendTo(c, r.sessionInfo(c))

		case c := <-r.unreg:
			r.touch()

			if _, ok := r.clients[c]; ok {
				delete(r.clients, c)
				close(c.send)
			}

		case cmd := <-r.commands:
			r.touch()
			r.handleCommand(cfg, cmd)

		case in := <-r.incoming:
			r.touch()
			in.reply <- r.handleIncoming(in)

		case t := <-r.ticks:
			r.session.SetTimer(t)
			r.broadcast(TimerMessage{Type: "timer", Timer: t})
			if t.Finished {
				logf(cfg, "ROOMS: Debate %s finished after %d rounds", r.id, t.TotalTurns)
			}

		case <-r.done:
			return
		}
	}
}

func (r *Room) handleCommand(cfg *Config, cmd command) {
	c := cmd.client
	msg := cmd.msg

	switch msg.Type {
	case "message":
		entry, ok := r.session.AppendUserMessage(msg.Content)
		if !ok {
			return
		}
		r.broadcast(EntryMessage{Type: "entry", Entry: entry})

	case "vote":
		side, err := arena.ParseSide(msg.Side)
		if err != nil {
			return
		}
		r.poll.Vote(c.playerID, side)
		r.broadcast(PollMessage{Type: "poll", Poll: r.poll.Result()})

	case "start_clock":
		if c.playerID != r.moderatorID || r.stopClock != nil {
			return
		}
		if r.session.State() != arena.StateReady {
			return
		}
		r.startClock(cfg)
	}
}

func (r *Room) handleIncoming(in incoming) incomingResult {
	entry, ok := r.session.AppendIncoming(in.sender, in.content, in.avatar)
	if ok {
		r.broadcast(EntryMessage{Type: "entry", Entry: entry})
	}
	return incomingResult{entry: entry, ok: ok}
}

// post appends an outside message through the run loop, so it lands in
// arrival order with everything typed in the room.
func (r *Room) post(ctx context.Context, sender, content, avatar string) (arena.Entry, bool, error) {
	in := incoming{
		sender:  sender,
		content: content,
		avatar:  avatar,
		reply:   make(chan incomingResult, 1),
	}

	select {
	case r.incoming <- in:
	case <-r.done:
		return arena.Entry{}, false, errRoomClosed
	case <-ctx.Done():
		return arena.Entry{}, false, ctx.Err()
	}

	res := <-in.reply
	return res.entry, res.ok, nil
}

// startClock runs the countdown in its own goroutine; its states come back
// through r.ticks so the session is only written from run.
func (r *Room) startClock(cfg *Config) {
	ctx, cancel := context.WithCancel(context.Background())
	r.stopClock = cancel

	countdown := arena.NewCountdown(r.config)

	go func() {
		err := countdown.Run(ctx, func(t arena.TimerState) {
			select {
			case r.ticks <- t:
			case <-ctx.Done():
			case <-r.done:
			}
		})
		if err != nil {
			logf(cfg, "ROOMS: Clock for %s stopped: %v", r.id, err)
		}
	}()

	logf(cfg, "ROOMS: Started clock for %s", r.id)
}

func (r *Room) sessionInfo(c *Client) SessionInfoMessage {
	s := r.session

	msg := SessionInfoMessage{
		Type:          "session_info",
		Room:          r.id,
		Topic:         r.config.Topic(),
		TurnDuration:  r.config.TurnDurationMinutes(),
		NumberOfTurns: r.config.NumberOfTurns(),
		Participants:  s.Roster(),
		Transcript:    s.Transcript(),
		Timer:         s.Timer(),
		Poll:          r.poll.Result(),
		Connection:    s.Conn().String(),
		Notice:        s.Notice(),
		Ready:         s.State() == arena.StateReady,
		IsModerator:   c.playerID == r.moderatorID,
	}

	if creds := s.Credentials(); creds.Token != "" {
		msg.Credentials = &creds
	}

	return msg
}

func (r *Room) sendTo(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(r.clients, c)
		close(c.send)
	}
}

func (r *Room) broadcast(msg any) {
	for client := range r.clients {
		r.sendTo(client, msg)
	}
}

func (r *Room) shutdown() {
	if r.stopClock != nil {
		r.stopClock()
	}

	for c := range r.clients {
		select {
		case c.send <- SimpleMessage{Type: "closed", Message: "This debate has ended."}:
		default:
		}
		close(c.send)
		delete(r.clients, c)
	}
}

// join hands c to the run loop. It reports false once the room is closed.
func (r *Room) join(c *Client) bool {
	select {
	case r.register <- c:
		return true
	case <-r.done:
		return false
	}
}

func (c *Client) readPump(r *Room, cfg *Config) {
	defer func() {
		select {
		case r.unreg <- c:
		case <-r.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "message", "vote":
			if !c.limiter.Allow() {
				logf(cfg, "ROOMS: Dropped %s from %s in %s (rate limited)", msg.Type, c.playerID, r.id)
				continue
			}
		case "start_clock":
		default:
			// ignore unknown types
			continue
		}

		select {
		case r.commands <- command{client: c, msg: msg}:
		case <-r.done:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
