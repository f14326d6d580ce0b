/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"crypto/rand"
	"errors"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/Seednode/debatebox/arena"
	"github.com/Seednode/debatebox/credentials"
)

var (
	errRoomExists = errors.New("room already exists")
	errBadRoomID  = errors.New("invalid room id")
	errRoomClosed = errors.New("room closed")

	roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// RoomDetails is the /rooms view of a room.
type RoomDetails struct {
	Topic           string    `json:"topic"`
	Personas        []string  `json:"personas"`
	TurnDurationMin int       `json:"turn_duration_min"`
	TotalRounds     int       `json:"total_rounds"`
	CreatedAt       time.Time `json:"created_at"`
	LastActive      time.Time `json:"last_active"`
}

// RoomManager holds a set of rooms keyed by room ID, so each /debate/:room
// is its own isolated session.
type RoomManager struct {
	mu    sync.Mutex
	rooms map[string]*Room

	cfg         *Config
	catalog     *arena.Catalog
	source      arena.CredentialSource
	idleTimeout time.Duration
}

func newRoomManager(ctx context.Context, cfg *Config, catalog *arena.Catalog, source arena.CredentialSource) *RoomManager {
	rm := &RoomManager{
		rooms:       make(map[string]*Room),
		cfg:         cfg,
		catalog:     catalog,
		source:      source,
		idleTimeout: cfg.sessionTimeout,
	}
	if rm.idleTimeout > 0 {
		go rm.reaperLoop(ctx)
	}
	return rm
}

// create starts a room for a submitted configuration under a fresh ID.
func (rm *RoomManager) create(ctx context.Context, config *arena.Configuration) (*Room, error) {
	return rm.createWithID(ctx, rm.newRoomID(), config)
}

// createWithID starts a room under id. The session fetches its credentials
// before the room accepts connections; a failure leaves the room up, showing
// the failure notice, with its input disabled.
func (rm *RoomManager) createWithID(ctx context.Context, id string, config *arena.Configuration) (*Room, error) {
	if !roomIDPattern.MatchString(id) {
		return nil, errBadRoomID
	}

	session := arena.NewSession(config,
		arena.WithRoom(id),
		arena.WithUser(credentials.AnonymousIdentity()),
		arena.WithLogger(rm.cfg.logger),
	)

	startCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := session.Start(startCtx, rm.source); err != nil {
		logf(rm.cfg, "ROOMS: %v", err)
	}

	room := newRoom(id, session)

	rm.mu.Lock()
	if _, exists := rm.rooms[id]; exists {
		rm.mu.Unlock()
		return nil, errRoomExists
	}
	rm.rooms[id] = room
	rm.mu.Unlock()

	go room.run(rm.cfg)

	logf(rm.cfg, "ROOMS: Created room %s on %q (%s)", id, config.Topic(), session.Conn())

	return room, nil
}

func (rm *RoomManager) get(id string) (*Room, bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, ok := rm.rooms[id]
	return room, ok
}

// remove closes and forgets a room. It reports whether the room existed.
func (rm *RoomManager) remove(id string) bool {
	rm.mu.Lock()
	room, ok := rm.rooms[id]
	delete(rm.rooms, id)
	rm.mu.Unlock()

	if ok {
		room.close()
		logf(rm.cfg, "ROOMS: Removed room %s", id)
	}
	return ok
}

// list returns the room IDs in sorted order, with their details.
func (rm *RoomManager) list() ([]string, map[string]RoomDetails) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	ids := make([]string, 0, len(rm.rooms))
	details := make(map[string]RoomDetails, len(rm.rooms))
	for id, room := range rm.rooms {
		ids = append(ids, id)
		details[id] = RoomDetails{
			Topic:           room.config.Topic(),
			Personas:        rm.catalog.AgentNames(room.config.ParticipantIDs()),
			TurnDurationMin: room.config.TurnDurationMinutes(),
			TotalRounds:     room.config.NumberOfTurns(),
			CreatedAt:       room.createdAt,
			LastActive:      room.LastActive(),
		}
	}
	sort.Strings(ids)

	return ids, details
}

// newRoomID generates a crypto-random room ID and ensures it doesn't
// collide with existing rooms.
func (rm *RoomManager) newRoomID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	const max = byte(255 - (256 % len(letters)))

	for {
		out := make([]byte, 0, 8)
		buf := make([]byte, 16)

		for len(out) < 8 {
			if _, err := rand.Read(buf); err != nil {
				panic("crypto/rand failure: " + err.Error())
			}
			for _, b := range buf {
				if b <= max && len(out) < 8 {
					out = append(out, letters[int(b)%len(letters)])
				}
			}
		}
		id := string(out)

		rm.mu.Lock()
		_, exists := rm.rooms[id]
		rm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes rooms that have been idle longer than idleTimeout.
func (rm *RoomManager) reaperLoop(ctx context.Context) {
	ticker := time.NewTicker(rm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rm.closeAll()
			return
		case <-ticker.C:
			rm.reap(time.Now().Add(-rm.idleTimeout))
		}
	}
}

func (rm *RoomManager) reap(cutoff time.Time) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for id, room := range rm.rooms {
		if room.LastActive().Before(cutoff) {
			delete(rm.rooms, id)
			room.close()
			logf(rm.cfg, "ROOMS: Reaped idle room %s", id)
		}
	}
}

func (rm *RoomManager) closeAll() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for id, room := range rm.rooms {
		delete(rm.rooms, id)
		room.close()
	}
}
