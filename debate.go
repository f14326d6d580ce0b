// Debatebox debate rooms
//
// A visitor configures a debate on the home page (topic, turn length, number
// of rounds, up to three AI personas) and submits it. The server validates
// the draft, opens a room under a random 8-character ID, and redirects the
// browser there. The room page talks to its hub over a WebSocket.
//
// Features:
// - Configurator: POST /debate, silently bounced back to / when invalid
// - Room view: /debate/:room, redirected to / when the room is unknown
// - WebSocket per room: /debate/:room/ws
// - Welcome entry seeded on creation; "You" entries appended in arrival order
// - Room credentials fetched once; a failure shows a notice and disables input
// - First connection to a room may start the turn clock
// - Live for/against poll, one vote per browser cookie
// - Per-connection message rate limit
// - Rooms auto-reaped after configurable idle timeout
// - QR button to share the room, backed by go-qrcode

package main

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Seednode/debatebox/arena"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
)

const (
	playerCookieName = "debatebox_id"

	messageBurst = 3
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func getOrSetPlayerID(cfg *Config, w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		cfg.logger.Error().Err(err).Msg("rand.Read error")
		return ""
	}
	id := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// draftFromForm replays the posted form through the configurator, so the
// server applies exactly the clamping and persona cap the page does.
func draftFromForm(catalog *arena.Catalog, r *http.Request) *arena.Draft {
	d := arena.NewDraft(catalog)

	d.SetTopic(r.PostFormValue("topic"))

	if n, err := strconv.Atoi(r.PostFormValue("turn_duration")); err == nil {
		d.SetTurnDuration(n)
	}
	if n, err := strconv.Atoi(r.PostFormValue("number_of_turns")); err == nil {
		d.SetNumberOfTurns(n)
	}

	for _, id := range r.PostForm["persona"] {
		if !d.IsSelected(id) {
			d.TogglePersona(id)
		}
	}

	return d
}

// submitDebate handles POST /debate. An invalid draft redirects back to the
// configurator without a message.
func submitDebate(cfg *Config, path string, rm *RoomManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, cfg.prefix+"/", http.StatusSeeOther)
			return
		}

		config, ok := draftFromForm(rm.catalog, r).Submit()
		if !ok {
			http.Redirect(w, r, cfg.prefix+"/", http.StatusSeeOther)
			return
		}

		room, err := rm.create(r.Context(), config)
		if err != nil {
			http.Redirect(w, r, cfg.prefix+"/", http.StatusSeeOther)
			return
		}

		logf(cfg, "SERVE: Debate %s configured by %s", room.id, realIP(r))

		http.Redirect(w, r, cfg.prefix+path+"/"+room.id, http.StatusSeeOther)
	}
}

// serveRoomPage sends the room view, or redirects to the configurator when
// the room does not exist.
func serveRoomPage(cfg *Config, rm *RoomManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if _, ok := rm.get(ps.ByName("room")); !ok {
			http.Redirect(w, r, cfg.prefix+"/", http.StatusTemporaryRedirect)
			return
		}

		_ = getOrSetPlayerID(cfg, w, r)

		if err := serveEmbedded(cfg, w, "assets/room.html"); err != nil {
			errs <- err
		}
	}
}

func servePersonas(cfg *Config, catalog *arena.Catalog, errs chan<- error) httprouter.Handle {
	type catalogResponse struct {
		MaxPersonas int             `json:"max_personas"`
		Personas    []arena.Persona `json:"personas"`
		Defaults    map[string]int  `json:"defaults"`
	}

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		err := writeJSON(cfg, w, http.StatusOK, catalogResponse{
			MaxPersonas: arena.MaxPersonas,
			Personas:    catalog.All(),
			Defaults: map[string]int{
				"turn_duration":   arena.DefaultTurnDuration,
				"number_of_turns": arena.DefaultNumberOfTurns,
			},
		})
		if err != nil {
			errs <- err
		}
	}
}

// WebSocket handler that picks the hub based on :room
func serveRoomWS(cfg *Config, rm *RoomManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, ok := rm.get(ps.ByName("room"))
		if !ok {
			http.Error(w, "unknown room", http.StatusNotFound)
			return
		}

		playerID := getOrSetPlayerID(cfg, w, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ROOMS: upgrade error: %v", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 16),
			playerID: playerID,
			limiter:  rate.NewLimiter(rate.Limit(cfg.messageRate), messageBurst),
		}

		if !room.join(client) {
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(room, cfg)
	}
}

// QR handler: generates a PNG QR code for the current room URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("room") == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:room/qr; strip trailing "/qr" to get the room URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
	_, _ = w.Write(png)
}

// registerDebate sets up routes so that:
//   - /personas            → persona catalog JSON
//   - POST $path           → validate configuration, open room, redirect
//   - $path                → back to the configurator
//   - $path/:room          → room page
//   - $path/:room/ws       → WebSocket for that room
//   - $path/:room/qr       → PNG QR code for that room URL
func registerDebate(cfg *Config, path string, mux *httprouter.Router, rm *RoomManager, errs chan<- error) {
	mux.GET(cfg.prefix+"/personas", servePersonas(cfg, rm.catalog, errs))

	mux.POST(cfg.prefix+path, submitDebate(cfg, path, rm))

	mux.GET(cfg.prefix+path, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		http.Redirect(w, r, cfg.prefix+"/", http.StatusTemporaryRedirect)
	})

	mux.GET(cfg.prefix+path+"/:room", serveRoomPage(cfg, rm, errs))

	mux.GET(cfg.prefix+path+"/:room/ws", serveRoomWS(cfg, rm))

	mux.GET(cfg.prefix+path+"/:room/qr", qrHandler)
}
