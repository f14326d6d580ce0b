/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Seednode/debatebox/arena"
	"github.com/Seednode/debatebox/credentials"
	"github.com/julienschmidt/httprouter"
)

const (
	defaultRoom  = "main"
	defaultTopic = "AI Debate"

	maxJoinBody = 64 << 10
)

// postMessageRequest is an entry spoken into a room from outside, typically
// by the agent worker as one of the personas.
type postMessageRequest struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
	Avatar  string `json:"avatar,omitempty"`
}

type roomsResponse struct {
	Rooms       []string               `json:"rooms"`
	RoomDetails map[string]RoomDetails `json:"room_details"`
}

// configFromJoin builds the configuration a /join request describes, with
// the defaults the agent worker expects.
func configFromJoin(catalog *arena.Catalog, req credentials.Request) (*arena.Configuration, bool) {
	d := arena.NewDraft(catalog)

	topic := req.Topic
	if topic == "" {
		topic = defaultTopic
	}
	d.SetTopic(topic)

	if req.TurnDuration != 0 {
		d.SetTurnDuration(req.TurnDuration)
	}
	if req.NumberOfTurns != 0 {
		d.SetNumberOfTurns(req.NumberOfTurns)
	}
	for _, id := range req.Personas {
		if !d.IsSelected(id) {
			d.TogglePersona(id)
		}
	}

	return d.Submit()
}

// serveJoin issues room credentials. The first request for a room with a
// usable configuration also opens that room.
func serveJoin(cfg *Config, rm *RoomManager, issuer *credentials.Issuer, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req credentials.Request

		if err := json.NewDecoder(io.LimitReader(r.Body, maxJoinBody)).Decode(&req); err != nil {
			if err := writeJSONError(cfg, w, http.StatusBadRequest, "Failed to join room: malformed request body"); err != nil {
				errs <- err
			}
			return
		}

		if req.Room == "" {
			req.Room = defaultRoom
		}
		if !roomIDPattern.MatchString(req.Room) {
			if err := writeJSONError(cfg, w, http.StatusBadRequest, "Failed to join room: invalid room name"); err != nil {
				errs <- err
			}
			return
		}

		if _, exists := rm.get(req.Room); !exists {
			if config, ok := configFromJoin(rm.catalog, req); ok {
				_, err := rm.createWithID(r.Context(), req.Room, config)
				if err != nil && !errors.Is(err, errRoomExists) {
					errs <- err
				}
			}
		}

		identity := req.User
		if identity == "" {
			identity = credentials.AnonymousIdentity()
		}

		token, err := issuer.Issue(req.Room, identity)
		if err != nil {
			if err := writeJSONError(cfg, w, http.StatusInternalServerError, "Failed to join room: "+err.Error()); err != nil {
				errs <- err
			}
			return
		}

		logf(cfg, "SERVE: Issued token for %q in room %s to %s", identity, req.Room, realIP(r))

		if err := writeJSON(cfg, w, http.StatusOK, arena.Credentials{URL: issuer.URL(), Token: token}); err != nil {
			errs <- err
		}
	}
}

func serveRooms(cfg *Config, rm *RoomManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ids, details := rm.list()

		if err := writeJSON(cfg, w, http.StatusOK, roomsResponse{Rooms: ids, RoomDetails: details}); err != nil {
			errs <- err
		}
	}
}

func deleteRoom(cfg *Config, rm *RoomManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := ps.ByName("room")

		var err error
		if rm.remove(id) {
			err = writeJSON(cfg, w, http.StatusOK, map[string]string{"message": "Room " + id + " deleted"})
		} else {
			err = writeJSONError(cfg, w, http.StatusNotFound, "Room not found")
		}
		if err != nil {
			errs <- err
		}
	}
}

func bearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// personaAvatar finds the avatar of the persona speaking as sender.
func personaAvatar(catalog *arena.Catalog, sender string) string {
	for _, p := range catalog.All() {
		if p.AgentName() == sender || p.DisplayName == sender {
			return p.Avatar
		}
	}
	return ""
}

// postMessage appends an entry to a room on behalf of a holder of that
// room's join token, and broadcasts it to everyone connected.
func postMessage(cfg *Config, rm *RoomManager, issuer *credentials.Issuer, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := ps.ByName("room")

		reply := func(status int, v any) {
			if err := writeJSON(cfg, w, status, v); err != nil {
				errs <- err
			}
		}

		claims, err := issuer.Verify(bearerToken(r))
		if err != nil || !claims.Video.RoomJoin || claims.Video.Room != id {
			reply(http.StatusUnauthorized, apiError{Detail: "Invalid token"})
			return
		}

		room, ok := rm.get(id)
		if !ok {
			reply(http.StatusNotFound, apiError{Detail: "Room not found"})
			return
		}

		var req postMessageRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxJoinBody)).Decode(&req); err != nil {
			reply(http.StatusBadRequest, apiError{Detail: "Malformed request body"})
			return
		}

		sender := strings.TrimSpace(req.Sender)
		if sender == "" {
			sender = claims.Name
		}
		avatar := req.Avatar
		if avatar == "" {
			avatar = personaAvatar(rm.catalog, sender)
		}

		entry, ok, err := room.post(r.Context(), sender, req.Content, avatar)
		switch {
		case errors.Is(err, errRoomClosed):
			reply(http.StatusNotFound, apiError{Detail: "Room not found"})
		case err != nil:
			errs <- err
		case !ok:
			reply(http.StatusUnprocessableEntity, apiError{Detail: "Message rejected"})
		default:
			logf(cfg, "SERVE: %s spoke in room %s", sender, id)
			reply(http.StatusOK, entry)
		}
	}
}

func registerAPI(cfg *Config, mux *httprouter.Router, rm *RoomManager, issuer *credentials.Issuer, errs chan<- error) {
	mux.POST(cfg.prefix+"/join", serveJoin(cfg, rm, issuer, errs))

	mux.GET(cfg.prefix+"/rooms", serveRooms(cfg, rm, errs))

	mux.DELETE(cfg.prefix+"/rooms/:room", deleteRoom(cfg, rm, errs))

	mux.POST(cfg.prefix+"/rooms/:room/messages", postMessage(cfg, rm, issuer, errs))
}
