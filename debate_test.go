/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/Seednode/debatebox/arena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var roomPath = regexp.MustCompile(`^/debate/([A-Za-z0-9]{8})$`)

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestSubmitDebateOpensRoom(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(postForm("/debate", url.Values{
		"topic":           {"  Should AI be regulated?  "},
		"turn_duration":   {"5"},
		"number_of_turns": {"6"},
		"persona":         {"socrates", "einstein", "socrates"},
	}))

	require.Equal(t, http.StatusSeeOther, rec.Code)

	m := roomPath.FindStringSubmatch(rec.Header().Get("Location"))
	require.Len(t, m, 2, "unexpected location %q", rec.Header().Get("Location"))

	room, ok := app.rm.get(m[1])
	require.True(t, ok)

	assert.Equal(t, "Should AI be regulated?", room.config.Topic())
	assert.Equal(t, 5, room.config.TurnDurationMinutes())
	assert.Equal(t, 6, room.config.NumberOfTurns())
	assert.Equal(t, []string{"socrates", "einstein"}, room.config.ParticipantIDs())
}

func TestSubmitDebateClampsAndCaps(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(postForm("/debate", url.Values{
		"topic":           {"Cats or dogs"},
		"turn_duration":   {"99"},
		"number_of_turns": {"1"},
		"persona":         {"trump", "tesla", "gandhi", "jobs"},
	}))

	require.Equal(t, http.StatusSeeOther, rec.Code)

	m := roomPath.FindStringSubmatch(rec.Header().Get("Location"))
	require.Len(t, m, 2)

	room, ok := app.rm.get(m[1])
	require.True(t, ok)

	assert.Equal(t, arena.MaxTurnDuration, room.config.TurnDurationMinutes())
	assert.Equal(t, arena.MinNumberOfTurns, room.config.NumberOfTurns())
	assert.Equal(t, []string{"trump", "tesla", "gandhi"}, room.config.ParticipantIDs())
}

func TestSubmitDebateRejectsInvalidDrafts(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{name: "blank topic", form: url.Values{"topic": {"   "}, "persona": {"socrates"}}},
		{name: "no personas", form: url.Values{"topic": {"Is AI good?"}}},
		{name: "unknown persona only", form: url.Values{"topic": {"Is AI good?"}, "persona": {"plato"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, nil)

			rec := app.do(postForm("/debate", tt.form))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/", rec.Header().Get("Location"))

			ids, _ := app.rm.list()
			assert.Empty(t, ids)
		})
	}
}

func TestRoomPage(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/debate/nosuchroom", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = app.do(httptest.NewRequest(http.MethodGet, "/debate", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	room, err := app.rm.create(t.Context(), mustConfig(t, "Is AI good?", "socrates"))
	require.NoError(t, err)

	rec = app.do(httptest.NewRequest(http.MethodGet, "/debate/"+room.id, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "room.js")

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == playerCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Len(t, cookie.Value, 32)
}

func TestServePersonas(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/personas", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		MaxPersonas int              `json:"max_personas"`
		Personas    []map[string]any `json:"personas"`
		Defaults    map[string]int   `json:"defaults"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, arena.MaxPersonas, body.MaxPersonas)
	assert.Len(t, body.Personas, len(arena.DefaultCatalog().All()))
	assert.Equal(t, arena.DefaultTurnDuration, body.Defaults["turn_duration"])
	assert.Equal(t, arena.DefaultNumberOfTurns, body.Defaults["number_of_turns"])

	for _, p := range body.Personas {
		assert.NotContains(t, p, "prompt")
		assert.NotContains(t, p, "Prompt")
	}
}

func TestQRHandler(t *testing.T) {
	app := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/debate/abcdefgh/qr", nil)
	req.Host = "debate.example.com"

	rec := app.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}
