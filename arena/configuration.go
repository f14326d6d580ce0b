/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package arena

import (
	"slices"
	"strings"
)

const (
	MinTurnDuration = 1
	MaxTurnDuration = 10

	MinNumberOfTurns = 2
	MaxNumberOfTurns = 10

	// MaxPersonas caps how many catalog personas a debate may include.
	MaxPersonas = 3

	DefaultTurnDuration  = 3
	DefaultNumberOfTurns = 4
)

// Configuration is the immutable result of a successful Draft.Submit.
type Configuration struct {
	topic         string
	turnDuration  int
	numberOfTurns int
	participants  []Persona
}

func (c *Configuration) Topic() string { return c.topic }

func (c *Configuration) TurnDurationMinutes() int { return c.turnDuration }

func (c *Configuration) NumberOfTurns() int { return c.numberOfTurns }

// Participants returns a copy of the configured personas, in selection order.
func (c *Configuration) Participants() []Persona {
	out := make([]Persona, len(c.participants))
	copy(out, c.participants)
	return out
}

// ParticipantIDs returns the persona ids in selection order.
func (c *Configuration) ParticipantIDs() []string {
	out := make([]string, len(c.participants))
	for i, p := range c.participants {
		out[i] = p.ID
	}
	return out
}

// Draft holds configurator form state until it is submitted.
type Draft struct {
	catalog       *Catalog
	topic         string
	turnDuration  int
	numberOfTurns int
	selected      []string
}

// NewDraft returns a draft with the default timings and no personas selected.
func NewDraft(catalog *Catalog) *Draft {
	return &Draft{
		catalog:       catalog,
		turnDuration:  DefaultTurnDuration,
		numberOfTurns: DefaultNumberOfTurns,
	}
}

// SetTopic stores the raw topic; trimming happens on Submit.
func (d *Draft) SetTopic(text string) {
	d.topic = text
}

func (d *Draft) SetTurnDuration(n int) {
	d.turnDuration = clamp(n, MinTurnDuration, MaxTurnDuration)
}

func (d *Draft) SetNumberOfTurns(n int) {
	d.numberOfTurns = clamp(n, MinNumberOfTurns, MaxNumberOfTurns)
}

func (d *Draft) Topic() string { return d.topic }

func (d *Draft) TurnDuration() int { return d.turnDuration }

func (d *Draft) NumberOfTurns() int { return d.numberOfTurns }

func (d *Draft) Selected() []string { return slices.Clone(d.selected) }

func (d *Draft) IsSelected(id string) bool { return slices.Contains(d.selected, id) }

// TogglePersona selects or deselects a catalog persona. Unknown ids are ignored.
func (d *Draft) TogglePersona(id string) {
	if _, ok := d.catalog.Lookup(id); !ok {
		return
	}
	d.selected = TogglePersona(d.selected, id, MaxPersonas)
}

// CanSubmit reports whether Submit would succeed.
func (d *Draft) CanSubmit() bool {
	return strings.TrimSpace(d.topic) != "" && len(d.selected) > 0
}

// Submit builds a Configuration. It reports false, and builds nothing, when
// the trimmed topic is empty or no persona is selected.
func (d *Draft) Submit() (*Configuration, bool) {
	if !d.CanSubmit() {
		return nil, false
	}

	participants := make([]Persona, 0, len(d.selected))
	for _, id := range d.selected {
		p, ok := d.catalog.Lookup(id)
		if !ok {
			continue
		}
		participants = append(participants, p)
	}
	if len(participants) == 0 || len(participants) > MaxPersonas {
		return nil, false
	}

	return &Configuration{
		topic:         strings.TrimSpace(d.topic),
		turnDuration:  clamp(d.turnDuration, MinTurnDuration, MaxTurnDuration),
		numberOfTurns: clamp(d.numberOfTurns, MinNumberOfTurns, MaxNumberOfTurns),
		participants:  participants,
	}, true
}

// TogglePersona returns the selection with id removed if present, or
// appended if the selection holds fewer than limit ids. At the cap, adding is
// a no-op and the input slice is returned untouched.
func TogglePersona(selection []string, id string, limit int) []string {
	if i := slices.Index(selection, id); i >= 0 {
		out := make([]string, 0, len(selection)-1)
		out = append(out, selection[:i]...)
		return append(out, selection[i+1:]...)
	}

	if len(selection) >= limit {
		return selection
	}

	out := make([]string, 0, len(selection)+1)
	out = append(out, selection...)
	return append(out, id)
}

func clamp(n, lo, hi int) int {
	return min(max(n, lo), hi)
}
