/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package arena

import (
	"context"
	"time"
)

// TimerState is what the room shows in its turn timer.
type TimerState struct {
	TimeLeft       int    `json:"time_left"`
	CurrentSpeaker string `json:"current_speaker"`
	CurrentTurn    int    `json:"current_turn"`
	TotalTurns     int    `json:"total_turns"`
	Running        bool   `json:"running"`
	Finished       bool   `json:"finished"`

	speaker int
}

func initialTimer(cfg *Configuration) TimerState {
	t := TimerState{
		TimeLeft:    cfg.TurnDurationMinutes() * 60,
		CurrentTurn: 1,
		TotalTurns:  cfg.NumberOfTurns(),
	}
	if p := cfg.participants; len(p) > 0 {
		t.CurrentSpeaker = p[0].DisplayName
	}
	return t
}

// Countdown rotates the floor through the participants, one turn each, and
// counts each turn down a second at a time. A round ends when every speaker
// has had the floor; the debate ends after the configured number of rounds.
type Countdown struct {
	speakers    []string
	turnSeconds int
	rounds      int

	// Tick is the wall-clock length of one second of debate time.
	Tick time.Duration
}

// NewCountdown returns a countdown for cfg with a one-second tick.
func NewCountdown(cfg *Configuration) *Countdown {
	speakers := make([]string, 0, len(cfg.participants))
	for _, p := range cfg.participants {
		speakers = append(speakers, p.DisplayName)
	}

	return &Countdown{
		speakers:    speakers,
		turnSeconds: cfg.TurnDurationMinutes() * 60,
		rounds:      cfg.NumberOfTurns(),
		Tick:        time.Second,
	}
}

// First is the state at the moment the clock starts.
func (c *Countdown) First() TimerState {
	t := TimerState{
		TimeLeft:    c.turnSeconds,
		CurrentTurn: 1,
		TotalTurns:  c.rounds,
		Running:     true,
	}
	if len(c.speakers) > 0 {
		t.CurrentSpeaker = c.speakers[0]
	} else {
		t.Running = false
		t.Finished = true
		t.TimeLeft = 0
	}
	return t
}

// Next advances t by one second.
func (c *Countdown) Next(t TimerState) TimerState {
	if t.Finished || len(c.speakers) == 0 {
		return t
	}

	if t.TimeLeft > 1 {
		t.TimeLeft--
		return t
	}

	idx := (t.speaker + 1) % len(c.speakers)
	if idx == 0 {
		t.CurrentTurn++
	}
	if t.CurrentTurn > c.rounds {
		return TimerState{
			CurrentTurn: c.rounds,
			TotalTurns:  c.rounds,
			Finished:    true,
		}
	}

	t.speaker = idx
	t.CurrentSpeaker = c.speakers[idx]
	t.TimeLeft = c.turnSeconds
	return t
}

// Run reports the first state, then one state per tick until the debate
// finishes or ctx is cancelled. It returns ctx.Err() on cancellation.
func (c *Countdown) Run(ctx context.Context, report func(TimerState)) error {
	t := c.First()
	report(t)
	if t.Finished {
		return nil
	}

	ticker := time.NewTicker(c.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t = c.Next(t)
			report(t)
			if t.Finished {
				return nil
			}
		}
	}
}
