/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package arena

import (
	"fmt"
	"math"
)

// Side is a poll choice.
type Side string

const (
	SideFor     Side = "for"
	SideAgainst Side = "against"
)

// ParseSide accepts "for" or "against".
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideFor, SideAgainst:
		return Side(s), nil
	default:
		return "", fmt.Errorf("arena: unknown poll side %q", s)
	}
}

// Poll is the room's live for/against tally. Each voter holds one vote.
type Poll struct {
	votes map[string]Side
}

// PollResult is a snapshot of a Poll.
type PollResult struct {
	For            int `json:"for"`
	Against        int `json:"against"`
	ForPercent     int `json:"for_percent"`
	AgainstPercent int `json:"against_percent"`
}

func NewPoll() *Poll {
	return &Poll{votes: make(map[string]Side)}
}

// Vote records voter's choice, replacing any earlier one.
func (p *Poll) Vote(voter string, side Side) {
	if voter == "" {
		return
	}
	p.votes[voter] = side
}

// Retract removes voter's vote.
func (p *Poll) Retract(voter string) {
	delete(p.votes, voter)
}

// Result tallies the votes. Percentages are whole numbers summing to 100
// once anyone has voted.
func (p *Poll) Result() PollResult {
	var r PollResult
	for _, side := range p.votes {
		switch side {
		case SideFor:
			r.For++
		case SideAgainst:
			r.Against++
		}
	}

	total := r.For + r.Against
	if total == 0 {
		return r
	}

	r.ForPercent = int(math.Round(float64(r.For) * 100 / float64(total)))
	r.AgainstPercent = 100 - r.ForPercent

	return r
}
