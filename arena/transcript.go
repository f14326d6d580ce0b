/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package arena

import (
	"time"
)

// TimestampFormat is how entry times are shown in the room.
const TimestampFormat = "15:04"

// Entry is one message in a Transcript. Entries are never changed once appended.
type Entry struct {
	ID         uint64    `json:"id"`
	Sender     string    `json:"sender"`
	Content    string    `json:"content"`
	Timestamp  string    `json:"timestamp"`
	CreatedAt  time.Time `json:"created_at"`
	SystemOrAI bool      `json:"is_ai"`
	Avatar     string    `json:"avatar,omitempty"`
}

// Transcript is an append-only log of entries in display order.
type Transcript struct {
	entries []Entry
	nextID  uint64
	now     func() time.Time
}

func newTranscript(now func() time.Time) *Transcript {
	if now == nil {
		now = time.Now
	}
	return &Transcript{
		nextID: 1,
		now:    now,
	}
}

// append assigns the id and time and stores the entry. CreatedAt never moves
// backwards, even if the clock does.
func (t *Transcript) append(sender, content, avatar string, systemOrAI bool) Entry {
	at := t.now()
	if n := len(t.entries); n > 0 && at.Before(t.entries[n-1].CreatedAt) {
		at = t.entries[n-1].CreatedAt
	}

	e := Entry{
		ID:         t.nextID,
		Sender:     sender,
		Content:    content,
		Timestamp:  at.Format(TimestampFormat),
		CreatedAt:  at,
		SystemOrAI: systemOrAI,
		Avatar:     avatar,
	}
	t.nextID++
	t.entries = append(t.entries, e)

	return e
}

// Entries returns a copy of the log.
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
