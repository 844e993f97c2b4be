package room

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// Room statuses
const (
	StatusWaiting   = "waiting"
	StatusActive    = "active"
	StatusCompleted = "completed" // terminal
)

type Participant struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	IsOnline    bool      `json:"is_online"`
	IsLeader    bool      `json:"is_leader"`
	JoinedAt    time.Time `json:"joined_at"` // UTC
}

// Room is a bounded-capacity discussion group. At most one participant leads
// at a time; the leader moderates the room.
type Room struct {
	ID           string        `json:"id"`
	Topic        string        `json:"topic"`
	MaxCapacity  int           `json:"max_capacity"`
	Status       string        `json:"status"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"created_at"` // UTC
	UpdatedAt    time.Time     `json:"updated_at"` // UTC
}

func (r *Room) IsClosed() bool { return r.Status == StatusCompleted }
func (r *Room) IsFull() bool   { return len(r.Participants) >= r.MaxCapacity }

func (r *Room) participantIdx(userID string) int {
	for i, p := range r.Participants {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

func (r *Room) HasParticipant(userID string) bool { return r.participantIdx(userID) >= 0 }

func (r *Room) Leader() (Participant, bool) {
	for _, p := range r.Participants {
		if p.IsLeader {
			return p, true
		}
	}
	return Participant{}, false
}

// Join adds idt to the room. Rejoining is idempotent: the existing participant
// only goes back online. The first participant becomes leader and activates
// the room.
func (r *Room) Join(idt Identity, now time.Time) error {
	if r.IsClosed() {
		return ErrRoomClosed
	}
	if i := r.participantIdx(idt.UserID); i >= 0 {
		r.Participants[i].IsOnline = true
		r.UpdatedAt = now
		return nil
	}
	if r.IsFull() {
		return ErrRoomFull
	}

	first := len(r.Participants) == 0
	r.Participants = append(r.Participants, Participant{
		UserID:      idt.UserID,
		DisplayName: idt.DisplayName,
		IsOnline:    true,
		IsLeader:    first,
		JoinedAt:    now,
	})
	if first {
		r.Status = StatusActive
	}
	r.UpdatedAt = now
	return nil
}

// Leave removes the participant. A departing leader hands off to the earliest
// joined remaining participant (ties: lowest user id). An emptied room goes
// back to waiting unless it was already closed.
func (r *Room) Leave(userID string, now time.Time) error {
	i := r.participantIdx(userID)
	if i < 0 {
		return ErrNotAMember
	}

	wasLeader := r.Participants[i].IsLeader
	r.Participants = append(r.Participants[:i], r.Participants[i+1:]...)

	if len(r.Participants) == 0 {
		if !r.IsClosed() {
			r.Status = StatusWaiting
		}
	} else if wasLeader {
		r.electLeader()
	}
	r.UpdatedAt = now
	return nil
}

// SetLeader makes userID the sole leader. Idempotent.
func (r *Room) SetLeader(userID string, now time.Time) error {
	i := r.participantIdx(userID)
	if i < 0 {
		return ErrNotAMember
	}
	for j := range r.Participants {
		r.Participants[j].IsLeader = j == i
	}
	r.UpdatedAt = now
	return nil
}

// Close is terminal: no further joins are permitted.
func (r *Room) Close(now time.Time) {
	r.Status = StatusCompleted
	r.UpdatedAt = now
}

func (r *Room) electLeader() {
	if len(r.Participants) == 0 {
		return
	}
	best := 0
	for i := 1; i < len(r.Participants); i++ {
		p, b := r.Participants[i], r.Participants[best]
		if p.JoinedAt.Before(b.JoinedAt) || (p.JoinedAt.Equal(b.JoinedAt) && p.UserID < b.UserID) {
			best = i
		}
	}
	for i := range r.Participants {
		r.Participants[i].IsLeader = i == best
	}
}

// Identity is a joining user as supplied by the identity collaborator.
type Identity struct {
	UserID      string `json:"user_id" validate:"required"`
	DisplayName string `json:"display_name"`
}

func (idt *Identity) Validate() error {
	idt.UserID = core.CleanString(idt.UserID)
	idt.DisplayName = core.CleanString(idt.DisplayName)
	return core.TranslateValidationError(core.Validate.Struct(idt))
}

// NewRoom contains information needed to create a new Room.
type NewRoom struct {
	Topic       string `json:"topic" validate:"required"`
	MaxCapacity int    `json:"max_capacity" validate:"required,gt=0"`
}

func (nr *NewRoom) Validate() error {
	nr.Topic = core.CleanString(nr.Topic)
	return core.TranslateValidationError(core.Validate.Struct(nr))
}
