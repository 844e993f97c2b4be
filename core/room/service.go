package room

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

var (
	// errors
	ErrNotFound   = errors.New("room not found")
	ErrRoomClosed = errors.New("room is closed")
	ErrRoomFull   = errors.New("room is full")
	ErrNotAMember = errors.New("user is not a member of this room")

	nowFunc     = time.Now     // mockable
	shuffleFunc = rand.Shuffle // mockable
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

type (
	Repository interface {
		GetRoom(ctx context.Context, id string) (Room, error)
		QueryRooms(ctx context.Context, ids ...string) ([]Room, error)
		CreateRoom(ctx context.Context, rm Room) (Room, error)
		UpdateRoom(ctx context.Context, rm Room) (Room, error)
		DeleteRoom(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nr NewRoom) (Room, error) {
	if err := nr.Validate(); err != nil {
		return Room{}, err
	}
	now := nowFunc().UTC()
	return svc.repo.CreateRoom(ctx, Room{
		Topic:        nr.Topic,
		MaxCapacity:  nr.MaxCapacity,
		Status:       StatusWaiting,
		Participants: make([]Participant, 0, nr.MaxCapacity),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *Service) Get(ctx context.Context, id string) (Room, error) {
	return svc.repo.GetRoom(ctx, id)
}

func (svc *Service) Join(ctx context.Context, roomID string, idt Identity) (Room, error) {
	if err := idt.Validate(); err != nil {
		return Room{}, err
	}
	rm, err := svc.repo.GetRoom(ctx, roomID)
	if err != nil {
		return Room{}, err
	}
	if err := rm.Join(idt, nowFunc().UTC()); err != nil {
		return Room{}, err
	}
	return svc.repo.UpdateRoom(ctx, rm)
}

func (svc *Service) Leave(ctx context.Context, roomID, userID string) (Room, error) {
	rm, err := svc.repo.GetRoom(ctx, roomID)
	if err != nil {
		return Room{}, err
	}
	if err := rm.Leave(userID, nowFunc().UTC()); err != nil {
		return Room{}, err
	}
	return svc.repo.UpdateRoom(ctx, rm)
}

func (svc *Service) SetLeader(ctx context.Context, roomID, userID string) (Room, error) {
	rm, err := svc.repo.GetRoom(ctx, roomID)
	if err != nil {
		return Room{}, err
	}
	if err := rm.SetLeader(userID, nowFunc().UTC()); err != nil {
		return Room{}, err
	}
	return svc.repo.UpdateRoom(ctx, rm)
}

func (svc *Service) Close(ctx context.Context, roomID string) (Room, error) {
	rm, err := svc.repo.GetRoom(ctx, roomID)
	if err != nil {
		return Room{}, err
	}
	rm.Close(nowFunc().UTC())
	return svc.repo.UpdateRoom(ctx, rm)
}

// Delete removes the room and returns its participants so the caller can put
// them back in the unassigned pool.
func (svc *Service) Delete(ctx context.Context, roomID string) ([]Participant, error) {
	rm, err := svc.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := svc.repo.DeleteRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return rm.Participants, nil
}

// RandomAssign distributes users over the given rooms and persists the
// updated rooms. Users that could not be placed are returned.
func (svc *Service) RandomAssign(ctx context.Context, users []Identity, roomIDs ...string) ([]Room, []Identity, error) {
	rooms, err := svc.repo.QueryRooms(ctx, roomIDs...)
	if err != nil {
		return nil, nil, err
	}

	rooms, remaining := randomAssign(users, rooms, nowFunc().UTC())

	for i, rm := range rooms {
		if rooms[i], err = svc.repo.UpdateRoom(ctx, rm); err != nil {
			return nil, nil, err
		}
	}
	return rooms, remaining, nil
}

// randomAssign shuffles users and deals them round-robin over the eligible
// rooms (not closed, capacity left), one user per room per pass, until all
// users are placed or no capacity remains. Pure: outputs depend only on the
// inputs and shuffleFunc.
func randomAssign(users []Identity, rooms []Room, now time.Time) ([]Room, []Identity) {
	shuffled := append([]Identity(nil), users...)
	shuffleFunc(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	idx := 0
	for idx < len(shuffled) {
		var placed bool
		for i := range rooms {
			if idx >= len(shuffled) {
				break
			}
			rm := &rooms[i]
			if rm.IsClosed() || rm.IsFull() {
				continue
			}
			_ = rm.Join(shuffled[idx], now) // cannot fail: room open with capacity left
			idx++
			placed = true
		}
		if !placed {
			break
		}
	}
	return rooms, shuffled[idx:]
}
