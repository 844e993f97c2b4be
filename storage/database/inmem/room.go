package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/room"
)

type roomRepository struct {
	db *roomTable
}

var _ room.Repository = (*roomRepository)(nil) // interface compliance check

func NewRoomRepository(db *DB) room.Repository {
	return &roomRepository{db: db.room}
}

func copyRoom(rm room.Room) room.Room {
	cp := rm
	cp.Participants = append([]room.Participant(nil), rm.Participants...)
	return cp
}

func (repo *roomRepository) GetRoom(_ context.Context, id string) (room.Room, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rm, ok := repo.db.table[id]
	if !ok {
		return room.Room{}, room.ErrNotFound
	}
	return copyRoom(*rm), nil
}

func (repo *roomRepository) QueryRooms(_ context.Context, ids ...string) ([]room.Room, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if len(ids) > 0 {
		rooms := make([]room.Room, 0, len(ids))
		for _, id := range ids {
			rm, ok := repo.db.table[id]
			if !ok {
				return nil, room.ErrNotFound
			}
			rooms = append(rooms, copyRoom(*rm))
		}
		return rooms, nil
	}

	rooms := make([]room.Room, 0, len(repo.db.table))
	for _, rm := range repo.db.table {
		rooms = append(rooms, copyRoom(*rm))
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (repo *roomRepository) CreateRoom(_ context.Context, rm room.Room) (room.Room, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rm.ID = uuid.New().String()
	stored := copyRoom(rm)
	repo.db.table[rm.ID] = &stored
	return copyRoom(stored), nil
}

func (repo *roomRepository) UpdateRoom(_ context.Context, rm room.Room) (room.Room, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[rm.ID]; !ok {
		return room.Room{}, room.ErrNotFound
	}
	stored := copyRoom(rm)
	repo.db.table[rm.ID] = &stored
	return copyRoom(stored), nil
}

func (repo *roomRepository) DeleteRoom(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return room.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
