package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/room"
)

func CreateRecord(
	t *testing.T,
	repo progress.Repository,
	userID, courseID string,
	createdAt ...time.Time,
) progress.Record {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	rec, err := repo.CreateRecord(context.Background(), progress.NewRecord(userID, courseID, tstamp))
	if err != nil {
		t.Fatalf("createRecord() failed: %v", err)
	}
	return rec
}

func CreateRoom(
	t *testing.T,
	repo room.Repository,
	topic string,
	maxCapacity int,
	createdAt ...time.Time,
) room.Room {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	rm, err := repo.CreateRoom(context.Background(), room.Room{
		Topic:        topic,
		MaxCapacity:  maxCapacity,
		Status:       room.StatusWaiting,
		Participants: make([]room.Participant, 0, maxCapacity),
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	})
	if err != nil {
		t.Fatalf("createRoom() failed: %v", err)
	}
	return rm
}
