package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/room"
)

type (
	DB struct {
		progress *progressTable
		room     *roomTable
	}

	recordKey struct {
		userID   string
		courseID string
	}

	progressTable struct {
		sync.RWMutex
		table map[recordKey]*progress.Record
	}

	roomTable struct {
		sync.RWMutex
		table map[string]*room.Room
	}
)

func Open() (*DB, error) {
	db := &DB{
		progress: &progressTable{table: make(map[recordKey]*progress.Record)},
		room:     &roomTable{table: make(map[string]*room.Room)},
	}
	return db, nil
}
