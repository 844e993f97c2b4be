package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) progress.Repository {
	return &progressRepository{db: db.progress}
}

// copyRecord deep-copies rec so callers never share the stored maps.
func copyRecord(rec progress.Record) progress.Record {
	cp := rec
	cp.ContentProgress = make(map[string]int, len(rec.ContentProgress))
	for k, v := range rec.ContentProgress {
		cp.ContentProgress[k] = v
	}
	cp.SectionProgress = make(map[string]int, len(rec.SectionProgress))
	for k, v := range rec.SectionProgress {
		cp.SectionProgress[k] = v
	}
	cp.CompletedContents = append([]string(nil), rec.CompletedContents...)
	return cp
}

func (repo *progressRepository) GetRecord(_ context.Context, userID, courseID string) (progress.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rec, ok := repo.db.table[recordKey{userID, courseID}]
	if !ok {
		return progress.Record{}, progress.ErrNotFound
	}
	return copyRecord(*rec), nil
}

func (repo *progressRepository) CreateRecord(_ context.Context, rec progress.Record) (progress.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := recordKey{rec.UserID, rec.CourseID}
	if _, ok := repo.db.table[key]; ok {
		return progress.Record{}, progress.ErrRecordExists
	}
	rec.ID = uuid.New().String()
	stored := copyRecord(rec)
	repo.db.table[key] = &stored
	return copyRecord(stored), nil
}

func (repo *progressRepository) UpdateRecord(_ context.Context, rec progress.Record) (progress.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := recordKey{rec.UserID, rec.CourseID}
	if _, ok := repo.db.table[key]; !ok {
		return progress.Record{}, progress.ErrNotFound
	}
	stored := copyRecord(rec)
	repo.db.table[key] = &stored
	return copyRecord(stored), nil
}

func (repo *progressRepository) DeleteRecord(_ context.Context, userID, courseID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := recordKey{userID, courseID}
	if _, ok := repo.db.table[key]; !ok {
		return progress.ErrNotFound
	}
	delete(repo.db.table, key)
	return nil
}
