package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/progress"
)

const pqUniqueViolation = "23505"

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *sqlx.DB) *progressRepository {
	return &progressRepository{db: db}
}

// pctMap stores a {id: percentage} mapping as JSONB.
type pctMap map[string]int

func (m pctMap) Value() (driver.Value, error) {
	if m == nil {
		m = pctMap{}
	}
	return json.Marshal(m)
}

func (m *pctMap) Scan(src interface{}) error {
	if src == nil {
		*m = pctMap{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.Errorf("unsupported pctMap source %T", src)
	}
	return json.Unmarshal(b, m)
}

type dbRecord struct {
	ID                string         `db:"id"`
	UserID            string         `db:"user_id"`
	CourseID          string         `db:"course_id"`
	ContentProgress   pctMap         `db:"content_progress"`
	SectionProgress   pctMap         `db:"section_progress"`
	CompletedContents pq.StringArray `db:"completed_contents"`
	OverallProgress   int            `db:"overall_progress"`
	StartedAt         time.Time      `db:"started_at"`
	LastAccessedAt    time.Time      `db:"last_accessed_at"`
	CompletedAt       null.Time      `db:"completed_at"`
}

func (repo progressRepository) pack(rec progress.Record) dbRecord {
	return dbRecord{
		ID:                rec.ID,
		UserID:            rec.UserID,
		CourseID:          rec.CourseID,
		ContentProgress:   pctMap(rec.ContentProgress),
		SectionProgress:   pctMap(rec.SectionProgress),
		CompletedContents: pq.StringArray(rec.CompletedContents),
		OverallProgress:   rec.OverallProgress,
		StartedAt:         rec.StartedAt.UTC(),
		LastAccessedAt:    rec.LastAccessedAt.UTC(),
		CompletedAt:       null.NewTime(rec.CompletedAt.UTC(), !rec.CompletedAt.IsZero()),
	}
}

func (repo progressRepository) unpack(r dbRecord) progress.Record {
	rec := progress.Record{
		ID:                r.ID,
		UserID:            r.UserID,
		CourseID:          r.CourseID,
		ContentProgress:   map[string]int(r.ContentProgress),
		SectionProgress:   map[string]int(r.SectionProgress),
		CompletedContents: []string(r.CompletedContents),
		OverallProgress:   r.OverallProgress,
		StartedAt:         r.StartedAt,
		LastAccessedAt:    r.LastAccessedAt,
	}
	if r.CompletedAt.Valid {
		rec.CompletedAt = r.CompletedAt.Time
	}
	return rec
}

// trapNoRowsErr maps psql "no rows" err to progress.ErrNotFound
func (repo progressRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return progress.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo progressRepository) GetRecord(ctx context.Context, userID, courseID string) (progress.Record, error) {
	var r dbRecord
	err := sqlx.GetContext(ctx, repo.db, &r,
		`SELECT * FROM progress_record WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return progress.Record{}, repo.trapNoRowsErr(err, "getting progress record")
	}
	return repo.unpack(r), nil
}

func (repo progressRepository) CreateRecord(ctx context.Context, rec progress.Record) (progress.Record, error) {
	rec.ID = uuid.New().String()
	r := repo.pack(rec)
	_, err := sqlx.NamedExecContext(ctx, repo.db, `
		INSERT INTO progress_record (id, user_id, course_id, content_progress, section_progress,
		                             completed_contents, overall_progress, started_at, last_accessed_at, completed_at)
		VALUES (:id, :user_id, :course_id, :content_progress, :section_progress,
		        :completed_contents, :overall_progress, :started_at, :last_accessed_at, :completed_at)`, r)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return progress.Record{}, progress.ErrRecordExists
		}
		return progress.Record{}, errors.Wrap(err, "inserting progress record")
	}
	return repo.unpack(r), nil
}

func (repo progressRepository) UpdateRecord(ctx context.Context, rec progress.Record) (progress.Record, error) {
	r := repo.pack(rec)
	res, err := sqlx.NamedExecContext(ctx, repo.db, `
		UPDATE progress_record
		SET content_progress   = :content_progress,
		    section_progress   = :section_progress,
		    completed_contents = :completed_contents,
		    overall_progress   = :overall_progress,
		    last_accessed_at   = :last_accessed_at,
		    completed_at       = :completed_at
		WHERE user_id = :user_id AND course_id = :course_id`, r)
	if err != nil {
		return progress.Record{}, errors.Wrap(err, "updating progress record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return progress.Record{}, progress.ErrNotFound
	}
	return repo.unpack(r), nil
}

func (repo progressRepository) DeleteRecord(ctx context.Context, userID, courseID string) error {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM progress_record WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return errors.Wrap(err, "deleting progress record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return progress.ErrNotFound
	}
	return nil
}
