package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/strmangle"

	"github.com/trezcool/darasa/core/room"
)

type roomRepository struct {
	db *sqlx.DB
}

var _ room.Repository = (*roomRepository)(nil) // interface compliance check

func NewRoomRepository(db *sqlx.DB) *roomRepository {
	return &roomRepository{db: db}
}

type dbRoom struct {
	ID          string    `db:"id"`
	Topic       string    `db:"topic"`
	MaxCapacity int       `db:"max_capacity"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type dbParticipant struct {
	RoomID      string    `db:"room_id"`
	UserID      string    `db:"user_id"`
	DisplayName string    `db:"display_name"`
	IsOnline    bool      `db:"is_online"`
	IsLeader    bool      `db:"is_leader"`
	JoinedAt    time.Time `db:"joined_at"`
}

func (repo roomRepository) unpack(r dbRoom, ps []dbParticipant) room.Room {
	rm := room.Room{
		ID:           r.ID,
		Topic:        r.Topic,
		MaxCapacity:  r.MaxCapacity,
		Status:       r.Status,
		Participants: make([]room.Participant, 0, len(ps)),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	for _, p := range ps {
		rm.Participants = append(rm.Participants, room.Participant{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			IsOnline:    p.IsOnline,
			IsLeader:    p.IsLeader,
			JoinedAt:    p.JoinedAt,
		})
	}
	return rm
}

// trapNoRowsErr maps psql "no rows" err to room.ErrNotFound
func (repo roomRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return room.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo roomRepository) getParticipants(ctx context.Context, roomIDs []string) (map[string][]dbParticipant, error) {
	byRoom := make(map[string][]dbParticipant, len(roomIDs))
	if len(roomIDs) == 0 {
		return byRoom, nil
	}

	args := make([]interface{}, 0, len(roomIDs))
	for _, id := range roomIDs {
		args = append(args, id)
	}
	var ps []dbParticipant
	query := fmt.Sprintf(
		`SELECT * FROM room_participant WHERE room_id IN (%s) ORDER BY joined_at, user_id`,
		strmangle.Placeholders(true, len(roomIDs), 1, 1),
	)
	if err := sqlx.SelectContext(ctx, repo.db, &ps, query, args...); err != nil {
		return nil, errors.Wrap(err, "getting participants")
	}
	for _, p := range ps {
		byRoom[p.RoomID] = append(byRoom[p.RoomID], p)
	}
	return byRoom, nil
}

func (repo roomRepository) GetRoom(ctx context.Context, id string) (room.Room, error) {
	var r dbRoom
	if err := sqlx.GetContext(ctx, repo.db, &r, `SELECT * FROM room WHERE id = $1`, id); err != nil {
		return room.Room{}, repo.trapNoRowsErr(err, "getting room")
	}
	ps, err := repo.getParticipants(ctx, []string{id})
	if err != nil {
		return room.Room{}, err
	}
	return repo.unpack(r, ps[id]), nil
}

func (repo roomRepository) QueryRooms(ctx context.Context, ids ...string) ([]room.Room, error) {
	var rs []dbRoom
	if len(ids) > 0 {
		args := make([]interface{}, 0, len(ids))
		for _, id := range ids {
			args = append(args, id)
		}
		query := fmt.Sprintf(
			`SELECT * FROM room WHERE id IN (%s) ORDER BY created_at, id`,
			strmangle.Placeholders(true, len(ids), 1, 1),
		)
		if err := sqlx.SelectContext(ctx, repo.db, &rs, query, args...); err != nil {
			return nil, errors.Wrap(err, "querying rooms")
		}
		if len(rs) != len(ids) {
			return nil, room.ErrNotFound
		}
	} else {
		if err := sqlx.SelectContext(ctx, repo.db, &rs,
			`SELECT * FROM room ORDER BY created_at, id`); err != nil {
			return nil, errors.Wrap(err, "querying rooms")
		}
	}

	roomIDs := make([]string, 0, len(rs))
	for _, r := range rs {
		roomIDs = append(roomIDs, r.ID)
	}
	ps, err := repo.getParticipants(ctx, roomIDs)
	if err != nil {
		return nil, err
	}

	rooms := make([]room.Room, 0, len(rs))
	for _, r := range rs {
		rooms = append(rooms, repo.unpack(r, ps[r.ID]))
	}
	return rooms, nil
}

func (repo roomRepository) insertParticipants(ctx context.Context, exec sqlx.ExecerContext, roomID string, ps []room.Participant) error {
	if len(ps) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(ps)*6)
	for _, p := range ps {
		args = append(args, roomID, p.UserID, p.DisplayName, p.IsOnline, p.IsLeader, p.JoinedAt.UTC())
	}
	query := fmt.Sprintf(
		`INSERT INTO room_participant (room_id, user_id, display_name, is_online, is_leader, joined_at) VALUES %s`,
		strmangle.Placeholders(true, len(ps)*6, 1, 6),
	)
	_, err := exec.ExecContext(ctx, query, args...)
	return errors.Wrap(err, "inserting participants")
}

func (repo roomRepository) CreateRoom(ctx context.Context, rm room.Room) (room.Room, error) {
	rm.ID = uuid.New().String()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return room.Room{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO room (id, topic, max_capacity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rm.ID, rm.Topic, rm.MaxCapacity, rm.Status, rm.CreatedAt.UTC(), rm.UpdatedAt.UTC(),
	); err != nil {
		return room.Room{}, errors.Wrap(err, "inserting room")
	}
	if err = repo.insertParticipants(ctx, tx, rm.ID, rm.Participants); err != nil {
		return room.Room{}, err
	}
	if err = tx.Commit(); err != nil {
		return room.Room{}, errors.Wrap(err, "committing tx")
	}
	return rm, nil
}

func (repo roomRepository) UpdateRoom(ctx context.Context, rm room.Room) (room.Room, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return room.Room{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE room
		SET topic = $2, max_capacity = $3, status = $4, updated_at = $5
		WHERE id = $1`,
		rm.ID, rm.Topic, rm.MaxCapacity, rm.Status, rm.UpdatedAt.UTC(),
	)
	if err != nil {
		return room.Room{}, errors.Wrap(err, "updating room")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return room.Room{}, room.ErrNotFound
	}

	// participants are few per room: replace wholesale
	if _, err = tx.ExecContext(ctx, `DELETE FROM room_participant WHERE room_id = $1`, rm.ID); err != nil {
		return room.Room{}, errors.Wrap(err, "clearing participants")
	}
	if err = repo.insertParticipants(ctx, tx, rm.ID, rm.Participants); err != nil {
		return room.Room{}, err
	}
	if err = tx.Commit(); err != nil {
		return room.Room{}, errors.Wrap(err, "committing tx")
	}
	return rm, nil
}

func (repo roomRepository) DeleteRoom(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM room WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting room")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return room.ErrNotFound
	}
	return nil
}
