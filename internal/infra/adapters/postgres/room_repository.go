package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/adapters/repository"
)

type roomRepo struct {
	db *sqlx.DB
}

func NewRoomRepo(db *sqlx.DB) repository.RoomRepository {
	return &roomRepo{db: db}
}

// roomRow mirrors the rooms table; the participant columns are jsonb.
type roomRow struct {
	Code        string    `db:"code"`
	Active      bool      `db:"active"`
	CreatedAt   time.Time `db:"created_at"`
	Sender      []byte    `db:"sender"`
	Receivers   []byte    `db:"receivers"`
	Invitations []byte    `db:"invitations"`
}

func (row *roomRow) toModel() (*models.Room, error) {
	room := &models.Room{
		Code:      row.Code,
		Active:    row.Active,
		CreatedAt: row.CreatedAt,
		Receivers: make([]models.Participant, 0),
	}

	if len(row.Sender) > 0 && string(row.Sender) != "null" {
		room.Sender = &models.Participant{}
		if err := json.Unmarshal(row.Sender, room.Sender); err != nil {
			return nil, fmt.Errorf("unmarshal sender: %w", err)
		}
	}

	if len(row.Receivers) > 0 {
		if err := json.Unmarshal(row.Receivers, &room.Receivers); err != nil {
			return nil, fmt.Errorf("unmarshal receivers: %w", err)
		}
	}

	if len(row.Invitations) > 0 {
		if err := json.Unmarshal(row.Invitations, &room.Invitations); err != nil {
			return nil, fmt.Errorf("unmarshal invitations: %w", err)
		}
	}

	return room, nil
}

func (r *roomRepo) Create(ctx context.Context, room *models.Room) error {
	sender, err := json.Marshal(room.Sender)
	if err != nil {
		return fmt.Errorf("marshal sender: %w", err)
	}

	// A dead room may keep its row for a while; its code is reclaimable.
	// A live room holding the code makes the insert a no-op, which we
	// surface as a collision.
	res, err := r.db.ExecContext(
		ctx,
		`INSERT INTO rooms (code, active, created_at, sender, receivers, invitations)
		 VALUES ($1, $2, $3, $4, '[]'::jsonb, '[]'::jsonb)
		 ON CONFLICT (code) DO UPDATE
		 SET active = EXCLUDED.active,
		     created_at = EXCLUDED.created_at,
		     sender = EXCLUDED.sender,
		     receivers = '[]'::jsonb,
		     invitations = '[]'::jsonb
		 WHERE rooms.active = FALSE`,
		room.Code,
		room.Active,
		room.CreatedAt,
		sender,
	)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return repository.ErrRoomExists
	}

	return nil
}

func (r *roomRepo) GetByCode(ctx context.Context, code string) (*models.Room, error) {
	var row roomRow

	err := r.db.GetContext(ctx, &row, "SELECT * FROM rooms WHERE code = $1", code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select room: %w", err)
	}

	return row.toModel()
}

func (r *roomRepo) List(ctx context.Context) ([]models.Room, error) {
	var rows []roomRow

	err := r.db.SelectContext(ctx, &rows, "SELECT * FROM rooms ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("select rooms: %w", err)
	}

	rooms := make([]models.Room, 0, len(rows))
	for i := range rows {
		room, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}

	return rooms, nil
}

func (r *roomRepo) AddReceiver(ctx context.Context, code string, p models.Participant) error {
	entry, err := json.Marshal([]models.Participant{p})
	if err != nil {
		return fmt.Errorf("marshal receiver: %w", err)
	}

	// Additive jsonb append. Receivers only ever write their own entry, so
	// two concurrent joins both land.
	res, err := r.db.ExecContext(
		ctx,
		`UPDATE rooms
		 SET receivers = receivers || $2::jsonb
		 WHERE code = $1 AND active = TRUE AND NOT receivers @> $2::jsonb`,
		code,
		entry,
	)
	if err != nil {
		return fmt.Errorf("append receiver: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing updated: missing room, terminated room, or re-join. Only the
	// first two are errors.
	room, err := r.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if !room.Active {
		return repository.ErrRoomInactive
	}

	return nil
}

func (r *roomRepo) RemoveReceiver(ctx context.Context, code string, id uuid.UUID) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE rooms
		 SET receivers = COALESCE(
		     (SELECT jsonb_agg(e) FROM jsonb_array_elements(receivers) e WHERE e->>'id' <> $2),
		     '[]'::jsonb)
		 WHERE code = $1`,
		code,
		id.String(),
	)
	if err != nil {
		return fmt.Errorf("remove receiver: %w", err)
	}

	return nil
}

func (r *roomRepo) SetActive(ctx context.Context, code string, active bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE rooms SET active = $2 WHERE code = $1", code, active)
	if err != nil {
		return fmt.Errorf("update room active: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrRoomNotFound
	}

	return nil
}

func (r *roomRepo) AppendInvitation(ctx context.Context, code string, inv models.Invitation) error {
	entry, err := json.Marshal([]models.Invitation{inv})
	if err != nil {
		return fmt.Errorf("marshal invitation: %w", err)
	}

	res, err := r.db.ExecContext(
		ctx,
		`UPDATE rooms SET invitations = invitations || $2::jsonb
		 WHERE code = $1 AND active = TRUE`,
		code,
		entry,
	)
	if err != nil {
		return fmt.Errorf("append invitation: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing updated: missing or terminated room.
	room, err := r.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if !room.Active {
		return repository.ErrRoomInactive
	}

	return nil
}
