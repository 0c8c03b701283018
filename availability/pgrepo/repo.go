// Package pgrepo provides the Postgres-backed availability.Repo.
package pgrepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/skillsync/skillsync-server/availability"
	"github.com/skillsync/skillsync-server/internal/apperrors"
)

var _ availability.Repo = (*Repo)(nil)

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const slotColumns = `id, mentor_id, day_of_week, start_time, end_time, is_active, created_at, updated_at`

func (r *Repo) Create(ctx context.Context, slot *availability.Slot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO mentor_availability (id, mentor_id, day_of_week, start_time, end_time, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		slot.ID, slot.MentorID, slot.DayOfWeek, slot.StartTime, slot.EndTime,
		slot.IsActive, slot.CreatedAt, slot.UpdatedAt,
	)
	return errors.Wrap(err, "[Repo.Create] insert slot")
}

func (r *Repo) GetByID(ctx context.Context, id string) (*availability.Slot, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `SELECT `+slotColumns+` FROM mentor_availability WHERE id = $1`, id))
}

func (r *Repo) ListByMentor(ctx context.Context, mentorID string, activeOnly bool) ([]*availability.Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM mentor_availability
		WHERE mentor_id = $1 AND ($2 = false OR is_active)`,
		mentorID, activeOnly,
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Repo.ListByMentor] query")
	}
	defer rows.Close()

	slots := make([]*availability.Slot, 0)
	for rows.Next() {
		var s availability.Slot
		if err := rows.Scan(&s.ID, &s.MentorID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "[Repo.ListByMentor] scan")
		}
		slots = append(slots, &s)
	}
	return slots, errors.Wrap(rows.Err(), "[Repo.ListByMentor] rows")
}

// FindOverlap uses the half-open interval rule: an existing slot conflicts
// when its start is before the candidate end and its end after the
// candidate start.
func (r *Repo) FindOverlap(ctx context.Context, mentorID string, day availability.DayOfWeek, startTime, endTime, excludeID string) (*availability.Slot, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM mentor_availability
		WHERE mentor_id = $1 AND day_of_week = $2 AND is_active
		  AND start_time < $4 AND end_time > $3
		  AND ($5 = '' OR id <> $5)
		LIMIT 1`,
		mentorID, day, startTime, endTime, excludeID,
	))
}

func (r *Repo) Update(ctx context.Context, slot *availability.Slot) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE mentor_availability
		SET day_of_week = $2, start_time = $3, end_time = $4, is_active = $5, updated_at = $6
		WHERE id = $1`,
		slot.ID, slot.DayOfWeek, slot.StartTime, slot.EndTime, slot.IsActive, slot.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "[Repo.Update] update slot")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSlotNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM mentor_availability WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "[Repo.Delete] delete slot")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSlotNotFound
	}
	return nil
}

func (r *Repo) scanOne(row pgx.Row) (*availability.Slot, error) {
	var s availability.Slot
	err := row.Scan(&s.ID, &s.MentorID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrSlotNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Repo.scanOne] scan slot")
	}
	return &s, nil
}
