package repository

import (
	"context"
	"time"

	"github.com/diagnosis/coachbook/pkg/database"
	"github.com/diagnosis/coachbook/services/appointments/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AvailabilityRepository interface {
	Upsert(ctx context.Context, trainerID, date string, slots []domain.Slot) (*domain.Availability, error)
	List(ctx context.Context, trainerID, date string) ([]domain.Availability, error)
}

type availabilityRepository struct {
	pool *pgxpool.Pool
}

func NewAvailabilityRepository(pool *pgxpool.Pool) AvailabilityRepository {
	return &availabilityRepository{pool: pool}
}

const availabilityCols = `id, trainer_id, date, slots, created_at, updated_at`

func scanAvailability(row scanner) (*domain.Availability, error) {
	var (
		a             domain.Availability
		id, trainerID uuid.UUID
	)
	if err := row.Scan(&id, &trainerID, &a.Date, &a.Slots, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.ID = id.String()
	a.Trainer = trainerID.String()
	if a.Slots == nil {
		a.Slots = []domain.Slot{}
	}
	return &a, nil
}

// Upsert replaces the slot list for (trainer, date) wholesale.
func (r *availabilityRepository) Upsert(ctx context.Context, trainerID, date string, slots []domain.Slot) (*domain.Availability, error) {
	tid, err := uuid.Parse(trainerID)
	if err != nil {
		return nil, err
	}

	const q = `INSERT INTO availability (id, trainer_id, date, slots)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (trainer_id, date) DO UPDATE
	SET slots = EXCLUDED.slots, updated_at = now()
	RETURNING ` + availabilityCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanAvailability(database.Conn(ctx, r.pool).QueryRow(ctx, q, uuid.New(), tid, date, slots))
}

// List returns the trainer's availability, narrowed to one date when date is
// not empty. An unknown or malformed trainer id yields an empty list.
func (r *availabilityRepository) List(ctx context.Context, trainerID, date string) ([]domain.Availability, error) {
	tid, err := uuid.Parse(trainerID)
	if err != nil {
		return []domain.Availability{}, nil
	}

	q := `SELECT ` + availabilityCols + ` FROM availability WHERE trainer_id=$1`
	args := []any{tid}
	if date != "" {
		q += ` AND date=$2`
		args = append(args, date)
	}
	q += ` ORDER BY created_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Availability{}
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
