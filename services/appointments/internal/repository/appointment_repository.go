package repository

import (
	"context"
	"time"

	"github.com/diagnosis/coachbook/pkg/database"
	"github.com/diagnosis/coachbook/services/appointments/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AppointmentRepository interface {
	ExistsForUserSlot(ctx context.Context, userID, date, slot string) (bool, error)
	Create(ctx context.Context, na domain.NewAppointment) (*domain.Appointment, error)
	FindByID(ctx context.Context, id string) (*domain.Appointment, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Appointment, error)
	ListByTrainer(ctx context.Context, trainerID string) ([]domain.Appointment, error)
	ListAll(ctx context.Context) ([]domain.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Appointment, error)
	Update(ctx context.Context, id string, patch domain.AppointmentPatch) (*domain.Appointment, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type appointmentRepository struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepository(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepository{pool: pool}
}

const appointmentCols = `a.id, a.user_id, a.trainer_id, a.date, a.time, a.status,
a.notes, a.price, a.scolor, a.origin, a.created_at, a.updated_at`

// Listings join both parties. Users are weak references, so a deleted user
// yields empty name and email.
const appointmentListQuery = `SELECT ` + appointmentCols + `,
	COALESCE(u.name, ''), COALESCE(u.email, ''),
	COALESCE(t.name, ''), COALESCE(t.email, '')
FROM appointments a
LEFT JOIN users u ON u.id = a.user_id
LEFT JOIN users t ON t.id = a.trainer_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row scanner, extra ...any) (*domain.Appointment, error) {
	var (
		a                 domain.Appointment
		id, userID, trnID uuid.UUID
		notes             *string
	)
	dest := append([]any{
		&id, &userID, &trnID, &a.Date, &a.Time, &a.Status,
		&notes, &a.Price, &a.Scolor, &a.Origin, &a.CreatedAt, &a.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	a.ID = id.String()
	a.User.ID = userID.String()
	a.Trainer.ID = trnID.String()
	if notes != nil {
		a.Notes = *notes
	}
	return &a, nil
}

func (r *appointmentRepository) ExistsForUserSlot(ctx context.Context, userID, date, slot string) (bool, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return false, nil
	}

	const q = `SELECT EXISTS (SELECT 1 FROM appointments WHERE user_id=$1 AND date=$2 AND time=$3)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err = database.Conn(ctx, r.pool).QueryRow(ctx, q, uid, date, slot).Scan(&exists)
	return exists, err
}

func (r *appointmentRepository) Create(ctx context.Context, na domain.NewAppointment) (*domain.Appointment, error) {
	userID, err := uuid.Parse(na.UserID)
	if err != nil {
		return nil, err
	}
	trainerID, err := uuid.Parse(na.TrainerID)
	if err != nil {
		return nil, err
	}

	const q = `INSERT INTO appointments AS a (
		id, user_id, trainer_id, date, time, status, notes, price, scolor, origin
	) VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),$8,$9,$10)
	RETURNING ` + appointmentCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAppointment(database.Conn(ctx, r.pool).QueryRow(ctx, q,
		uuid.New(), userID, trainerID, na.Date, na.Time, na.Status,
		na.Notes, na.Price, na.Scolor, na.Origin,
	))
	if database.IsUniqueViolation(err) {
		return nil, domain.ErrSlotTaken
	}
	return a, err
}

// FindByID treats a malformed id like an unknown one.
func (r *appointmentRepository) FindByID(ctx context.Context, id string) (*domain.Appointment, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	const q = `SELECT ` + appointmentCols + ` FROM appointments a WHERE a.id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAppointment(database.Conn(ctx, r.pool).QueryRow(ctx, q, uid))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (r *appointmentRepository) ListByUser(ctx context.Context, userID string) ([]domain.Appointment, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return []domain.Appointment{}, nil
	}
	return r.list(ctx, appointmentListQuery+` WHERE a.user_id=$1 ORDER BY a.created_at`, uid)
}

func (r *appointmentRepository) ListByTrainer(ctx context.Context, trainerID string) ([]domain.Appointment, error) {
	uid, err := uuid.Parse(trainerID)
	if err != nil {
		return []domain.Appointment{}, nil
	}
	return r.list(ctx, appointmentListQuery+` WHERE a.trainer_id=$1 ORDER BY a.created_at`, uid)
}

func (r *appointmentRepository) ListAll(ctx context.Context) ([]domain.Appointment, error) {
	return r.list(ctx, appointmentListQuery+` ORDER BY a.created_at`)
}

func (r *appointmentRepository) list(ctx context.Context, q string, args ...any) ([]domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := []domain.Appointment{}
	for rows.Next() {
		var user, trainer domain.Party
		a, err := scanAppointment(rows, &user.Name, &user.Email, &trainer.Name, &trainer.Email)
		if err != nil {
			return nil, err
		}
		a.User.Name, a.User.Email = user.Name, user.Email
		a.Trainer.Name, a.Trainer.Email = trainer.Name, trainer.Email
		appointments = append(appointments, *a)
	}
	return appointments, rows.Err()
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Appointment, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	const q = `UPDATE appointments AS a SET status=$2, updated_at=now()
	WHERE a.id=$1
	RETURNING ` + appointmentCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAppointment(database.Conn(ctx, r.pool).QueryRow(ctx, q, uid, status))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (r *appointmentRepository) Update(ctx context.Context, id string, patch domain.AppointmentPatch) (*domain.Appointment, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	userID, err := parseOptional(patch.UserID)
	if err != nil {
		return nil, err
	}
	trainerID, err := parseOptional(patch.TrainerID)
	if err != nil {
		return nil, err
	}

	const q = `UPDATE appointments AS a SET
		user_id    = COALESCE($2, a.user_id),
		trainer_id = COALESCE($3, a.trainer_id),
		date       = COALESCE($4, a.date),
		time       = COALESCE($5, a.time),
		notes      = COALESCE($6, a.notes),
		scolor     = COALESCE($7, a.scolor),
		updated_at = now()
	WHERE a.id=$1
	RETURNING ` + appointmentCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAppointment(database.Conn(ctx, r.pool).QueryRow(ctx, q,
		uid, userID, trainerID, patch.Date, patch.Time, patch.Notes, patch.Scolor,
	))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if database.IsUniqueViolation(err) {
		return nil, domain.ErrSlotTaken
	}
	return a, err
}

func (r *appointmentRepository) Delete(ctx context.Context, id string) (bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}

	const q = `DELETE FROM appointments WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := database.Conn(ctx, r.pool).Exec(ctx, q, uid)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func parseOptional(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
