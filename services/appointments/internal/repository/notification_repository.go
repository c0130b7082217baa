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

type NotificationRepository interface {
	Create(ctx context.Context, nn domain.NewNotification) (*domain.Notification, error)
	FindByID(ctx context.Context, id string) (*domain.Notification, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id string) (*domain.Notification, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationCols = `id, user_id, appointment_id, message, type, read, created_at, updated_at`

func scanNotification(row scanner) (*domain.Notification, error) {
	var (
		n      domain.Notification
		id, to uuid.UUID
		apptID *uuid.UUID
	)
	if err := row.Scan(&id, &to, &apptID, &n.Message, &n.Type, &n.Read, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.ID = id.String()
	n.User = to.String()
	if apptID != nil {
		n.AppointmentID = apptID.String()
	}
	return &n, nil
}

func (r *notificationRepository) Create(ctx context.Context, nn domain.NewNotification) (*domain.Notification, error) {
	to, err := uuid.Parse(nn.UserID)
	if err != nil {
		return nil, err
	}
	var apptID *uuid.UUID
	if nn.AppointmentID != "" {
		if apptID, err = parseOptional(&nn.AppointmentID); err != nil {
			return nil, err
		}
	}

	const q = `INSERT INTO notifications (id, user_id, appointment_id, message, type)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + notificationCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanNotification(database.Conn(ctx, r.pool).QueryRow(ctx, q, uuid.New(), to, apptID, nn.Message, nn.Type))
}

func (r *notificationRepository) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	const q = `SELECT ` + notificationCols + ` FROM notifications WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	n, err := scanNotification(database.Conn(ctx, r.pool).QueryRow(ctx, q, uid))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return n, err
}

// ListForUser returns the user's notifications, newest first.
func (r *notificationRepository) ListForUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return []domain.Notification{}, nil
	}

	const q = `SELECT ` + notificationCols + ` FROM notifications WHERE user_id=$1 ORDER BY created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) (*domain.Notification, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	const q = `UPDATE notifications SET read=true, updated_at=now() WHERE id=$1 RETURNING ` + notificationCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	n, err := scanNotification(database.Conn(ctx, r.pool).QueryRow(ctx, q, uid))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return n, err
}
