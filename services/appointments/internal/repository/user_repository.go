package repository

import (
	"context"
	"time"

	"github.com/diagnosis/coachbook/pkg/authz"
	"github.com/diagnosis/coachbook/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository is a read-only view of the users table, which the auth
// service owns.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*authz.Identity, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*authz.Identity, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	const q = `SELECT id, name, email, role FROM users WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		u      authz.Identity
		userID uuid.UUID
	)
	err = database.Conn(ctx, r.pool).QueryRow(ctx, q, uid).Scan(&userID, &u.Name, &u.Email, &u.Role)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.ID = userID.String()
	return &u, nil
}

// IdentityLoader adapts a UserRepository to the authorization gate.
type IdentityLoader struct {
	Users UserRepository
}

func (l IdentityLoader) LoadIdentity(ctx context.Context, userID string) (*authz.Identity, error) {
	return l.Users.FindByID(ctx, userID)
}
