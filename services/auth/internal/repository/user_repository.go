package repository

import (
	"context"
	"time"

	"github.com/diagnosis/coachbook/pkg/authz"
	"github.com/diagnosis/coachbook/pkg/database"
	"github.com/diagnosis/coachbook/services/auth/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, u domain.NewUser) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]domain.User, error)
	ListByRoles(ctx context.Context, roles []string) ([]domain.User, error)
	Count(ctx context.Context) (int, error)
	CountByRoles(ctx context.Context, roles []string) (int, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, name, email, password_hash, role, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		u  domain.User
		id uuid.UUID
	)
	if err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.ID = id.String()
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	const q = `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(database.Conn(ctx, r.pool).QueryRow(ctx, q, uuid.New(), nu.Name, nu.Email, nu.PasswordHash, nu.Role))
	if database.IsUniqueViolation(err) {
		return nil, domain.ErrEmailTaken
	}
	return u, err
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(database.Conn(ctx, r.pool).QueryRow(ctx, q, email))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// FindByID treats a malformed id like an unknown one.
func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(database.Conn(ctx, r.pool).QueryRow(ctx, q, uid))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	const q = `
		UPDATE users
		SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			role = COALESCE($4, role),
			password_hash = COALESCE($5, password_hash),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(database.Conn(ctx, r.pool).QueryRow(ctx, q, uid, patch.Name, patch.Email, patch.Role, patch.PasswordHash))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if database.IsUniqueViolation(err) {
		return nil, domain.ErrEmailTaken
	}
	return u, err
}

func (r *userRepository) Delete(ctx context.Context, id string) (bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}

	const q = `DELETE FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := database.Conn(ctx, r.pool).Exec(ctx, q, uid)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.query(ctx, `SELECT `+userCols+` FROM users ORDER BY created_at`)
}

func (r *userRepository) ListByRoles(ctx context.Context, roles []string) ([]domain.User, error) {
	return r.query(ctx, `SELECT `+userCols+` FROM users WHERE role = ANY($1) ORDER BY created_at`, roles)
}

func (r *userRepository) query(ctx context.Context, q string, args ...any) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := database.Conn(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM users`)
}

func (r *userRepository) CountByRoles(ctx context.Context, roles []string) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM users WHERE role = ANY($1)`, roles)
}

func (r *userRepository) count(ctx context.Context, q string, args ...any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	err := database.Conn(ctx, r.pool).QueryRow(ctx, q, args...).Scan(&n)
	return n, err
}

// IdentityLoader adapts a UserRepository to the authorization gate.
type IdentityLoader struct {
	Users UserRepository
}

func (l IdentityLoader) LoadIdentity(ctx context.Context, userID string) (*authz.Identity, error) {
	u, err := l.Users.FindByID(ctx, userID)
	if err != nil || u == nil {
		return nil, err
	}
	id := u.Identity()
	return &id, nil
}
