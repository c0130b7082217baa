package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepository reads appointment counts for the admin dashboard. The
// appointments table belongs to the appointments service; this is read-only.
type StatsRepository interface {
	CountAppointments(ctx context.Context) (int, error)
	CountActiveAppointments(ctx context.Context) (int, error)
}

type statsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) CountAppointments(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM appointments`)
}

func (r *statsRepository) CountActiveAppointments(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM appointments WHERE status IN ('pending', 'confirmed')`)
}

func (r *statsRepository) count(ctx context.Context, q string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	err := r.pool.QueryRow(ctx, q).Scan(&n)
	return n, err
}
