package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/townhall-portal/internal/domain"
)

// RequestRepository encapsulates service request persistence.
type RequestRepository interface {
	Insert(ctx context.Context, req *domain.ServiceRequest) error
	ListByUser(ctx context.Context, userID int64) ([]domain.ServiceRequest, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

func (r *requestRepository) Insert(ctx context.Context, req *domain.ServiceRequest) error {
	const query = `
        INSERT INTO requests (user_id, request_type, subcategory, description)
        VALUES ($1,$2,$3,$4)
        RETURNING request_id, submitted_at`
	err := r.pool.QueryRow(ctx, query,
		req.UserID,
		req.Category,
		req.Subcategory,
		req.Description,
	).Scan(&req.ID, &req.SubmittedAt)
	return classify("insert request", err)
}

func (r *requestRepository) ListByUser(ctx context.Context, userID int64) ([]domain.ServiceRequest, error) {
	const query = `
        SELECT request_id, user_id, request_type, subcategory, description, submitted_at
        FROM requests WHERE user_id=$1
        ORDER BY request_id`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, classify("list requests", err)
	}
	requests, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ServiceRequest, error) {
		var req domain.ServiceRequest
		err := row.Scan(
			&req.ID,
			&req.UserID,
			&req.Category,
			&req.Subcategory,
			&req.Description,
			&req.SubmittedAt,
		)
		return req, err
	})
	if err != nil {
		return nil, classify("list requests", err)
	}
	return requests, nil
}
