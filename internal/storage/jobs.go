package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unblurhq/unblur/pkg/deblur"
	"github.com/unblurhq/unblur/pkg/pg"
)

// JobStore is the pgx-backed implementation of deblur.JobStore.
type JobStore struct {
	pool *pgxpool.Pool
}

func NewJobStore(pool *pgxpool.Pool) *JobStore {
	if pool == nil {
		panic("storage: pgx pool is required")
	}
	return &JobStore{pool: pool}
}

const jobColumns = `id, account_id, request_id, source_url, result_url, status, credit_cost, created_at, updated_at`

func scanJob(row pgx.Row) (*deblur.Job, error) {
	var (
		j      deblur.Job
		status string
	)
	err := row.Scan(
		&j.ID,
		&j.AccountID,
		&j.RequestID,
		&j.SourceURL,
		&j.ResultURL,
		&status,
		&j.CreditCost,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, deblur.ErrJobNotFound
		}
		return nil, fmt.Errorf("scan deblur job: %w", err)
	}
	j.Status = deblur.Status(status)
	return &j, nil
}

func (s *JobStore) Insert(ctx context.Context, job *deblur.Job) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO deblur_jobs (account_id, request_id, source_url, status, credit_cost)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		job.AccountID,
		job.RequestID,
		job.SourceURL,
		string(job.Status),
		job.CreditCost,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert deblur job %s: %w", job.RequestID, err)
	}
	return nil
}

func (s *JobStore) ByRequestID(ctx context.Context, accountID uuid.UUID, requestID string) (*deblur.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM deblur_jobs WHERE account_id = $1 AND request_id = $2`,
		accountID, requestID)
	return scanJob(row)
}

func (s *JobStore) SetResult(ctx context.Context, requestID string, status deblur.Status, resultURL string) (*deblur.Job, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE deblur_jobs SET
			status = $2,
			result_url = $3,
			updated_at = now()
		WHERE request_id = $1
		RETURNING `+jobColumns,
		requestID, string(status), resultURL)
	return scanJob(row)
}

func (s *JobStore) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]deblur.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM deblur_jobs WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2`,
		accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list deblur jobs: %w", err)
	}
	defer rows.Close()

	var jobs []deblur.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list deblur jobs: %w", err)
	}
	return jobs, nil
}
