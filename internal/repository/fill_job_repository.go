package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/anc5557/ChartBeacon/internal/model"

	"github.com/jackc/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrActiveJobExists is returned when the partial unique index on active
// fill jobs rejects an insert because the ticker already has a pending or
// running job.
var ErrActiveJobExists = errors.New("active fill job exists for ticker")

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// FillJobRepository handles database operations for background fill jobs
type FillJobRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewFillJobRepository creates a new fill job repository
func NewFillJobRepository(db *sqlx.DB, logger *zap.Logger) *FillJobRepository {
	return &FillJobRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new pending fill job and returns its ID
func (r *FillJobRepository) Create(
	ctx context.Context,
	ticker string,
	timeframes []string,
) (int, error) {
	query := `
		INSERT INTO fill_jobs (ticker, timeframes, status, retries, created_at)
		VALUES ($1, $2, $3, 0, CURRENT_TIMESTAMP)
		RETURNING id
	`

	var id int
	err := r.db.GetContext(ctx, &id, query, ticker, pq.StringArray(timeframes), model.FillStatusPending)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrActiveJobExists
		}
		r.logger.Error("Failed to create fill job",
			zap.Error(err),
			zap.String("ticker", ticker))
		return 0, err
	}

	return id, nil
}

// GetByID retrieves a fill job, nil when not found
func (r *FillJobRepository) GetByID(ctx context.Context, id int) (*model.FillJob, error) {
	query := `
		SELECT id, ticker, timeframes, status, retries, error, created_at, completed_at
		FROM fill_jobs
		WHERE id = $1
	`

	var job model.FillJob
	err := r.db.GetContext(ctx, &job, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get fill job",
			zap.Error(err),
			zap.Int("job_id", id))
		return nil, err
	}

	return &job, nil
}

// GetLatestByTicker retrieves the most recent fill job for a ticker,
// nil when none exist
func (r *FillJobRepository) GetLatestByTicker(
	ctx context.Context,
	ticker string,
) (*model.FillJob, error) {
	query := `
		SELECT id, ticker, timeframes, status, retries, error, created_at, completed_at
		FROM fill_jobs
		WHERE ticker = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var job model.FillJob
	err := r.db.GetContext(ctx, &job, query, ticker)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get latest fill job",
			zap.Error(err),
			zap.String("ticker", ticker))
		return nil, err
	}

	return &job, nil
}

// SetStatus updates a job's status, incrementing the retry counter when
// the job re-enters the running state
func (r *FillJobRepository) SetStatus(
	ctx context.Context,
	id int,
	status string,
	jobErr *string,
) error {
	query := `
		UPDATE fill_jobs
		SET status = $1,
			error = $2,
			retries = CASE WHEN $1 = 'RUNNING' AND status != 'PENDING' THEN retries + 1 ELSE retries END,
			completed_at = CASE WHEN $1 IN ('COMPLETED', 'FAILED') THEN CURRENT_TIMESTAMP ELSE completed_at END
		WHERE id = $3
	`

	_, err := r.db.ExecContext(ctx, query, status, jobErr, id)
	if err != nil {
		r.logger.Error("Failed to update fill job status",
			zap.Error(err),
			zap.Int("job_id", id),
			zap.String("status", status))
		return err
	}

	return nil
}
