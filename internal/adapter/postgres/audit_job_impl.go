package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/internal/repository"
)

// DBTX is the subset of *pgxpool.Pool used by the repositories.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_jobs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	config       JSONB NOT NULL,
	results      JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS audit_jobs_status_idx ON audit_jobs (status);
`

// AuditJobRepoImpl provides a concrete implementation for the JobRepository interface using PostgreSQL.
type AuditJobRepoImpl struct {
	db  DBTX
	now func() time.Time
}

// NewAuditJobRepo creates a new instance of AuditJobRepoImpl.
func NewAuditJobRepo(db DBTX) *AuditJobRepoImpl {
	return &AuditJobRepoImpl{db: db, now: time.Now}
}

// EnsureSchema creates the audit_jobs table when it does not exist.
func (r *AuditJobRepoImpl) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create audit_jobs schema: %w", err)
	}
	return nil
}

// Create inserts a new job row.
func (r *AuditJobRepoImpl) Create(ctx context.Context, job *entity.AuditJob) error {
	configJSON, err := json.Marshal(job.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	resultsJSON, err := json.Marshal(job.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	query := `
		INSERT INTO audit_jobs (id, status, config, results, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = r.db.Exec(ctx, query,
		job.ID,
		string(job.Status),
		configJSON,
		resultsJSON,
		job.CreatedAt,
		job.UpdatedAt,
		job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit job %s: %w", job.ID, err)
	}
	return nil
}

// FindByID retrieves a job by id.
func (r *AuditJobRepoImpl) FindByID(ctx context.Context, id string) (*entity.AuditJob, error) {
	query := `
		SELECT id, status, config, results, created_at, updated_at, completed_at
		FROM audit_jobs
		WHERE id = $1;
	`
	var (
		job         entity.AuditJob
		status      string
		configJSON  []byte
		resultsJSON []byte
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&job.ID,
		&status,
		&configJSON,
		&resultsJSON,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select audit job %s: %w", id, err)
	}

	job.Status = entity.JobStatus(status)
	if err := json.Unmarshal(configJSON, &job.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &job.Results); err != nil {
			return nil, fmt.Errorf("unmarshal results: %w", err)
		}
	}
	return &job, nil
}

// Update writes the non-nil fields of the patch. Untouched columns keep their value.
func (r *AuditJobRepoImpl) Update(ctx context.Context, id string, patch entity.JobPatch) error {
	var status, results, completedAt any
	if patch.Status != nil {
		status = string(*patch.Status)
	}
	if patch.Results != nil {
		b, err := json.Marshal(patch.Results)
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		results = b
	}
	if patch.CompletedAt != nil {
		completedAt = *patch.CompletedAt
	}

	query := `
		UPDATE audit_jobs SET
			status = COALESCE($2, status),
			results = COALESCE($3, results),
			completed_at = COALESCE($4, completed_at),
			updated_at = $5
		WHERE id = $1;
	`
	tag, err := r.db.Exec(ctx, query, id, status, results, completedAt, r.now())
	if err != nil {
		return fmt.Errorf("update audit job %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrJobNotFound
	}
	return nil
}
