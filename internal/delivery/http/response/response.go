package response

import (
	"time"

	"github.com/user/seo-audit-service/internal/entity"
)

type SubmitAuditResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// AuditStatusResponse is the polling view of an audit job.
type AuditStatusResponse struct {
	ID               string                   `json:"id"`
	Status           string                   `json:"status"`
	Progress         int                      `json:"progress"`
	Config           entity.AuditConfig       `json:"config"`
	Report           *entity.AggregatedReport `json:"report,omitempty"`
	Error            string                   `json:"error,omitempty"`
	FailedAt         *time.Time               `json:"failed_at,omitempty"`
	ProcessingTimeMS int64                    `json:"processing_time_ms,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
	CompletedAt      *time.Time               `json:"completed_at,omitempty"`
}

func FromJob(job *entity.AuditJob) AuditStatusResponse {
	return AuditStatusResponse{
		ID:               job.ID,
		Status:           string(job.Status),
		Progress:         job.Results.Progress,
		Config:           job.Config,
		Report:           job.Results.Report,
		Error:            job.Results.Error,
		FailedAt:         job.Results.FailedAt,
		ProcessingTimeMS: job.Results.ProcessingTimeMS,
		CreatedAt:        job.CreatedAt,
		UpdatedAt:        job.UpdatedAt,
		CompletedAt:      job.CompletedAt,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
	JobID string `json:"job_id,omitempty"`
}
