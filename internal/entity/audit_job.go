package entity

import "time"

// JobStatus is the lifecycle state of an audit job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to JobStatus) bool {
	switch from {
	case JobStatusPending:
		return to == JobStatusRunning || to == JobStatusFailed
	case JobStatusRunning:
		return to == JobStatusCompleted || to == JobStatusFailed
	default:
		return false
	}
}

// AuditJob mirrors the `audit_jobs` PostgreSQL table schema.
type AuditJob struct {
	ID          string      `json:"id"`
	Status      JobStatus   `json:"status"`
	Config      AuditConfig `json:"config"`
	Results     JobResults  `json:"results"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// JobResults is the mutable results payload of a job. While running only
// Progress is meaningful; on completion Report is set; on failure Error and
// FailedAt are set.
type JobResults struct {
	Progress         int               `json:"progress"`
	Report           *AggregatedReport `json:"report,omitempty"`
	Error            string            `json:"error,omitempty"`
	FailedAt         *time.Time        `json:"failed_at,omitempty"`
	ProcessingTimeMS int64             `json:"processing_time_ms,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
}

// JobPatch carries the fields an update may touch. Nil fields are left as is.
type JobPatch struct {
	Status      *JobStatus
	Results     *JobResults
	CompletedAt *time.Time
}

// Apply merges the patch into job and bumps UpdatedAt.
func (p JobPatch) Apply(job *AuditJob, now time.Time) {
	if p.Status != nil {
		job.Status = *p.Status
	}
	if p.Results != nil {
		job.Results = *p.Results
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		job.CompletedAt = &t
	}
	job.UpdatedAt = now
}

// AuditEvent is published when a job reaches a terminal state.
type AuditEvent struct {
	Type          string    `json:"type"` // "audit.completed", "audit.failed"
	JobID         string    `json:"job_id"`
	Status        JobStatus `json:"status"`
	PagesAnalyzed int       `json:"pages_analyzed"`
	OverallScore  int       `json:"overall_score,omitempty"`
	Error         string    `json:"error,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
