package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	// JobTypeArchiveStatement writes the statement of a completed installment plan to object storage.
	JobTypeArchiveStatement JobType = "archive_statement"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Handler runs one job. A returned error marks the job failed and schedules a retry while retries remain.
type Handler func(ctx context.Context, job *Job) error

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// ArchiveStatementPayload names the installment plan whose statement is archived
type ArchiveStatementPayload struct {
	InstallmentPlanID string `json:"installment_plan_id"`
	UserID            string `json:"user_id,omitempty"`
}

func (p ArchiveStatementPayload) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"installment_plan_id": p.InstallmentPlanID,
	}
	if p.UserID != "" {
		m["user_id"] = p.UserID
	}
	return m
}

// ArchiveStatementPayloadFromMap decodes the payload of an archive_statement job
func ArchiveStatementPayloadFromMap(data map[string]interface{}) (*ArchiveStatementPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var payload ArchiveStatementPayload
	if err := json.Unmarshal(jsonData, &payload); err != nil {
		return nil, err
	}
	if payload.InstallmentPlanID == "" {
		return nil, fmt.Errorf("archive_statement payload without installment_plan_id")
	}
	return &payload, nil
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed records the error and counts the attempt
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
