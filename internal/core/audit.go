package core

import (
	"context"
	"time"
)

// RunAction is the kind of operation recorded in the audit trail.
type RunAction string

const (
	ActionExtract RunAction = "extract"
	ActionCompare RunAction = "compare"
)

// RunRecord describes one extraction or comparison. Only counts are kept;
// names never leave the process.
type RunRecord struct {
	ID          string        `json:"id"`
	Action      RunAction     `json:"action"`
	Format      Format        `json:"format,omitempty"`
	WorkspaceID string        `json:"workspaceId,omitempty"`
	FileName    string        `json:"fileName,omitempty"`
	RowsRead    int           `json:"rowsRead"`
	Extracted   int           `json:"extracted"`
	Matched     int           `json:"matched"`
	Unmatched   int           `json:"unmatched"`
	IPAddress   string        `json:"ipAddress,omitempty"`
	UserAgent   string        `json:"userAgent,omitempty"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Auditor persists run records.
type Auditor interface {
	RecordRun(ctx context.Context, rec RunRecord) error
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
}

// NopAuditor discards records. Used when no database is configured.
type NopAuditor struct{}

func (NopAuditor) RecordRun(context.Context, RunRecord) error { return nil }

func (NopAuditor) RecentRuns(context.Context, int) ([]RunRecord, error) { return nil, nil }
