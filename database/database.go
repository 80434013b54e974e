// Package database defines the job store shared by the boltdb and sqlite
// backends.
package database

import (
	"context"
	"errors"

	"github.com/zizibee/zizibee/dispatch"
)

// ErrNotFound is returned when a job ID is unknown.
var ErrNotFound = errors.New("job not found")

// Page sizes of ListJobs.
const (
	DefaultPageSize = 256
	MaxPageSize     = 2048
)

// JobStore persists dispatched jobs.
type JobStore interface {
	PutJob(ctx context.Context, job *dispatch.Job) error
	GetJob(ctx context.Context, id string) (*dispatch.Job, error)
	ListJobs(ctx context.Context, opts ListOptions) (*ListResult, error)
	Close() error
}

// ListOptions filters and pages a job listing. Jobs are listed newest first.
type ListOptions struct {
	NamePrefix string
	// Empty means any state.
	State    dispatch.State
	PageSize int
	// ID of the last job of the previous page.
	PageToken string
}

// ListResult is one page of jobs.
type ListResult struct {
	Jobs []*dispatch.Job
	// Set when more jobs may follow.
	NextPageToken string
}

// GetPageSize takes in the page size from a request and returns a new page size
// taking into account the minimum, maximum and default as documented above.
func GetPageSize(reqSize int) int {
	switch {
	case reqSize <= 0:
		return DefaultPageSize
	case reqSize > MaxPageSize:
		return MaxPageSize
	}
	return reqSize
}

// NextToken returns the page token following jobs, or "" when the page was
// not full.
func NextToken(jobs []*dispatch.Job, pageSize int) string {
	if len(jobs) == pageSize && pageSize > 0 {
		return jobs[len(jobs)-1].ID
	}
	return ""
}
