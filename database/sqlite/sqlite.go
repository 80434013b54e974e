// Package sqlite stores job records in a SQLite file, using the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/database"
	"github.com/zizibee/zizibee/dispatch"
	"github.com/zizibee/zizibee/util/fsutil"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
  id         TEXT PRIMARY KEY,
  job_name   TEXT NOT NULL,
  state      TEXT NOT NULL,
  created_at TEXT NOT NULL,
  record     TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS jobs_job_name ON jobs (job_name)`,
}

// SQLite is a job store backed by a SQLite file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at conf.Path.
func NewSQLite(conf config.SQLite) (*SQLite, error) {
	if err := fsutil.EnsurePath(conf.Path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", conf.Path)
	if err != nil {
		return nil, err
	}
	// A single connection serialises writers.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.Init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Init creates the jobs table.
func (s *SQLite) Init() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %v", err)
		}
	}
	return nil
}

// PutJob creates or replaces a job record.
func (s *SQLite) PutJob(ctx context.Context, job *dispatch.Job) error {
	if job.ID == "" {
		return fmt.Errorf("job has no ID")
	}
	record, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO jobs (id, job_name, state, created_at, record) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  job_name = excluded.job_name,
  state = excluded.state,
  created_at = excluded.created_at,
  record = excluded.record`,
		job.ID, job.JobName, string(job.State), job.CreatedAt.UTC().Format(time.RFC3339Nano), string(record),
	)
	if err != nil {
		return fmt.Errorf("error storing job in database: %s", err)
	}
	return nil
}

// GetJob returns the job with the given ID.
func (s *SQLite) GetJob(ctx context.Context, id string) (*dispatch.Job, error) {
	var record string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM jobs WHERE id = ?`, id).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(id, record)
}

func decode(id, record string) (*dispatch.Job, error) {
	job := &dispatch.Job{}
	if err := json.Unmarshal([]byte(record), job); err != nil {
		return nil, fmt.Errorf("decoding job %s: %v", id, err)
	}
	return job, nil
}

// ListJobs lists jobs, newest first.
func (s *SQLite) ListJobs(ctx context.Context, opts database.ListOptions) (*database.ListResult, error) {
	pageSize := database.GetPageSize(opts.PageSize)

	var where []string
	var args []interface{}
	if opts.PageToken != "" {
		where = append(where, "id < ?")
		args = append(args, opts.PageToken)
	}
	if opts.State != "" {
		where = append(where, "state = ?")
		args = append(args, string(opts.State))
	}
	if opts.NamePrefix != "" {
		where = append(where, "substr(job_name, 1, ?) = ?")
		args = append(args, len(opts.NamePrefix), opts.NamePrefix)
	}

	q := `SELECT id, record FROM jobs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC LIMIT ?"
	args = append(args, pageSize)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*dispatch.Job
	for rows.Next() {
		var id, record string
		if err := rows.Scan(&id, &record); err != nil {
			return nil, err
		}
		job, err := decode(id, record)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &database.ListResult{
		Jobs:          jobs,
		NextPageToken: database.NextToken(jobs, pageSize),
	}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
