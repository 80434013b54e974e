// Package boltdb stores job records in a BoltDB key-value file.
package boltdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	jsoniter "github.com/json-iterator/go"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/database"
	"github.com/zizibee/zizibee/dispatch"
	"github.com/zizibee/zizibee/util/fsutil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JobBucket maps job ID -> JSON encoded dispatch.Job
var JobBucket = []byte("jobs")

// BoltDB is a job store backed by a BoltDB file.
type BoltDB struct {
	db *bolt.DB
}

// NewBoltDB opens (creating if needed) the database at conf.Path.
func NewBoltDB(conf config.BoltDB) (*BoltDB, error) {
	err := fsutil.EnsurePath(conf.Path)
	if err != nil {
		return nil, err
	}
	db, err := bolt.Open(conf.Path, 0600, &bolt.Options{
		Timeout: time.Second * 5,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %v", conf.Path, err)
	}
	b := &BoltDB{db: db}
	if err := b.Init(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// Init creates the required BoltDB buckets
func (b *BoltDB) Init() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(JobBucket)
		return err
	})
}

// PutJob creates or replaces a job record.
func (b *BoltDB) PutJob(ctx context.Context, job *dispatch.Job) error {
	if job.ID == "" {
		return fmt.Errorf("job has no ID")
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(JobBucket).Put([]byte(job.ID), data)
	})
	if err != nil {
		return fmt.Errorf("error storing job in database: %s", err)
	}
	return nil
}

// GetJob returns the job with the given ID.
func (b *BoltDB) GetJob(ctx context.Context, id string) (*dispatch.Job, error) {
	var job *dispatch.Job
	err := b.db.View(func(tx *bolt.Tx) error {
		var err error
		job, err = getJob(tx, id)
		return err
	})
	return job, err
}

func getJob(tx *bolt.Tx, id string) (*dispatch.Job, error) {
	data := tx.Bucket(JobBucket).Get([]byte(id))
	if data == nil {
		return nil, database.ErrNotFound
	}
	job := &dispatch.Job{}
	if err := json.Unmarshal(data, job); err != nil {
		return nil, fmt.Errorf("decoding job %s: %v", id, err)
	}
	return job, nil
}

// ListJobs lists jobs, newest first.
func (b *BoltDB) ListJobs(ctx context.Context, opts database.ListOptions) (*database.ListResult, error) {
	var jobs []*dispatch.Job
	pageSize := database.GetPageSize(opts.PageSize)

	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(JobBucket).Cursor()

		// Keys (xids) sort by creation time, so the newest job is last.
		var k []byte
		if opts.PageToken != "" {
			// Seek moves to the token, but the page starts at the key before it.
			k, _ = c.Seek([]byte(opts.PageToken))
			if k == nil {
				k, _ = c.Last()
			} else {
				k, _ = c.Prev()
			}
		} else {
			k, _ = c.Last()
		}

		for ; k != nil && len(jobs) < pageSize; k, _ = c.Prev() {
			job, err := getJob(tx, string(k))
			if err != nil {
				return err
			}
			if opts.State != "" && job.State != opts.State {
				continue
			}
			if !strings.HasPrefix(job.JobName, opts.NamePrefix) {
				continue
			}
			jobs = append(jobs, job)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &database.ListResult{
		Jobs:          jobs,
		NextPageToken: database.NextToken(jobs, pageSize),
	}, nil
}

// Close closes the database file.
func (b *BoltDB) Close() error {
	return b.db.Close()
}
