package jobs

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/common/models"
	"github.com/tinycd/tinycd/server/store"
)

const (
	// DefaultListLimit applies when a query does not specify a limit.
	DefaultListLimit = 50
	// MaxListLimit caps the number of jobs a single listing returns.
	MaxListLimit = 100
)

const tableName = "jobs"

type JobStore struct {
	db *store.DB
	logger.Log
}

func NewStore(db *store.DB, logFactory logger.LogFactory) *JobStore {
	return &JobStore{
		db:  db,
		Log: logFactory("JobStore"),
	}
}

// Create a new job with status queued.
func (d *JobStore) Create(ctx context.Context, txOrNil *store.Tx, job *models.Job) error {
	err := job.Validate()
	if err != nil {
		return err
	}
	return d.db.Write(txOrNil, func(w store.Writer) error {
		_, err := w.Insert(goqu.T(tableName)).Rows(job).Executor().ExecContext(ctx)
		if err != nil {
			return store.MakeStandardDBError(err)
		}
		return nil
	})
}

// Read an existing job, looking it up by ID.
// Returns a NotFound error if the job does not exist.
func (d *JobStore) Read(ctx context.Context, txOrNil *store.Tx, id models.JobID) (*models.Job, error) {
	job := &models.Job{}
	err := d.db.Read(txOrNil, func(r store.Reader) error {
		ds := r.From(tableName).Where(goqu.Ex{"id": id})
		query, args, err := ds.Prepared(true).ToSQL()
		if err != nil {
			return err
		}
		found, err := r.ScanStructContext(ctx, job, query, args...)
		if err != nil {
			return store.MakeStandardDBError(err)
		}
		if !found {
			return store.MakeStandardDBError(sql.ErrNoRows)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// UpdateStatus updates the status column only. A missing row is a silent no-op.
func (d *JobStore) UpdateStatus(ctx context.Context, txOrNil *store.Tx, id models.JobID, status models.JobStatus) error {
	return d.db.Write(txOrNil, func(w store.Writer) error {
		_, err := w.Update(goqu.T(tableName)).
			Set(goqu.Record{"status": status}).
			Where(goqu.Ex{"id": id}).
			Executor().ExecContext(ctx)
		if err != nil {
			return store.MakeStandardDBError(err)
		}
		return nil
	})
}

// Complete finalizes a job with a terminal status. Output is capped at
// models.MaxJobOutputBytes with a truncation marker, and the job duration is
// computed from the stored started_at, clamped to be non-negative.
func (d *JobStore) Complete(
	ctx context.Context,
	txOrNil *store.Tx,
	id models.JobID,
	status models.JobStatus,
	output *string,
	jobError *string,
	completedAt models.Time,
) error {
	return d.db.WithTx(ctx, txOrNil, func(tx *store.Tx) error {
		job, err := d.Read(ctx, tx, id)
		if err != nil {
			return err
		}

		durationMs := completedAt.Sub(job.StartedAt.Time).Milliseconds()
		if durationMs < 0 {
			durationMs = 0
		}

		outputTruncated := false
		if output != nil {
			truncated, wasTruncated := models.TruncateOutput(*output)
			output = &truncated
			outputTruncated = wasTruncated
		}

		return d.db.Write(tx, func(w store.Writer) error {
			_, err := w.Update(goqu.T(tableName)).
				Set(goqu.Record{
					"status":           status,
					"output":           output,
					"output_truncated": outputTruncated,
					"error":            jobError,
					"completed_at":     completedAt,
					"duration_ms":      durationMs,
				}).
				Where(goqu.Ex{"id": id}).
				Executor().ExecContext(ctx)
			if err != nil {
				return store.MakeStandardDBError(err)
			}
			return nil
		})
	})
}

// List returns jobs matching the query, most recent first.
func (d *JobStore) List(ctx context.Context, txOrNil *store.Tx, query store.JobQuery) ([]*models.Job, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	where := goqu.Ex{}
	if query.ProjectName != "" {
		where["project_name"] = query.ProjectName
	}
	if query.Branch != "" {
		where["branch"] = query.Branch
	}
	if query.Status != "" {
		where["status"] = query.Status
	}

	var jobs []*models.Job
	err := d.db.Read(txOrNil, func(r store.Reader) error {
		ds := r.From(tableName).
			Where(where).
			Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
			Limit(uint(limit))
		query, args, err := ds.Prepared(true).ToSQL()
		if err != nil {
			return err
		}
		err = r.ScanStructsContext(ctx, &jobs, query, args...)
		if err != nil {
			return store.MakeStandardDBError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// CurrentJob returns the first job in running status, or a NotFound error.
func (d *JobStore) CurrentJob(ctx context.Context, txOrNil *store.Tx) (*models.Job, error) {
	job := &models.Job{}
	err := d.db.Read(txOrNil, func(r store.Reader) error {
		ds := r.From(tableName).
			Where(goqu.Ex{"status": models.JobStatusRunning}).
			Order(goqu.I("created_at").Asc()).
			Limit(1)
		query, args, err := ds.Prepared(true).ToSQL()
		if err != nil {
			return err
		}
		found, err := r.ScanStructContext(ctx, job, query, args...)
		if err != nil {
			return store.MakeStandardDBError(err)
		}
		if !found {
			return store.MakeStandardDBError(sql.ErrNoRows)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// CountByStatus returns the number of jobs with the given status.
func (d *JobStore) CountByStatus(ctx context.Context, txOrNil *store.Tx, status models.JobStatus) (int64, error) {
	var count int64
	err := d.db.Read(txOrNil, func(r store.Reader) error {
		ds := r.From(tableName).
			Select(goqu.COUNT("*")).
			Where(goqu.Ex{"status": status})
		query, args, err := ds.Prepared(true).ToSQL()
		if err != nil {
			return err
		}
		_, err = r.ScanValContext(ctx, &count, query, args...)
		if err != nil {
			return store.MakeStandardDBError(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CompletedCount returns the number of jobs in a terminal status.
func (d *JobStore) CompletedCount(ctx context.Context, txOrNil *store.Tx) (int64, error) {
	var count int64
	err := d.db.Read(txOrNil, func(r store.Reader) error {
		ds := r.From(tableName).
			Select(goqu.COUNT("*")).
			Where(goqu.Ex{"status": []models.JobStatus{models.JobStatusSuccess, models.JobStatusFailed}})
		query, args, err := ds.Prepared(true).ToSQL()
		if err != nil {
			return err
		}
		_, err = r.ScanValContext(ctx, &count, query, args...)
		if err != nil {
			return store.MakeStandardDBError(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
