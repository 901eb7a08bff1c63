package joblogs

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/common/models"
	"github.com/tinycd/tinycd/server/store"
)

const tableName = "job_logs"

type JobLogStore struct {
	db *store.DB
	logger.Log
}

func NewStore(db *store.DB, logFactory logger.LogFactory) *JobLogStore {
	return &JobLogStore{
		db:  db,
		Log: logFactory("JobLogStore"),
	}
}

// Create inserts a step log row and returns its auto-increment id.
func (d *JobLogStore) Create(ctx context.Context, txOrNil *store.Tx, log *models.JobLog) (int64, error) {
	var id int64
	err := d.db.Write(txOrNil, func(w store.Writer) error {
		result, err := w.Insert(goqu.T(tableName)).Rows(log).Executor().ExecContext(ctx)
		if err != nil {
			return store.MakeStandardDBError(err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return store.MakeStandardDBError(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update finalizes a step log row, setting completion details and a terminal status.
func (d *JobLogStore) Update(
	ctx context.Context,
	txOrNil *store.Tx,
	id int64,
	completedAt models.Time,
	durationMs int64,
	exitCode int64,
	output string,
	status models.StepStatus,
) error {
	return d.db.Write(txOrNil, func(w store.Writer) error {
		_, err := w.Update(goqu.T(tableName)).
			Set(goqu.Record{
				"completed_at": completedAt,
				"duration_ms":  durationMs,
				"exit_code":    exitCode,
				"output":       output,
				"status":       status,
			}).
			Where(goqu.Ex{"id": id}).
			Executor().ExecContext(ctx)
		if err != nil {
			return store.MakeStandardDBError(err)
		}
		return nil
	})
}

// ListByJobID returns all step logs for a job ordered by sequence ascending.
func (d *JobLogStore) ListByJobID(ctx context.Context, txOrNil *store.Tx, jobID models.JobID) ([]*models.JobLog, error) {
	var logs []*models.JobLog
	err := d.db.Read(txOrNil, func(r store.Reader) error {
		ds := r.From(tableName).
			Where(goqu.Ex{"job_id": jobID}).
			Order(goqu.I("sequence").Asc())
		query, args, err := ds.Prepared(true).ToSQL()
		if err != nil {
			return err
		}
		err = r.ScanStructsContext(ctx, &logs, query, args...)
		if err != nil {
			return store.MakeStandardDBError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}
