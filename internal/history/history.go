// Package history persists per-run scheduling outcomes to Postgres so past
// runs can be audited and re-driven without the workbooks.
package history

import (
	"context"
	"database/sql"

	"nsa-scheduler/internal/common/logger"
	"nsa-scheduler/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS scheduling_results (
	id               BIGSERIAL PRIMARY KEY,
	run_id           UUID         NOT NULL,
	record_id        TEXT         NOT NULL,
	dealer_id        TEXT         NOT NULL,
	outcome          TEXT         NOT NULL,
	scheduled_start  TIMESTAMPTZ,
	appointment_uuid TEXT,
	notify_status    TEXT,
	failure_reason   TEXT,
	created_at       TIMESTAMPTZ  NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_scheduling_results_record ON scheduling_results (record_id);
CREATE INDEX IF NOT EXISTS idx_scheduling_results_run ON scheduling_results (run_id);
`

const insertResult = `
INSERT INTO scheduling_results
	(run_id, record_id, dealer_id, outcome, scheduled_start, appointment_uuid, notify_status, failure_reason)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "history"}),
	}
}

// EnsureSchema creates the results table and its indexes if absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveRun writes every result of one scheduling run in a single transaction.
func (s *Store) SaveRun(ctx context.Context, runID string, results []models.ScheduleResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	for _, r := range results {
		var start sql.NullTime
		if !r.ScheduledStart.IsZero() {
			start = sql.NullTime{Time: r.ScheduledStart, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, insertResult,
			runID, r.RecordID, r.DealerID, string(r.Outcome),
			start, r.AppointmentUUID, r.NotifyStatus, r.FailureReason,
		); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Info("Run persisted", map[string]interface{}{
		"run_id":  runID,
		"results": len(results),
	})
	return nil
}

// LastOutcome returns the most recent recorded outcome for a record, or
// found=false when the record was never processed.
func (s *Store) LastOutcome(ctx context.Context, recordID string) (models.ScheduleResult, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT record_id, dealer_id, outcome, scheduled_start, appointment_uuid, notify_status, failure_reason
FROM scheduling_results
WHERE record_id = $1
ORDER BY created_at DESC
LIMIT 1`, recordID)

	var r models.ScheduleResult
	var outcome string
	var start sql.NullTime
	var apptUUID, notifyStatus, failureReason sql.NullString
	err := row.Scan(&r.RecordID, &r.DealerID, &outcome, &start, &apptUUID, &notifyStatus, &failureReason)
	if err == sql.ErrNoRows {
		return models.ScheduleResult{}, false, nil
	}
	if err != nil {
		return models.ScheduleResult{}, false, err
	}

	r.Outcome = models.Outcome(outcome)
	if start.Valid {
		r.ScheduledStart = start.Time
	}
	r.AppointmentUUID = apptUUID.String
	r.NotifyStatus = notifyStatus.String
	r.FailureReason = failureReason.String
	return r, true, nil
}
