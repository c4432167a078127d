package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsa-scheduler/internal/common/logger"
	"nsa-scheduler/internal/models"
)

func testResults() []models.ScheduleResult {
	return []models.ScheduleResult{
		{
			RecordID:        "RO100",
			DealerID:        "100",
			Outcome:         models.OutcomeDone,
			ScheduledStart:  time.Date(2026, 8, 10, 9, 15, 0, 0, time.UTC),
			AppointmentUUID: "appt-1",
			NotifyStatus:    models.NotifyStatusSuccess,
		},
		{
			RecordID:      "RO101",
			DealerID:      "100",
			Outcome:       models.OutcomeFailed,
			NotifyStatus:  models.NotifyStatusSkipped,
			FailureReason: "no slot size",
		},
	}
}

func TestSaveRunCommitsAllResults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scheduling_results").
		WithArgs("run-1", "RO100", "100", "DONE", sqlmock.AnyArg(), "appt-1", "SUCCESS", "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO scheduling_results").
		WithArgs("run-1", "RO101", "100", "FAILED", sqlmock.AnyArg(), "", "SKIPPED", "no slot size").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	store := New(db, logger.NewTestLogger(t))
	require.NoError(t, store.SaveRun(context.Background(), "run-1", testResults()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunRollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scheduling_results").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	store := New(db, logger.NewTestLogger(t))
	err = store.SaveRun(context.Background(), "run-1", testResults())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLastOutcome(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	scheduled := time.Date(2026, 8, 10, 9, 15, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"record_id", "dealer_id", "outcome", "scheduled_start",
		"appointment_uuid", "notify_status", "failure_reason",
	}).AddRow("RO100", "100", "DONE", scheduled, "appt-1", "SUCCESS", "")
	mock.ExpectQuery("SELECT record_id").WithArgs("RO100").WillReturnRows(rows)

	store := New(db, logger.NewTestLogger(t))
	result, found, err := store.LastOutcome(context.Background(), "RO100")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.OutcomeDone, result.Outcome)
	assert.Equal(t, scheduled, result.ScheduledStart)
	assert.Equal(t, "appt-1", result.AppointmentUUID)
}

func TestLastOutcomeNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT record_id").WithArgs("RO999").
		WillReturnRows(sqlmock.NewRows([]string{"record_id"}))

	store := New(db, logger.NewTestLogger(t))
	_, found, err := store.LastOutcome(context.Background(), "RO999")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS scheduling_results").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := New(db, logger.NewTestLogger(t))
	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
