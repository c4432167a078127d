package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"nsa-scheduler/internal/models"
)

func sampleRecords() []models.ServiceRecord {
	return []models.ServiceRecord{
		{
			RecordID:  "RO100",
			OrderUUID: "ord-1",
			DealerID:  "100",
			CloseDate: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
			Customer:  models.Customer{FirstName: "Pat", LastName: "Reyes", Key: "CK", UUID: "cust-1"},
			Vehicle:   models.Vehicle{VIN: "VIN1", UUID: "veh-1"},
			Opcodes:   []string{"OILCHG", "TIRE"},
		},
		{
			RecordID:  "RO101",
			DealerID:  "100",
			CloseDate: time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC),
			Customer:  models.Customer{FirstName: "Sam", LastName: "Lee"},
			Opcodes:   []string{"BRAKE"},
		},
	}
}

func TestWriteAndReadRecordsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed_ros.xlsx")
	require.NoError(t, WriteRecords(path, sampleRecords()))

	got, err := ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, sampleRecords(), got)
}

func TestWriteResultsFillsSchedulingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule_results.xlsx")
	results := []models.ScheduleResult{
		{
			RecordID:        "RO100",
			DealerID:        "100",
			Outcome:         models.OutcomeDone,
			ScheduledStart:  time.Date(2026, 8, 10, 9, 15, 0, 0, time.UTC),
			AppointmentUUID: "appt-1",
		},
		{
			RecordID:      "RO101",
			DealerID:      "100",
			Outcome:       models.OutcomeSlotExhausted,
			FailureReason: "no slot within 14 days of 2026-08-11",
		},
	}
	require.NoError(t, WriteResults(path, sampleRecords(), results))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "NSA Failure Reason", rows[0][14])
	assert.Equal(t, "DONE", rows[1][11])
	assert.Equal(t, "2026-08-10 09:15:00", rows[1][12])
	assert.Equal(t, "appt-1", rows[1][13])
	assert.Equal(t, "SLOT_EXHAUSTED", rows[2][11])
	assert.Equal(t, "no slot within 14 days of 2026-08-11", rows[2][14])
}

func TestReadRecordsMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []interface{}{"Dealer ID", "Customer First Name"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	require.NoError(t, f.SaveAs(path))
	f.Close()

	_, err := ReadRecords(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RO Number")
}

func TestReadRecordsSkipsBlankRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed_ros.xlsx")
	require.NoError(t, WriteRecords(path, sampleRecords()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	blank := []interface{}{"", "", ""}
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A4", &blank))
	require.NoError(t, f.SaveAs(path))
	f.Close()

	got, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
