// Package report reads and writes the xlsx workbooks that carry records
// between the extraction and scheduling stages and back to the operator.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "nsa-scheduler/internal/common/errors"
	"nsa-scheduler/internal/models"
)

var columns = []string{
	"Dealer ID",
	"RO Number",
	"Order UUID",
	"Customer First Name",
	"Customer Last Name",
	"Customer Key",
	"Customer UUID",
	"VIN",
	"Vehicle UUID",
	"Opcodes",
	"RO Close Date",
	"NSA Status",
	"NSA Date",
	"NSA UUID",
	"NSA Failure Reason",
}

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// WriteRecords writes freshly extracted records to a workbook with the
// scheduling columns left blank.
func WriteRecords(path string, records []models.ServiceRecord) error {
	return write(path, records, nil)
}

// WriteResults writes the post-run workbook: the extracted records joined
// with their scheduling results on the record identifier.
func WriteResults(path string, records []models.ServiceRecord, results []models.ScheduleResult) error {
	byRecord := make(map[string]models.ScheduleResult, len(results))
	for _, r := range results {
		byRecord[r.RecordID] = r
	}
	return write(path, records, byRecord)
}

func write(path string, records []models.ServiceRecord, results map[string]models.ScheduleResult) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return apperrors.NewValidationFailedError("results workbook", err.Error())
	}

	for i, rec := range records {
		row := []interface{}{
			rec.DealerID,
			rec.RecordID,
			rec.OrderUUID,
			rec.Customer.FirstName,
			rec.Customer.LastName,
			rec.Customer.Key,
			rec.Customer.UUID,
			rec.Vehicle.VIN,
			rec.Vehicle.UUID,
			strings.Join(rec.Opcodes, ","),
			rec.CloseDate.Format(dateLayout),
			"", "", "", "",
		}
		if res, ok := results[rec.RecordID]; ok {
			row[11] = string(res.Outcome)
			if !res.ScheduledStart.IsZero() {
				row[12] = res.ScheduledStart.Format(dateTimeLayout)
			}
			row[13] = res.AppointmentUUID
			row[14] = res.FailureReason
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return apperrors.NewValidationFailedError("results workbook", err.Error())
		}
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.NewValidationFailedError("results workbook", err.Error())
	}
	return nil
}

// ReadRecords loads service records from an extraction workbook. The header
// row must match the column layout this package writes.
func ReadRecords(path string) ([]models.ServiceRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewValidationFailedError("records workbook", err.Error())
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewValidationFailedError("records workbook", err.Error())
	}
	if len(rows) == 0 {
		return nil, apperrors.NewValidationFailedError("records workbook", "workbook is empty")
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Dealer ID", "RO Number", "RO Close Date"} {
		if _, ok := index[required]; !ok {
			return nil, apperrors.NewValidationFailedError("records workbook",
				fmt.Sprintf("missing column %q", required))
		}
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []models.ServiceRecord
	for n, row := range rows[1:] {
		recordID := cell(row, "RO Number")
		if recordID == "" {
			continue
		}
		closeDate, err := time.Parse(dateLayout, cell(row, "RO Close Date"))
		if err != nil {
			return nil, apperrors.NewValidationFailedError("records workbook",
				fmt.Sprintf("row %d: bad close date %q", n+2, cell(row, "RO Close Date")))
		}

		var codes []string
		if raw := cell(row, "Opcodes"); raw != "" {
			for _, code := range strings.Split(raw, ",") {
				if code = strings.TrimSpace(code); code != "" {
					codes = append(codes, code)
				}
			}
		}

		records = append(records, models.ServiceRecord{
			RecordID:  recordID,
			OrderUUID: cell(row, "Order UUID"),
			DealerID:  cell(row, "Dealer ID"),
			CloseDate: closeDate,
			Customer: models.Customer{
				FirstName: cell(row, "Customer First Name"),
				LastName:  cell(row, "Customer Last Name"),
				Key:       cell(row, "Customer Key"),
				UUID:      cell(row, "Customer UUID"),
			},
			Vehicle: models.Vehicle{
				VIN:  cell(row, "VIN"),
				UUID: cell(row, "Vehicle UUID"),
			},
			Opcodes: codes,
		})
	}
	return records, nil
}
