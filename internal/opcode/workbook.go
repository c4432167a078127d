// internal/opcode/workbook.go
package opcode

import (
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "nsa-scheduler/internal/common/errors"
)

// LoadWorkbook reads a dealer's opcode workbook: two columns, code (required)
// and description (optional), with a header row. Codes are trimmed; rows with
// an empty code cell are skipped.
func LoadWorkbook(path string) (map[string]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewValidationFailedError("opcode workbook", err.Error())
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewValidationFailedError("opcode workbook", err.Error())
	}

	opcodes := make(map[string]string)
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) == 0 {
			continue
		}
		code := strings.TrimSpace(row[0])
		if code == "" {
			continue
		}
		description := ""
		if len(row) > 1 {
			description = strings.TrimSpace(row[1])
		}
		opcodes[code] = description
	}

	return opcodes, nil
}
