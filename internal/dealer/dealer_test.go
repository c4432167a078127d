package dealer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nsa-scheduler/internal/common/errors"
)

const validRegistry = `{
  "dealers": [
    {
      "id": "1",
      "name": "Sample Dealer 1",
      "dealerUuid": "dealer-uuid-1",
      "departmentUuid": "dept-uuid-1",
      "opcodeWorkbook": "opcodes_1.xlsx",
      "intervalMonths": 12,
      "defaultOpcode": "NSA1"
    },
    {
      "id": "2",
      "name": "Sample Dealer 2",
      "dealerUuid": "dealer-uuid-2",
      "departmentUuid": "dept-uuid-2",
      "opcodeWorkbook": "opcodes_2.xlsx",
      "intervalMonths": 10,
      "defaultOpcode": "NSA2"
    }
  ]
}`

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dealers.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	reg, err := Load(writeRegistry(t, validRegistry))
	require.NoError(t, err)

	assert.Equal(t, 2, reg.Len())

	p, ok := reg.Get("1")
	require.True(t, ok)
	assert.Equal(t, "Sample Dealer 1", p.Name)
	assert.Equal(t, 12, p.IntervalMonths)
	assert.Equal(t, "NSA1", p.DefaultOpcode)

	_, ok = reg.Get("999")
	assert.False(t, ok)
}

func TestLoad_WorkbookIsOptional(t *testing.T) {
	doc := `{"dealers": [
		{"id": "1", "name": "A", "dealerUuid": "u1", "departmentUuid": "d1", "intervalMonths": 6, "defaultOpcode": "N"}
	]}`

	reg, err := Load(writeRegistry(t, doc))
	require.NoError(t, err)

	p, ok := reg.Get("1")
	require.True(t, ok)
	assert.Empty(t, p.OpcodeWorkbook)
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing required field",
			doc:  `{"dealers": [{"id": "1", "name": "D"}]}`,
		},
		{
			name: "interval out of range",
			doc: `{"dealers": [{"id": "1", "name": "D", "dealerUuid": "u",
				"departmentUuid": "d", "intervalMonths": 0, "defaultOpcode": "N"}]}`,
		},
		{
			name: "unknown property",
			doc: `{"dealers": [{"id": "1", "name": "D", "dealerUuid": "u",
				"departmentUuid": "d", "intervalMonths": 6, "defaultOpcode": "N",
				"slotSize": 15}]}`,
		},
		{
			name: "not json",
			doc:  `dealers: []`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeRegistry(t, tt.doc))
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
		})
	}
}

func TestLoad_DuplicateDealerID(t *testing.T) {
	doc := `{"dealers": [
		{"id": "1", "name": "A", "dealerUuid": "u1", "departmentUuid": "d1", "intervalMonths": 6, "defaultOpcode": "N"},
		{"id": "1", "name": "B", "dealerUuid": "u2", "departmentUuid": "d2", "intervalMonths": 6, "defaultOpcode": "N"}
	]}`

	_, err := Load(writeRegistry(t, doc))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
}
