// internal/dealer/schema.go
package dealer

// registrySchema validates the dealer registry document at load time. A
// malformed registry aborts the run before any record is processed.
const registrySchema = `{
  "type": "object",
  "required": ["dealers"],
  "properties": {
    "dealers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "dealerUuid", "departmentUuid", "intervalMonths", "defaultOpcode"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "dealerUuid": {"type": "string", "minLength": 1},
          "departmentUuid": {"type": "string", "minLength": 1},
          "opcodeWorkbook": {"type": "string"},
          "intervalMonths": {"type": "integer", "minimum": 1, "maximum": 60},
          "defaultOpcode": {"type": "string", "minLength": 1}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`
