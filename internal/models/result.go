// internal/models/result.go
package models

import "time"

// Outcome is the terminal state of a record's scheduling attempt.
type Outcome string

const (
	OutcomeDone             Outcome = "DONE"
	OutcomeSkippedDuplicate Outcome = "SKIPPED_DUPLICATE"
	OutcomeSlotExhausted    Outcome = "SLOT_EXHAUSTED"
	OutcomeFailed           Outcome = "FAILED"
)

// Decision is the caller-supplied resolution for a duplicate conflict.
// The default is skip; recreate must be explicit per record.
type Decision string

const (
	DecisionSkip     Decision = "skip"
	DecisionRecreate Decision = "recreate"
)

// Notification overall statuses, rolled up across channels.
const (
	NotifyStatusSuccess       = "SUCCESS"
	NotifyStatusPartialFailed = "PARTIAL_FAILED"
	NotifyStatusFailed        = "FAILED"
	NotifyStatusSkipped       = "SKIPPED"
)

// ScheduleResult is one row of the scheduling result output.
type ScheduleResult struct {
	RecordID        string    `json:"recordId"`
	DealerID        string    `json:"dealerId"`
	Outcome         Outcome   `json:"outcome"`
	ScheduledStart  time.Time `json:"scheduledStart,omitempty"`
	AppointmentUUID string    `json:"appointmentUuid,omitempty"`
	NotifyStatus    string    `json:"notifyStatus,omitempty"`
	FailureReason   string    `json:"failureReason,omitempty"`
}
