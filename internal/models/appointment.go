// internal/models/appointment.go
package models

import "time"

// Slot is a bookable time interval returned by the availability provider.
type Slot struct {
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
}

// End returns the slot end, inclusive: the remote system expects the
// appointment to end one second before the next slot begins.
func (s Slot) End() time.Time {
	return s.Start.Add(s.Duration - time.Second)
}

// AppointmentRecord is the unit persisted in the dedup cache. Immutable once
// the remote system confirms creation.
type AppointmentRecord struct {
	RecordID        string    `json:"recordId"`
	AppointmentUUID string    `json:"appointmentUuid"`
	Customer        Customer  `json:"customer"`
	DealerID        string    `json:"dealerId"`
	ScheduledStart  time.Time `json:"scheduledStart"`
	CreatedAt       time.Time `json:"createdAt"`
	Opcodes         []string  `json:"opcodes"`
}
