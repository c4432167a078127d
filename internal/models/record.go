// internal/models/record.go
package models

import "time"

// Customer identifies the customer attached to a service record. Email and
// Phone are only present when the direct delivery backend is in use; the
// provider backend resolves contact details on its side.
type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Key       string `json:"key,omitempty"`
	UUID      string `json:"uuid,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Vehicle identifies the vehicle on a service record.
type Vehicle struct {
	VIN  string `json:"vin,omitempty"`
	UUID string `json:"uuid,omitempty"`
}

// ServiceRecord is a closed repair order extracted from the remote system.
// It is immutable once read; the record number is unique per dealer.
type ServiceRecord struct {
	RecordID  string    `json:"recordId"` // RO number
	OrderUUID string    `json:"orderUuid,omitempty"`
	DealerID  string    `json:"dealerId"`
	CloseDate time.Time `json:"closeDate"`
	Customer  Customer  `json:"customer"`
	Vehicle   Vehicle   `json:"vehicle"`
	Opcodes   []string  `json:"opcodes"`
}
