package mykaarma

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apperrors "nsa-scheduler/internal/common/errors"
	"nsa-scheduler/internal/models"
)

const (
	defaultSlotSizeMins = 15
	slotDateTimeLayout  = "2006-01-02 15:04:05"
	apptDateTimeLayout  = "2006-01-02T15:04:05"

	internalNote = "Next Service Appointment scheduled automatically by script."
)

type hoursOfOperationResponse struct {
	SlotSizeInMins int `json:"slotSizeInMins"`
}

type customerInformation struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	UUID      string `json:"uuid"`
	Key       string `json:"key"`
}

type vehicleInformation struct {
	UUID string `json:"uuid"`
	VIN  string `json:"vin"`
}

type firstSlotRequest struct {
	Dates                          []string            `json:"dates"`
	CustomerInformation            customerInformation `json:"customerInformation"`
	VehicleInformation             vehicleInformation  `json:"vehicleInformation"`
	LaborOpcodeList                []string            `json:"laborOpcodeList"`
	SelectedAvailabilityAttributes struct{}            `json:"selectedAvailabilityAttributes"`
	AllAvailabilityAttributes      struct{}            `json:"allAvailabilityAttributes"`
}

type firstSlotResponse struct {
	DateTime string `json:"dateTime"`
}

type serviceItem struct {
	Title         string `json:"title"`
	OperationType string `json:"operationType"`
	Description   string `json:"description,omitempty"`
}

type appointmentPreference struct {
	NotifyCustomer    bool `json:"notifyCustomer"`
	EmailConfirmation bool `json:"emailConfirmation"`
	TextConfirmation  bool `json:"textConfirmation"`
	EmailReminder     bool `json:"emailReminder"`
	TextReminder      bool `json:"textReminder"`
}

type createAppointmentRequest struct {
	CustomerUUID       string `json:"customerUuid"`
	VehicleInformation struct {
		VehicleUUID string `json:"vehicleUuid"`
		VIN         string `json:"vin"`
	} `json:"vehicleInformation"`
	AppointmentInformation struct {
		AppointmentStartDateTime      string                `json:"appointmentStartDateTime"`
		AppointmentEndDateTime        string                `json:"appointmentEndDateTime"`
		ServiceList                   []serviceItem         `json:"serviceList"`
		Comments                      string                `json:"comments"`
		InternalNotes                 string                `json:"internalNotes"`
		CustomerAppointmentPreference appointmentPreference `json:"customerAppointmentPreference"`
		Status                        *string               `json:"status"`
		Recall                        bool                  `json:"recall"`
		PushToDms                     bool                  `json:"pushToDms"`
	} `json:"appointmentInformation"`
}

type createAppointmentResponse struct {
	AppointmentUUID string `json:"appointmentUuid"`
}

// SlotSize returns the dealer's booking slot granularity, cached after the
// first fetch. Dealers that do not publish a slot size get 15 minutes.
func (c *Client) SlotSize(ctx context.Context, dealerUUID string) (time.Duration, error) {
	c.mu.Lock()
	cached, ok := c.slotSizes[dealerUUID]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	var out hoursOfOperationResponse
	path := fmt.Sprintf("/appointment/v2/dealer/%s/hoursOfOperation", dealerUUID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, "hours_of_operation"); err != nil {
		return 0, err
	}

	mins := out.SlotSizeInMins
	if mins <= 0 {
		mins = defaultSlotSizeMins
	}
	size := time.Duration(mins) * time.Minute

	c.mu.Lock()
	c.slotSizes[dealerUUID] = size
	c.mu.Unlock()
	return size, nil
}

// FirstAvailableSlot asks for the earliest open slot on the given day. The
// second return is false when the remote system has nothing to offer.
func (c *Client) FirstAvailableSlot(ctx context.Context, departmentUUID string, rec models.ServiceRecord, opcodes []string, day time.Time) (time.Time, bool, error) {
	body := firstSlotRequest{
		Dates: []string{day.Format("2006-01-02")},
		CustomerInformation: customerInformation{
			FirstName: rec.Customer.FirstName,
			LastName:  rec.Customer.LastName,
			UUID:      rec.Customer.UUID,
			Key:       rec.Customer.Key,
		},
		VehicleInformation: vehicleInformation{
			UUID: rec.Vehicle.UUID,
			VIN:  rec.Vehicle.VIN,
		},
		LaborOpcodeList: opcodes,
	}

	var out firstSlotResponse
	path := fmt.Sprintf("/appointment/v2/department/%s/first-available-slot", departmentUUID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &out, "first_available_slot"); err != nil {
		return time.Time{}, false, err
	}
	if out.DateTime == "" {
		return time.Time{}, false, nil
	}

	start, err := time.ParseInLocation(slotDateTimeLayout, out.DateTime, time.Local)
	if err != nil {
		return time.Time{}, false, apperrors.NewProviderFailureError("first_available_slot",
			fmt.Errorf("unparseable slot time %q: %w", out.DateTime, err))
	}
	return start, true, nil
}

// CreateAppointment books the slot. Codes carry through as OPCODE service
// items, described where the dealer's workbook has a description. The remote
// system keeps the booking quiet: no customer notification, but the DMS push
// stays on so the store sees it.
func (c *Client) CreateAppointment(ctx context.Context, dealerUUID string, rec models.ServiceRecord, slot models.Slot, opcodes []string, descriptions map[string]string) (string, error) {
	services := make([]serviceItem, 0, len(opcodes))
	for _, code := range opcodes {
		services = append(services, serviceItem{
			Title:         code,
			OperationType: "OPCODE",
			Description:   descriptions[code],
		})
	}

	var body createAppointmentRequest
	body.CustomerUUID = rec.Customer.UUID
	body.VehicleInformation.VehicleUUID = rec.Vehicle.UUID
	body.VehicleInformation.VIN = rec.Vehicle.VIN
	body.AppointmentInformation.AppointmentStartDateTime = slot.Start.Format(apptDateTimeLayout)
	body.AppointmentInformation.AppointmentEndDateTime = slot.End().Format(apptDateTimeLayout)
	body.AppointmentInformation.ServiceList = services
	body.AppointmentInformation.InternalNotes = internalNote
	body.AppointmentInformation.PushToDms = true

	var out createAppointmentResponse
	path := fmt.Sprintf("/appointment/v2/dealer/%s/appointment", dealerUUID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &out, "create_appointment"); err != nil {
		return "", err
	}
	c.logger.Info("Appointment created", map[string]interface{}{
		"record_id":        rec.RecordID,
		"appointment_uuid": out.AppointmentUUID,
		"start":            body.AppointmentInformation.AppointmentStartDateTime,
	})
	return out.AppointmentUUID, nil
}
