package notify

import (
	"context"

	"nsa-scheduler/internal/dealer"
	"nsa-scheduler/internal/models"
	"nsa-scheduler/internal/provider/mykaarma"
	"nsa-scheduler/internal/template"
)

// messageAPI is the slice of the provider client the API backend needs.
type messageAPI interface {
	DefaultDealerAssociate(ctx context.Context, departmentUUID string) (string, error)
	SendMessage(ctx context.Context, departmentUUID, userUUID, customerUUID string, msg mykaarma.Message) error
}

// APISender delivers notifications through the provider's communications
// endpoint, attributed to the department's default dealer associate. The
// provider looks up the customer's preferred phone and email itself.
type APISender struct {
	api messageAPI
}

func NewAPISender(api messageAPI) *APISender {
	return &APISender{api: api}
}

func (s *APISender) SendText(ctx context.Context, profile dealer.Profile, rec models.ServiceRecord, msg template.Rendered) error {
	return s.send(ctx, profile, rec, mykaarma.Message{
		Protocol: "TEXT",
		Body:     msg.Body,
	})
}

func (s *APISender) SendEmail(ctx context.Context, profile dealer.Profile, rec models.ServiceRecord, msg template.Rendered) error {
	return s.send(ctx, profile, rec, mykaarma.Message{
		Protocol: "EMAIL",
		Subject:  msg.Subject,
		Body:     msg.Body,
	})
}

func (s *APISender) send(ctx context.Context, profile dealer.Profile, rec models.ServiceRecord, msg mykaarma.Message) error {
	userUUID, err := s.api.DefaultDealerAssociate(ctx, profile.DepartmentUUID)
	if err != nil {
		return err
	}
	return s.api.SendMessage(ctx, profile.DepartmentUUID, userUUID, rec.Customer.UUID, msg)
}
