package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	apperrors "nsa-scheduler/internal/common/errors"
	"nsa-scheduler/internal/dealer"
	"nsa-scheduler/internal/models"
	"nsa-scheduler/internal/template"
)

type sesAPI interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type snsAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// AWSSender delivers notifications directly over SES and SNS instead of the
// provider's communications endpoint. It needs the customer's email and phone
// on the record, since there is no provider-side preference lookup.
type AWSSender struct {
	ses       sesAPI
	sns       snsAPI
	fromEmail string
}

func NewAWSSender(sesClient sesAPI, snsClient snsAPI, fromEmail string) *AWSSender {
	return &AWSSender{ses: sesClient, sns: snsClient, fromEmail: fromEmail}
}

func (s *AWSSender) SendText(ctx context.Context, profile dealer.Profile, rec models.ServiceRecord, msg template.Rendered) error {
	if rec.Customer.Phone == "" {
		return apperrors.NewNotificationSendFailedError("text",
			fmt.Errorf("record %s has no phone number", rec.RecordID))
	}
	_, err := s.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(rec.Customer.Phone),
		Message:     aws.String(msg.Body),
	})
	if err != nil {
		return apperrors.NewNotificationSendFailedError("text", err)
	}
	return nil
}

func (s *AWSSender) SendEmail(ctx context.Context, profile dealer.Profile, rec models.ServiceRecord, msg template.Rendered) error {
	if rec.Customer.Email == "" {
		return apperrors.NewNotificationSendFailedError("email",
			fmt.Errorf("record %s has no email address", rec.RecordID))
	}
	_, err := s.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{rec.Customer.Email},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(msg.Subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(msg.Body)},
			},
		},
	})
	if err != nil {
		return apperrors.NewNotificationSendFailedError("email", err)
	}
	return nil
}
