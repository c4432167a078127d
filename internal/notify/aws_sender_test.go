package notify

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nsa-scheduler/internal/common/errors"
	"nsa-scheduler/internal/models"
	"nsa-scheduler/internal/template"
)

type mockSES struct {
	SendEmailFunc func(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *mockSES) SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, input, optFns...)
	}
	return &ses.SendEmailOutput{}, nil
}

type mockSNS struct {
	PublishFunc func(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNS) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, input, optFns...)
	}
	return &sns.PublishOutput{}, nil
}

func TestAWSSenderEmail(t *testing.T) {
	var gotInput *ses.SendEmailInput
	sesClient := &mockSES{
		SendEmailFunc: func(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			gotInput = input
			return &ses.SendEmailOutput{}, nil
		},
	}
	sender := NewAWSSender(sesClient, &mockSNS{}, "service@sunrise.example")
	rec, _ := testNotifyInputs()
	rec.Customer.Email = "pat@example.com"

	err := sender.SendEmail(context.Background(), testProfile(), rec, template.Rendered{
		Subject: "Your next service",
		Body:    "See you soon.",
	})
	require.NoError(t, err)
	require.NotNil(t, gotInput)
	assert.Equal(t, "service@sunrise.example", *gotInput.Source)
	assert.Equal(t, []string{"pat@example.com"}, gotInput.Destination.ToAddresses)
	assert.Equal(t, "Your next service", *gotInput.Message.Subject.Data)
}

func TestAWSSenderText(t *testing.T) {
	var gotInput *sns.PublishInput
	snsClient := &mockSNS{
		PublishFunc: func(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			gotInput = input
			return &sns.PublishOutput{}, nil
		},
	}
	sender := NewAWSSender(&mockSES{}, snsClient, "service@sunrise.example")
	rec, _ := testNotifyInputs()
	rec.Customer.Phone = "+15555550100"

	err := sender.SendText(context.Background(), testProfile(), rec, template.Rendered{Body: "See you soon."})
	require.NoError(t, err)
	require.NotNil(t, gotInput)
	assert.Equal(t, "+15555550100", *gotInput.PhoneNumber)
	assert.Equal(t, "See you soon.", *gotInput.Message)
}

func TestAWSSenderMissingContact(t *testing.T) {
	sender := NewAWSSender(&mockSES{}, &mockSNS{}, "service@sunrise.example")
	rec := models.ServiceRecord{RecordID: "100-RO123"}

	err := sender.SendEmail(context.Background(), testProfile(), rec, template.Rendered{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotificationSendFailed))

	err = sender.SendText(context.Background(), testProfile(), rec, template.Rendered{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotificationSendFailed))
}
