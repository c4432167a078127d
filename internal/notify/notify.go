// Package notify renders the customer-facing templates for a newly created
// appointment and dispatches them over the configured channels. Delivery is
// best effort: a failed send is recorded in the rollup status and never
// affects the booking itself.
package notify

import (
	"context"

	"nsa-scheduler/internal/common/config"
	"nsa-scheduler/internal/common/logger"
	"nsa-scheduler/internal/common/metrics"
	"nsa-scheduler/internal/dealer"
	"nsa-scheduler/internal/models"
	"nsa-scheduler/internal/template"
)

// Sender delivers one rendered message to the customer.
type Sender interface {
	SendText(ctx context.Context, profile dealer.Profile, rec models.ServiceRecord, msg template.Rendered) error
	SendEmail(ctx context.Context, profile dealer.Profile, rec models.ServiceRecord, msg template.Rendered) error
}

type Notifier struct {
	cfg           config.NotificationConfig
	emailTemplate *template.Template
	textTemplate  *template.Template
	sender        Sender
	logger        logger.Logger
}

func New(cfg config.NotificationConfig, emailTmpl, textTmpl *template.Template, sender Sender, log logger.Logger) *Notifier {
	return &Notifier{
		cfg:           cfg,
		emailTemplate: emailTmpl,
		textTemplate:  textTmpl,
		sender:        sender,
		logger:        log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// Notify sends the appointment confirmation over every enabled channel and
// rolls the per-channel results up into a single status: SUCCESS when every
// attempted channel delivered, PARTIAL_FAILED when some did, FAILED when none
// did, SKIPPED when no channel was attempted.
func (n *Notifier) Notify(ctx context.Context, profile dealer.Profile, rec models.ServiceRecord, appt models.AppointmentRecord) string {
	bindings := map[string]interface{}{
		"_customer_firstname": rec.Customer.FirstName,
		"_customer_lastname":  rec.Customer.LastName,
		"_dealer_name":        profile.Name,
		"_appt_date":          appt.ScheduledStart,
		"_appt_start_time":    appt.ScheduledStart,
	}

	attempted, delivered := 0, 0
	if n.cfg.Text.Enabled && n.textTemplate != nil {
		attempted++
		if n.sendChannel(ctx, "text", profile, rec, n.textTemplate, bindings, n.sender.SendText) {
			delivered++
		}
	}
	if n.cfg.Email.Enabled && n.emailTemplate != nil {
		attempted++
		if n.sendChannel(ctx, "email", profile, rec, n.emailTemplate, bindings, n.sender.SendEmail) {
			delivered++
		}
	}

	switch {
	case attempted == 0:
		return models.NotifyStatusSkipped
	case delivered == attempted:
		return models.NotifyStatusSuccess
	case delivered > 0:
		return models.NotifyStatusPartialFailed
	default:
		return models.NotifyStatusFailed
	}
}

type sendFunc func(ctx context.Context, profile dealer.Profile, rec models.ServiceRecord, msg template.Rendered) error

func (n *Notifier) sendChannel(ctx context.Context, channel string, profile dealer.Profile, rec models.ServiceRecord, tmpl *template.Template, bindings map[string]interface{}, send sendFunc) bool {
	log := n.logger.WithFields(map[string]interface{}{
		"channel":   channel,
		"record_id": rec.RecordID,
	})

	msg, err := tmpl.Render(bindings)
	if err != nil {
		log.WithError(err).Error("Template render failed", nil)
		metrics.NotificationsSent.WithLabelValues(channel, "failed").Inc()
		return false
	}
	if err := send(ctx, profile, rec, msg); err != nil {
		log.WithError(err).Error("Notification send failed", nil)
		metrics.NotificationsSent.WithLabelValues(channel, "failed").Inc()
		return false
	}

	metrics.NotificationsSent.WithLabelValues(channel, "sent").Inc()
	log.Debug("Notification delivered", nil)
	return true
}
