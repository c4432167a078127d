package mykaarma

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	apperrors "nsa-scheduler/internal/common/errors"
)

// Message is one outbound customer communication. Protocol is TEXT or EMAIL;
// Subject only applies to email.
type Message struct {
	Protocol string
	Subject  string
	Body     string
}

type messageAttributes struct {
	Body           string `json:"body"`
	Subject        string `json:"subject,omitempty"`
	IsManual       bool   `json:"isManual"`
	Protocol       string `json:"protocol"`
	Type           string `json:"type"`
	MessageType    string `json:"messageType"`
	IsRead         bool   `json:"isRead"`
	MessagePurpose string `json:"messagePurpose"`
}

type messageSendingAttributes struct {
	SendSynchronously bool  `json:"sendSynchronously"`
	AddTCPAFooter     *bool `json:"addTCPAFooter,omitempty"`
	AddSignature      bool  `json:"addSignature"`
	AddFooter         bool  `json:"addFooter"`
	SendVCard         *bool `json:"sendVCard,omitempty"`
}

type sendMessageRequest struct {
	MessageAttributes        messageAttributes        `json:"messageAttributes"`
	MessageSendingAttributes messageSendingAttributes `json:"messageSendingAttributes"`
}

type dealerAssociateResponse struct {
	Errors []struct {
		ErrorMessage string `json:"errorMessage"`
	} `json:"errors"`
	DealerAssociate struct {
		UserUUID string `json:"userUuid"`
	} `json:"dealerAssociate"`
}

// DefaultDealerAssociate resolves the department's default associate, the
// user messages are attributed to. Results are cached per department.
func (c *Client) DefaultDealerAssociate(ctx context.Context, departmentUUID string) (string, error) {
	c.mu.Lock()
	cached, ok := c.defaultAssociates[departmentUUID]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	var out dealerAssociateResponse
	path := fmt.Sprintf("/manage/v2/department/%s/dealerAssociate/default", departmentUUID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, "default_dealer_associate"); err != nil {
		return "", err
	}
	if len(out.Errors) > 0 {
		return "", apperrors.NewProviderFailureError("default_dealer_associate",
			fmt.Errorf("remote reported: %s", out.Errors[0].ErrorMessage))
	}
	if out.DealerAssociate.UserUUID == "" {
		return "", apperrors.NewProviderFailureError("default_dealer_associate",
			fmt.Errorf("no default associate for department %s", departmentUUID))
	}

	c.mu.Lock()
	c.defaultAssociates[departmentUUID] = out.DealerAssociate.UserUUID
	c.mu.Unlock()
	return out.DealerAssociate.UserUUID, nil
}

// SendMessage delivers one text or email to the customer's preferred contact
// on file. Texts get the TCPA footer; email bodies are flattened to a single
// line, which is what the remote renderer expects.
func (c *Client) SendMessage(ctx context.Context, departmentUUID, userUUID, customerUUID string, msg Message) error {
	body := msg.Body
	attrs := messageSendingAttributes{
		SendSynchronously: true,
		AddSignature:      true,
		AddFooter:         true,
	}
	switch msg.Protocol {
	case "TEXT":
		t, f := true, false
		attrs.AddTCPAFooter = &t
		attrs.SendVCard = &f
	case "EMAIL":
		body = strings.ReplaceAll(body, "\n", "")
	default:
		return apperrors.NewValidationFailedError("message protocol",
			fmt.Sprintf("unsupported protocol %q", msg.Protocol))
	}

	req := sendMessageRequest{
		MessageAttributes: messageAttributes{
			Body:           body,
			Subject:        msg.Subject,
			Protocol:       msg.Protocol,
			Type:           "OUTGOING",
			MessageType:    "S",
			MessagePurpose: "AC",
		},
		MessageSendingAttributes: attrs,
	}

	path := fmt.Sprintf("/communications/department/%s/user/%s/customer/%s/message",
		departmentUUID, userUUID, customerUUID)
	if err := c.doJSON(ctx, http.MethodPost, path, req, nil, "send_message"); err != nil {
		return err
	}
	c.logger.Debug("Message sent", map[string]interface{}{
		"protocol": msg.Protocol,
		"customer": customerUUID,
	})
	return nil
}
