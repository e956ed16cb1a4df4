package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// Contact submits the contact form.
type Contact struct {
	api      model.ContactAPI
	notifier model.Notifier
	logger   *logger.Logger
}

func NewContact(api model.ContactAPI, notifier model.Notifier, logger *logger.Logger) *Contact {
	return &Contact{api: api, notifier: notifier, logger: logger}
}

// Send validates msg and posts it. The returned text is the server's
// confirmation or a default one.
func (c *Contact) Send(ctx context.Context, msg model.ContactMessage) (string, error) {
	if strings.TrimSpace(msg.Name) == "" || strings.TrimSpace(msg.Email) == "" || strings.TrimSpace(msg.Message) == "" {
		c.notifier.Error("Please fill in all fields")
		return "", model.NewValidationError("contact", "Please fill in all fields")
	}

	reply, err := c.api.SubmitContact(ctx, msg)
	if err != nil {
		c.logger.Error("Contact service: failed to send message", "error", err)
		c.notifier.Error(model.APIMessage(err, "Failed to send message. Please try again."))
		return "", fmt.Errorf("failed to submit contact form: %w", err)
	}
	if reply == "" {
		reply = "Your message has been sent successfully!"
	}
	c.notifier.Success(reply)
	return reply, nil
}
