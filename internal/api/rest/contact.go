package rest

import (
	"context"
	"net/http"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// SubmitContact returns the server's confirmation message, which may be empty.
func (c *Client) SubmitContact(ctx context.Context, msg model.ContactMessage) (string, error) {
	var res envelope
	if err := c.callJSON(ctx, http.MethodPost, "/api/contact", "", msg, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}
