package rest

import (
	"context"
	"net/http"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

func (c *Client) PlaceOrder(ctx context.Context, token string, req model.OrderRequest) error {
	return c.callJSON(ctx, http.MethodPost, "/api/orders", token, req, nil)
}

func (c *Client) CreateGatewayOrder(ctx context.Context, token string, req model.GatewayOrderRequest) (model.GatewayOrder, error) {
	var res model.GatewayOrder
	if err := c.callJSON(ctx, http.MethodPost, "/api/create-order", token, req, &res); err != nil {
		return model.GatewayOrder{}, err
	}
	return res, nil
}

func (c *Client) VerifyPayment(ctx context.Context, token string, req model.PaymentVerification) error {
	return c.callJSON(ctx, http.MethodPost, "/api/verify-payment", token, req, nil)
}

func (c *Client) MyOrders(ctx context.Context, token string) ([]model.Order, error) {
	var res struct {
		Orders []model.Order `json:"orders"`
	}
	if err := c.callJSON(ctx, http.MethodGet, "/api/my-orders", token, nil, &res); err != nil {
		return nil, err
	}
	return res.Orders, nil
}
