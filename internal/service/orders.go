package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// Orders reads the order history of the logged-in user.
type Orders struct {
	api      model.OrderAPI
	session  *Session
	notifier model.Notifier
	logger   *logger.Logger
}

func NewOrders(api model.OrderAPI, session *Session, notifier model.Notifier, logger *logger.Logger) *Orders {
	return &Orders{
		api:      api,
		session:  session,
		notifier: notifier,
		logger:   logger,
	}
}

// History returns the placed orders, newest first as the API sends them.
func (o *Orders) History(ctx context.Context) ([]model.Order, error) {
	token, err := o.session.Token(ctx)
	if err != nil {
		if errors.Is(err, model.ErrUnauthenticated) {
			o.notifier.Error("Please login to view your orders")
		}
		return nil, err
	}

	orders, err := o.api.MyOrders(ctx, token)
	if err != nil {
		o.logger.Error("Orders service: failed to fetch orders", "error", err)
		o.notifier.Error("Failed to load orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}
