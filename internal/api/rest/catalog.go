package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// productList accepts both {"products": [...]} and a bare array.
type productList []model.Product

func (l *productList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]model.Product)(l))
	}
	var wrapped struct {
		Products []model.Product `json:"products"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*l = wrapped.Products
	return nil
}

// ListProducts lists the catalog. token may be empty.
func (c *Client) ListProducts(ctx context.Context, token string) ([]model.Product, error) {
	var res productList
	if err := c.callJSON(ctx, http.MethodGet, "/api/home_Products", token, nil, &res); err != nil {
		return nil, err
	}
	if res == nil {
		return []model.Product{}, nil
	}
	return res, nil
}

func reviewsPath(productID string) string {
	return fmt.Sprintf("/api/products/%s/reviews", url.PathEscape(productID))
}

func (c *Client) ListReviews(ctx context.Context, productID string) ([]model.Review, error) {
	var res struct {
		Reviews []model.Review `json:"reviews"`
	}
	if err := c.callJSON(ctx, http.MethodGet, reviewsPath(productID), "", nil, &res); err != nil {
		return nil, err
	}
	if res.Reviews == nil {
		return []model.Review{}, nil
	}
	return res.Reviews, nil
}

func (c *Client) AddReview(ctx context.Context, token, productID string, in model.ReviewInput) error {
	return c.callJSON(ctx, http.MethodPost, reviewsPath(productID), token, in, nil)
}

func (c *Client) MarkReviewHelpful(ctx context.Context, token, productID, reviewID string) error {
	path := reviewsPath(productID) + "/" + url.PathEscape(reviewID) + "/helpful"
	return c.callJSON(ctx, http.MethodPost, path, token, nil, nil)
}
