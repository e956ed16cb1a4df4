package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// relatedLimit caps the related products shown with a product.
const relatedLimit = 4

// Catalog lists products and manages their reviews.
type Catalog struct {
	api      model.CatalogAPI
	session  *Session
	notifier model.Notifier
	logger   *logger.Logger
}

func NewCatalog(api model.CatalogAPI, session *Session, notifier model.Notifier, logger *logger.Logger) *Catalog {
	return &Catalog{
		api:      api,
		session:  session,
		notifier: notifier,
		logger:   logger,
	}
}

// Products fetches the catalog and applies filter.
func (c *Catalog) Products(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	products, err := c.api.ListProducts(ctx, "")
	if err != nil {
		c.logger.Error("Catalog service: failed to fetch products", "error", err)
		c.notifier.Error("Failed to fetch products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return FilterProducts(products, filter)
}

// FilterProducts keeps the products matching every set criterion, in order.
func FilterProducts(products []model.Product, filter model.ProductFilter) ([]model.Product, error) {
	var program *vm.Program
	if strings.TrimSpace(filter.Expression) != "" {
		p, err := expr.Compile(filter.Expression, expr.Env(model.Product{}), expr.AsBool())
		if err != nil {
			return nil, model.NewValidationError("filter", fmt.Sprintf("invalid filter expression: %v", err))
		}
		program = p
	}

	fold := cases.Fold()
	query := fold.String(strings.TrimSpace(filter.Search))

	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if query != "" && !strings.Contains(fold.String(p.Name), query) {
			continue
		}
		if !matchesPrice(p.Price, filter.PriceRange) {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if program != nil {
			ok, err := expr.Run(program, p)
			if err != nil {
				return nil, fmt.Errorf("failed to evaluate filter on %s: %w", p.ID, err)
			}
			if b, _ := ok.(bool); !b {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func matchesPrice(price float64, r model.PriceRange) bool {
	switch r {
	case model.PriceUnder500:
		return price < 500
	case model.Price500To1k:
		return price >= 500 && price <= 1000
	case model.PriceOver1k:
		return price > 1000
	default:
		return true
	}
}

// Categories returns the distinct categories in first-seen order.
func Categories(products []model.Product) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// Details loads a product, its reviews and related products. Products and
// reviews are fetched concurrently; a failed review fetch degrades to no reviews.
func (c *Catalog) Details(ctx context.Context, productID string) (model.ProductDetails, error) {
	var (
		products []model.Product
		reviews  []model.Review
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = c.api.ListProducts(gctx, "")
		return err
	})
	g.Go(func() error {
		reviews = c.reviews(gctx, productID)
		return nil
	})
	if err := g.Wait(); err != nil {
		c.logger.Error("Catalog service: failed to fetch product details", "product_id", productID, "error", err)
		c.notifier.Error("Failed to load product details")
		return model.ProductDetails{}, fmt.Errorf("failed to list products: %w", err)
	}

	idx := -1
	for i, p := range products {
		if p.ID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.notifier.Error("Failed to load product details")
		return model.ProductDetails{}, fmt.Errorf("product %s: %w", productID, model.ErrNotFound)
	}

	return model.ProductDetails{
		Product: products[idx],
		Reviews: reviews,
		Related: Related(products, products[idx], relatedLimit),
	}, nil
}

// Reviews lists the reviews of a product. A 404 means the product has none.
func (c *Catalog) Reviews(ctx context.Context, productID string) []model.Review {
	return c.reviews(ctx, productID)
}

func (c *Catalog) reviews(ctx context.Context, productID string) []model.Review {
	reviews, err := c.api.ListReviews(ctx, productID)
	if err != nil {
		if !model.HasStatus(err, http.StatusNotFound) && !errors.Is(err, context.Canceled) {
			c.logger.Warn("Catalog service: failed to fetch reviews", "product_id", productID, "error", err)
			c.notifier.Error("Failed to load reviews")
		}
		return []model.Review{}
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	return reviews
}

// Related returns up to limit products of the same category, excluding p.
func Related(products []model.Product, p model.Product, limit int) []model.Product {
	out := make([]model.Product, 0, limit)
	for _, other := range products {
		if len(out) == limit {
			break
		}
		if other.ID != p.ID && other.Category == p.Category {
			out = append(out, other)
		}
	}
	return out
}

// AverageRating is the mean rating rounded to one decimal, 0 without reviews.
func AverageRating(reviews []model.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(reviews))*10) / 10
}

// AddReview posts a review as the logged-in user.
func (c *Catalog) AddReview(ctx context.Context, productID string, in model.ReviewInput) error {
	sess, err := c.session.Require(ctx)
	if err != nil {
		if errors.Is(err, model.ErrUnauthenticated) {
			c.notifier.Error("Please login to add a review")
		}
		return err
	}
	if sess.Profile.ID == "" {
		c.notifier.Error("User profile incomplete. Please logout and login again.")
		return model.NewValidationError("profile", "User profile incomplete. Please logout and login again.")
	}
	if in.Rating < 1 || in.Rating > 5 {
		c.notifier.Error("Please select a rating")
		return model.NewValidationError("rating", "Please select a rating")
	}
	in.Comment = strings.TrimSpace(in.Comment)
	if in.Comment == "" {
		c.notifier.Error("Please add a comment")
		return model.NewValidationError("comment", "Please add a comment")
	}

	if err := c.api.AddReview(ctx, sess.Token, productID, in); err != nil {
		c.logger.Error("Catalog service: failed to add review", "product_id", productID, "error", err)
		switch {
		case model.HasStatus(err, http.StatusUnauthorized):
			c.notifier.Error("Session expired. Please login again.")
		case model.HasStatus(err, http.StatusBadRequest):
			c.notifier.Error(model.APIMessage(err, "Invalid review data"))
		case model.HasStatus(err, http.StatusInternalServerError):
			c.notifier.Error("Server error occurred. Please try again later or try refreshing the page.")
		default:
			c.notifier.Error(model.APIMessage(err, "Failed to add review. Please try logging out and back in."))
		}
		return fmt.Errorf("failed to add review: %w", err)
	}
	c.notifier.Success("Review added successfully!")
	return nil
}

// MarkHelpful records a helpful vote. The count is informational only.
func (c *Catalog) MarkHelpful(ctx context.Context, productID, reviewID string) error {
	token, err := c.session.Token(ctx)
	if err != nil {
		if errors.Is(err, model.ErrUnauthenticated) {
			c.notifier.Error("Please login to mark review as helpful")
		}
		return err
	}

	if err := c.api.MarkReviewHelpful(ctx, token, productID, reviewID); err != nil {
		if model.HasStatus(err, http.StatusUnauthorized) {
			c.notifier.Error("Session expired. Please login again.")
		} else {
			c.notifier.Error(model.APIMessage(err, "Failed to mark review as helpful"))
		}
		return fmt.Errorf("failed to mark review helpful: %w", err)
	}
	c.notifier.Success("Review marked as helpful")
	return nil
}
