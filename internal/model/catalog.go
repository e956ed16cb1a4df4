package model

import "time"

// Product is a catalog entry as returned by the API.
type Product struct {
	ID            string   `json:"_id" expr:"id"`
	Name          string   `json:"name" expr:"name"`
	Description   string   `json:"description,omitempty" expr:"description"`
	Price         float64  `json:"price" expr:"price"`
	OriginalPrice float64  `json:"originalPrice,omitempty" expr:"originalPrice"`
	Category      string   `json:"category,omitempty" expr:"category"`
	SubCategory   string   `json:"subCategory,omitempty" expr:"subCategory"`
	ImageURL      string   `json:"imageurl,omitempty" expr:"imageurl"`
	Quantity      int      `json:"quantity,omitempty" expr:"quantity"`
	InStock       bool     `json:"inStock" expr:"inStock"`
	IsBestSeller  bool     `json:"isBestSeller,omitempty" expr:"isBestSeller"`
	Seller        string   `json:"seller,omitempty" expr:"seller"`
	Sizes         []string `json:"sizes,omitempty" expr:"sizes"`
	Tags          []string `json:"tags,omitempty" expr:"tags"`
}

// CartItem returns the single-quantity cart line for p.
func (p Product) CartItem() CartItem {
	return CartItem{
		ID:       p.ID,
		SellerID: p.Seller,
		Name:     p.Name,
		Price:    p.Price,
		ImageURL: p.ImageURL,
		Quantity: 1,
	}
}

// PriceRange is one of the catalog price buckets.
type PriceRange string

const (
	PriceAny      PriceRange = ""
	PriceUnder500 PriceRange = "under500"
	Price500To1k  PriceRange = "500-1000"
	PriceOver1k   PriceRange = "over1000"
)

// ProductFilter narrows a product listing.
// Expression is an optional boolean expression over product fields.
type ProductFilter struct {
	Search     string
	Category   string
	PriceRange PriceRange
	Expression string
}

// Review is a product review.
type Review struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Helpful   int       `json:"helpful"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReviewInput is the body of an add-review request.
type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ProductDetails bundles a product with its reviews and related products.
type ProductDetails struct {
	Product Product
	Reviews []Review
	Related []Product
}
