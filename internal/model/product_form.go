package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// ImageUpload is a product image attached to a create request.
type ImageUpload struct {
	FileName string
	Data     io.Reader
}

// ProductForm holds the seller's product form between edits.
// Callers keep one instance for the lifetime of the form so edits are never lost
// to a re-created value. Methods are safe for concurrent use.
type ProductForm struct {
	mu sync.Mutex

	editingID     string
	name          string
	description   string
	price         string
	originalPrice string
	category      string
	subCategory   string
	imageURL      string
	quantity      string
	sizes         []string
	tags          []string
	isBestSeller  bool
	inStock       bool
	image         *ImageUpload
}

// NewProductForm returns an empty form in add mode.
func NewProductForm() *ProductForm {
	f := &ProductForm{}
	f.Reset()
	return f
}

// Reset clears every field and leaves edit mode.
func (f *ProductForm) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editingID = ""
	f.name, f.description, f.price, f.originalPrice = "", "", "", ""
	f.category, f.subCategory, f.imageURL, f.quantity = "", "", "", ""
	f.sizes, f.tags = []string{}, []string{}
	f.isBestSeller = false
	f.inStock = true
	f.image = nil
}

// Edit loads p into the form and switches to edit mode.
func (f *ProductForm) Edit(p Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editingID = p.ID
	f.name = p.Name
	f.description = p.Description
	f.price = formatNumber(p.Price)
	f.originalPrice = ""
	if p.OriginalPrice != 0 {
		f.originalPrice = formatNumber(p.OriginalPrice)
	}
	f.category = p.Category
	f.subCategory = p.SubCategory
	f.imageURL = p.ImageURL
	f.quantity = strconv.Itoa(p.Quantity)
	f.sizes = append([]string{}, p.Sizes...)
	f.tags = append([]string{}, p.Tags...)
	f.isBestSeller = p.IsBestSeller
	f.inStock = p.InStock
	f.image = nil
}

// EditingID returns the id of the product being edited, empty in add mode.
func (f *ProductForm) EditingID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editingID
}

// Set assigns a field by its form name. Sizes and tags take comma separated lists.
func (f *ProductForm) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch field {
	case "name":
		f.name = value
	case "description":
		f.description = value
	case "price":
		f.price = value
	case "originalPrice":
		f.originalPrice = value
	case "category":
		f.category = value
	case "subCategory":
		f.subCategory = value
	case "imageurl":
		f.imageURL = value
	case "quantity":
		f.quantity = value
	case "sizes":
		f.sizes = splitList(value)
	case "tags":
		f.tags = splitList(value)
	case "isBestSeller", "inStock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("field %s: %w", field, err)
		}
		if field == "isBestSeller" {
			f.isBestSeller = b
		} else {
			f.inStock = b
		}
	default:
		return fmt.Errorf("unknown product field %q", field)
	}
	return nil
}

// AttachImage sets the image sent with a create request.
func (f *ProductForm) AttachImage(img ImageUpload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.image = &img
}

// Image returns the attached image, if any.
func (f *ProductForm) Image() *ImageUpload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.image
}

// Validate checks the fields required by the API.
func (f *ProductForm) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(f.name) == "" {
		return NewValidationError("name", "Product name is required")
	}
	if _, err := strconv.ParseFloat(f.price, 64); err != nil {
		return NewValidationError("price", "Please enter a valid price")
	}
	if f.quantity != "" {
		if _, err := strconv.Atoi(f.quantity); err != nil {
			return NewValidationError("quantity", "Please enter a valid quantity")
		}
	}
	if strings.TrimSpace(f.category) == "" {
		return NewValidationError("category", "Category is required")
	}
	return nil
}

// Fields returns the multipart fields of the form. Sizes and tags are JSON encoded.
func (f *ProductForm) Fields() (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sizes, err := json.Marshal(f.sizes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sizes: %w", err)
	}
	tags, err := json.Marshal(f.tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	return map[string]string{
		"name":          f.name,
		"description":   f.description,
		"price":         f.price,
		"originalPrice": f.originalPrice,
		"category":      f.category,
		"subCategory":   f.subCategory,
		"imageurl":      f.imageURL,
		"quantity":      f.quantity,
		"sizes":         string(sizes),
		"tags":          string(tags),
		"isBestSeller":  strconv.FormatBool(f.isBestSeller),
		"inStock":       strconv.FormatBool(f.inStock),
	}, nil
}

// Patch returns the JSON body of an update request.
func (f *ProductForm) Patch() (ProductPatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editingID == "" {
		return ProductPatch{}, errors.New("form is not editing a product")
	}
	return ProductPatch{
		Name:          f.name,
		Description:   f.description,
		Price:         f.price,
		OriginalPrice: f.originalPrice,
		Category:      f.category,
		SubCategory:   f.subCategory,
		ImageURL:      f.imageURL,
		Quantity:      f.quantity,
		Sizes:         append([]string{}, f.sizes...),
		Tags:          append([]string{}, f.tags...),
		IsBestSeller:  f.isBestSeller,
		InStock:       f.inStock,
	}, nil
}

// ProductPatch is the body of a product update. Numeric fields keep their form text.
type ProductPatch struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         string   `json:"price"`
	OriginalPrice string   `json:"originalPrice"`
	Category      string   `json:"category"`
	SubCategory   string   `json:"subCategory"`
	ImageURL      string   `json:"imageurl"`
	Quantity      string   `json:"quantity"`
	Sizes         []string `json:"sizes"`
	Tags          []string `json:"tags"`
	IsBestSeller  bool     `json:"isBestSeller"`
	InStock       bool     `json:"inStock"`
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
