package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dtroode/ayurveda-storefront/internal/model"
	"github.com/dtroode/ayurveda-storefront/internal/notify"
	"github.com/dtroode/ayurveda-storefront/internal/service"
)

type productsCommand struct {
	*BaseCommand
	app *App

	search     string
	category   string
	price      string
	where      string
	categories bool
}

func newProductsCommand(app *App) *productsCommand {
	return &productsCommand{
		BaseCommand: NewBaseCommand("products", "List the catalog", "products [--search text] [--category name] [--price under500|500-1000|over1000] [--where expr] [--categories]"),
		app:         app,
	}
}

func (c *productsCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.search, "search", "", "case-insensitive name search")
	fs.StringVar(&c.category, "category", "", "only this category")
	fs.StringVar(&c.price, "price", "", "price bucket: under500, 500-1000 or over1000")
	fs.StringVar(&c.where, "where", "", "boolean expression over product fields, e.g. 'inStock && price < 400'")
	fs.BoolVar(&c.categories, "categories", false, "list categories instead of products")
}

func (c *productsCommand) Execute(ctx context.Context, _ []string, stdout, _ io.Writer) error {
	switch model.PriceRange(c.price) {
	case "", model.PriceUnder500, model.Price500To1k, model.PriceOver1k:
	default:
		return c.usageError("unknown price bucket %q", c.price)
	}

	if c.categories {
		products, err := c.app.Catalog.Products(ctx, model.ProductFilter{})
		if err != nil {
			return err
		}
		for _, name := range service.Categories(products) {
			_, _ = fmt.Fprintln(stdout, name)
		}
		return nil
	}

	products, err := c.app.Catalog.Products(ctx, model.ProductFilter{
		Search:     c.search,
		Category:   c.category,
		PriceRange: model.PriceRange(c.price),
		Expression: c.where,
	})
	if err != nil {
		return err
	}
	if len(products) == 0 {
		_, _ = fmt.Fprintln(stdout, "No products found")
		return nil
	}
	return productTable(products).write(stdout)
}

func productTable(products []model.Product) *table {
	t := newTable("ID", "NAME", "CATEGORY", "PRICE", "STOCK")
	for _, p := range products {
		name := p.Name
		if p.IsBestSeller {
			name += " ★"
		}
		stock := "in stock"
		if !p.InStock {
			stock = "out of stock"
		}
		t.row(p.ID, name, p.Category, notify.Price(p.Price), stock)
	}
	return t
}

type productCommand struct {
	*BaseCommand
	app *App
}

func newProductCommand(app *App) *productCommand {
	return &productCommand{
		BaseCommand: NewBaseCommand("product", "Show a product with its reviews and related products", "product <id>"),
		app:         app,
	}
}

func (c *productCommand) Execute(ctx context.Context, args []string, stdout, _ io.Writer) error {
	if len(args) != 1 {
		return c.usageError("expected a product id")
	}
	d, err := c.app.Catalog.Details(ctx, args[0])
	if err != nil {
		return err
	}

	p := d.Product
	_, _ = fmt.Fprintf(stdout, "%s  %s\n", p.Name, notify.Price(p.Price))
	if p.OriginalPrice > p.Price {
		_, _ = fmt.Fprintf(stdout, "was %s\n", notify.Price(p.OriginalPrice))
	}
	if p.Description != "" {
		_, _ = fmt.Fprintf(stdout, "\n%s\n", p.Description)
	}
	if len(p.Tags) > 0 {
		_, _ = fmt.Fprintf(stdout, "\nTags: %s\n", strings.Join(p.Tags, ", "))
	}

	_, _ = fmt.Fprintf(stdout, "\nReviews (%d, average %.1f)\n", len(d.Reviews), service.AverageRating(d.Reviews))
	if len(d.Reviews) > 0 {
		t := newTable("ID", "RATING", "BY", "HELPFUL", "COMMENT")
		for _, r := range d.Reviews {
			t.row(r.ID, strings.Repeat("★", r.Rating), r.Name, strconv.Itoa(r.Helpful), r.Comment)
		}
		if err := t.write(stdout); err != nil {
			return err
		}
	}

	if len(d.Related) > 0 {
		_, _ = fmt.Fprintln(stdout, "\nRelated products")
		return productTable(d.Related).write(stdout)
	}
	return nil
}

type reviewCommand struct {
	*BaseCommand
	app *App

	rating  int
	comment string
}

func newReviewCommand(app *App) *reviewCommand {
	return &reviewCommand{
		BaseCommand: NewBaseCommand("review", "Add a review or mark one helpful", "review add <product-id> --rating 1-5 --comment text | review helpful <product-id> <review-id>"),
		app:         app,
	}
}

func (c *reviewCommand) SetupFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.rating, "rating", 0, "rating from 1 to 5")
	fs.StringVar(&c.comment, "comment", "", "review text")
}

func (c *reviewCommand) Execute(ctx context.Context, args []string, _, _ io.Writer) error {
	if len(args) == 0 {
		return c.usageError("expected a subcommand")
	}
	switch args[0] {
	case "add":
		if len(args) != 2 {
			return c.usageError("expected a product id")
		}
		return c.app.Catalog.AddReview(ctx, args[1], model.ReviewInput{Rating: c.rating, Comment: c.comment})
	case "helpful":
		if len(args) != 3 {
			return c.usageError("expected a product id and a review id")
		}
		return c.app.Catalog.MarkHelpful(ctx, args[1], args[2])
	default:
		return c.usageError("unknown subcommand %q", args[0])
	}
}
