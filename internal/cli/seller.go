package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// productFlags maps seller flags to product form fields.
var productFlags = map[string]string{
	"name":           "name",
	"description":    "description",
	"price":          "price",
	"original-price": "originalPrice",
	"category":       "category",
	"sub-category":   "subCategory",
	"image-url":      "imageurl",
	"quantity":       "quantity",
	"sizes":          "sizes",
	"tags":           "tags",
	"best-seller":    "isBestSeller",
	"in-stock":       "inStock",
}

type sellerCommand struct {
	*BaseCommand
	app *App
	fs  *flag.FlagSet

	reg      model.SellerRegistration
	password string
	image    string
}

func newSellerCommand(app *App) *sellerCommand {
	return &sellerCommand{
		BaseCommand: NewBaseCommand("seller", "Seller account and product management",
			"seller register|verify <otp>|resend|login <email>|logout|products|create|update <product-id>|delete <product-id>|sellers [flags]"),
		app: app,
	}
}

func (c *sellerCommand) SetupFlags(fs *flag.FlagSet) {
	c.fs = fs
	fs.StringVar(&c.reg.Email, "email", "", "seller email (register)")
	fs.StringVar(&c.reg.StoreName, "store", "", "store name (register)")
	fs.StringVar(&c.reg.Contact, "contact", "", "contact number (register)")
	fs.StringVar(&c.reg.Address, "address", "", "store address (register)")
	fs.StringVar(&c.password, "password", "", "password; prompted when omitted")
	fs.StringVar(&c.image, "image", "", "image file uploaded with create")

	// name is shared by register and the product form.
	fs.String("name", "", "seller name (register) or product name")
	fs.String("description", "", "product description")
	fs.String("price", "", "product price")
	fs.String("original-price", "", "price before discount")
	fs.String("category", "", "product category")
	fs.String("sub-category", "", "product sub-category")
	fs.String("image-url", "", "image URL")
	fs.String("quantity", "", "units in stock")
	fs.String("sizes", "", "comma separated sizes")
	fs.String("tags", "", "comma separated tags")
	fs.Bool("best-seller", false, "mark as best seller")
	fs.Bool("in-stock", true, "product is in stock")
}

func (c *sellerCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return c.usageError("expected a subcommand")
	}
	seller := c.app.Seller
	sub, args := args[0], args[1:]

	switch sub {
	case "register":
		password, err := c.app.password(c.password, stderr)
		if err != nil {
			return err
		}
		reg := c.reg
		reg.Name = c.fs.Lookup("name").Value.String()
		reg.Password = password
		if err := seller.Register(ctx, reg); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, "Run 'storefront seller verify <otp>' with the code you received.")
		return nil
	case "verify":
		if len(args) != 1 {
			return c.usageError("expected the otp")
		}
		return seller.VerifyOTP(ctx, args[0])
	case "resend":
		return seller.ResendOTP(ctx)
	case "login":
		if len(args) != 1 {
			return c.usageError("expected an email")
		}
		password, err := c.app.password(c.password, stderr)
		if err != nil {
			return err
		}
		sess, err := seller.Login(ctx, model.Credentials{Email: args[0], Password: password})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "Logged in to %s\n", sess.Profile.Name)
		return nil
	case "logout":
		return seller.Logout(ctx)
	case "products":
		products, err := seller.Products(ctx)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			_, _ = fmt.Fprintln(stdout, "No products yet")
			return nil
		}
		return productTable(products).write(stdout)
	case "create":
		form := model.NewProductForm()
		if err := c.fill(form); err != nil {
			return err
		}
		if c.image != "" {
			f, err := os.Open(c.image)
			if err != nil {
				return fmt.Errorf("failed to open image: %w", err)
			}
			defer f.Close()
			form.AttachImage(model.ImageUpload{FileName: filepath.Base(c.image), Data: f})
		}
		return seller.CreateProduct(ctx, form)
	case "update":
		if len(args) != 1 {
			return c.usageError("expected a product id")
		}
		products, err := seller.Products(ctx)
		if err != nil {
			return err
		}
		form := model.NewProductForm()
		found := false
		for _, p := range products {
			if p.ID == args[0] {
				form.Edit(p)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("product %s: %w", args[0], model.ErrNotFound)
		}
		if err := c.fill(form); err != nil {
			return err
		}
		return seller.UpdateProduct(ctx, form)
	case "delete":
		if len(args) != 1 {
			return c.usageError("expected a product id")
		}
		return seller.DeleteProduct(ctx, args[0])
	case "sellers":
		sellers, err := seller.Sellers(ctx)
		if err != nil {
			return err
		}
		t := newTable("ID", "STORE", "NAME", "EMAIL", "CONTACT")
		for _, s := range sellers {
			t.row(s.ID, s.StoreName, s.Name, s.Email, s.Contact)
		}
		return t.write(stdout)
	default:
		return c.usageError("unknown subcommand %q", sub)
	}
}

// fill copies the product flags given on the command line into form.
func (c *sellerCommand) fill(form *model.ProductForm) error {
	var err error
	c.fs.Visit(func(f *flag.Flag) {
		field, ok := productFlags[f.Name]
		if !ok || err != nil {
			return
		}
		err = form.Set(field, f.Value.String())
	})
	return err
}
