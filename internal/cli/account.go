package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dtroode/ayurveda-storefront/internal/model"
	"github.com/dtroode/ayurveda-storefront/internal/service"
)

type registerCommand struct {
	*BaseCommand
	app *App

	reg      model.Registration
	password string
}

func newRegisterCommand(app *App) *registerCommand {
	return &registerCommand{
		BaseCommand: NewBaseCommand("register", "Create a customer account", "register --name text --email addr --phone digits --dob YYYY-MM-DD [--password text]"),
		app:         app,
	}
}

func (c *registerCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.reg.Name, "name", "", "full name")
	fs.StringVar(&c.reg.Email, "email", "", "email address")
	fs.StringVar(&c.reg.Phone, "phone", "", "10-digit phone number")
	fs.StringVar(&c.reg.DOB, "dob", "", "date of birth, YYYY-MM-DD")
	fs.StringVar(&c.password, "password", "", "password; prompted when omitted")
}

func (c *registerCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) != 0 {
		return c.usageError("unexpected arguments")
	}
	password, err := c.app.password(c.password, stderr)
	if err != nil {
		return err
	}
	reg := c.reg
	reg.Password = password
	if err := c.app.Account.Register(ctx, reg); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, "Check your email and run 'storefront verify-otp <code>'.")
	return nil
}

type verifyOTPCommand struct {
	*BaseCommand
	app *App
}

func newVerifyOTPCommand(app *App) *verifyOTPCommand {
	return &verifyOTPCommand{
		BaseCommand: NewBaseCommand("verify-otp", "Confirm the registration code", "verify-otp <code>"),
		app:         app,
	}
}

func (c *verifyOTPCommand) Execute(ctx context.Context, args []string, _, _ io.Writer) error {
	if len(args) != 1 {
		return c.usageError("expected the code")
	}
	return c.app.Account.VerifyOTP(ctx, args[0])
}

type loginCommand struct {
	*BaseCommand
	app *App

	password string
}

func newLoginCommand(app *App) *loginCommand {
	return &loginCommand{
		BaseCommand: NewBaseCommand("login", "Log in as a customer", "login <email> [--password text]"),
		app:         app,
	}
}

func (c *loginCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.password, "password", "", "password; prompted when omitted")
}

func (c *loginCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		return c.usageError("expected an email")
	}
	password, err := c.app.password(c.password, stderr)
	if err != nil {
		return err
	}
	sess, err := c.app.Account.Login(ctx, model.Credentials{Email: args[0], Password: password})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Welcome, %s\n", sess.Profile.Name)
	return nil
}

type logoutCommand struct {
	*BaseCommand
	app *App
}

func newLogoutCommand(app *App) *logoutCommand {
	return &logoutCommand{
		BaseCommand: NewBaseCommand("logout", "End the customer session", "logout"),
		app:         app,
	}
}

func (c *logoutCommand) Execute(ctx context.Context, _ []string, _, _ io.Writer) error {
	return c.app.Account.Logout(ctx)
}

type whoamiCommand struct {
	*BaseCommand
	app *App
}

func newWhoamiCommand(app *App) *whoamiCommand {
	return &whoamiCommand{
		BaseCommand: NewBaseCommand("whoami", "Show the customer and seller sessions", "whoami"),
		app:         app,
	}
}

func (c *whoamiCommand) Execute(ctx context.Context, _ []string, stdout, _ io.Writer) error {
	t := newTable("ROLE", "ID", "NAME", "EMAIL")
	for _, s := range []*service.Session{c.app.UserSession, c.app.SellerSession} {
		role := string(s.Namespace().Role)
		sess, err := s.Load(ctx)
		switch {
		case errors.Is(err, model.ErrUnauthenticated):
			t.row(role, "-", "not logged in", "-")
		case err != nil:
			return err
		default:
			p := sess.Profile
			t.row(role, p.ID, p.Name, p.Email)
		}
	}
	return t.write(stdout)
}
