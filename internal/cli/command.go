// Package cli is the command line front end of the storefront client.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrUsage is returned when a command is called with the wrong arguments.
var ErrUsage = errors.New("invalid usage")

// Command is one CLI verb.
type Command interface {
	Name() string
	Description() string
	Usage() string
	// SetupFlags registers the command's flags on fs before parsing.
	SetupFlags(fs *flag.FlagSet)
	// Execute runs the command with the positional arguments left after flags.
	Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error
}

// BaseCommand provides the descriptive half of Command.
type BaseCommand struct {
	name        string
	description string
	usage       string
}

func NewBaseCommand(name, description, usage string) *BaseCommand {
	return &BaseCommand{name: name, description: description, usage: usage}
}

func (c *BaseCommand) Name() string        { return c.name }
func (c *BaseCommand) Description() string { return c.description }
func (c *BaseCommand) Usage() string       { return c.usage }

// SetupFlags registers nothing.
func (c *BaseCommand) SetupFlags(*flag.FlagSet) {}

func (c *BaseCommand) usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s (usage: %s)", ErrUsage, fmt.Sprintf(format, args...), c.usage)
}

// Registry holds the available commands by name.
type Registry struct {
	commands map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

func (r *Registry) Get(name string) (Command, error) {
	cmd, ok := r.commands[name]
	if !ok {
		return nil, fmt.Errorf("command not found: %s", name)
	}
	return cmd, nil
}

// List returns the command names in order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run dispatches args (without the program name) to a command.
func (r *Registry) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	help, _ := r.Get("help")
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		if help == nil {
			return fmt.Errorf("%w: no command given", ErrUsage)
		}
		return help.Execute(ctx, nil, stdout, stderr)
	}

	cmd, err := r.Get(args[0])
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		_, _ = fmt.Fprintln(stderr, "Use 'storefront help' to see available commands.")
		return err
	}

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: %s\n", cmd.Usage())
		_, _ = fmt.Fprintf(stderr, "\n%s\n\n", cmd.Description())
		_, _ = fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	cmd.SetupFlags(fs)
	positional, err := parseInterspersed(fs, args[1:])
	if err != nil {
		return err
	}
	return cmd.Execute(ctx, positional, stdout, stderr)
}

// parseInterspersed lets flags follow positional arguments, so
// "cart add p1 --qty 2" works. Everything after "--" is positional.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// HelpCommand lists commands or describes one.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand("help", "Show available commands", "help [command]"),
		registry:    registry,
	}
}

func (c *HelpCommand) Execute(_ context.Context, args []string, stdout, _ io.Writer) error {
	if len(args) > 0 {
		cmd, err := c.registry.Get(args[0])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "Usage: %s\n\n%s\n", cmd.Usage(), cmd.Description())
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetupFlags(fs)
		var b strings.Builder
		fs.SetOutput(&b)
		fs.PrintDefaults()
		if b.Len() > 0 {
			_, _ = fmt.Fprintf(stdout, "\nOptions:\n%s", b.String())
		}
		return nil
	}

	_, _ = fmt.Fprintln(stdout, "Usage: storefront <command> [options] [args]")
	_, _ = fmt.Fprintln(stdout)
	_, _ = fmt.Fprintln(stdout, "Commands:")
	t := newTable()
	for _, name := range c.registry.List() {
		cmd, _ := c.registry.Get(name)
		t.row("  "+name, cmd.Description())
	}
	return t.write(stdout)
}
