package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/benbjohnson/clari"
	"github.com/benbjohnson/clari/internal/logging"
	"github.com/pkg/errors"
)

func main() {
	m := NewMain()
	if err := m.Run(context.Background(), os.Args[1:]); err == flag.ErrHelp {
		os.Exit(1)
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program execution.
type Main struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewMain returns a new instance of Main bound to the standard streams.
func NewMain() *Main {
	return &Main{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run dispatches args to a subcommand.
func (m *Main) Run(ctx context.Context, args []string) error {
	var cmd string
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "", "-h", "--help", "help":
		m.usage()
		return flag.ErrHelp
	case "check":
		return NewCheckCommand(m).Run(ctx, args)
	case "repr":
		return NewReprCommand(m).Run(ctx, args)
	case "simplify":
		return NewSimplifyCommand(m).Run(ctx, args)
	default:
		return fmt.Errorf(`clari %s: unknown command`, cmd)
	}
}

func (m *Main) usage() {
	fmt.Fprintln(m.Stderr, `
Clari builds symbolic expressions and checks them with Z3.

Usage:

	clari <command> [arguments] PROBLEM

The commands are:

	check       check satisfiability of the problem's assertions
	repr        print the structure of each assertion
	simplify    print each assertion after construction
	help        this screen
`[1:])
}

// CommonArgs holds the flags shared by every subcommand.
type CommonArgs struct {
	Config   string `arg:"-c,--config" help:"path to YAML config file"`
	LogLevel string `arg:"--log-level" help:"override the configured log level"`
	Problem  string `arg:"positional,required" help:"path to YAML problem file"`
}

// parseArgs parses args into dst, which must embed CommonArgs.
func (m *Main) parseArgs(program string, dst interface{}, args []string) error {
	parser, err := arg.NewParser(arg.Config{Program: program}, dst)
	if err != nil {
		return errors.Wrap(err, "cli config error")
	}
	if err := parser.Parse(args); err == arg.ErrHelp {
		parser.WriteHelp(m.Stderr)
		return flag.ErrHelp
	} else if err != nil {
		return errors.Wrap(err, program)
	}
	return nil
}

// load reads the config and the problem named by a and builds the problem's
// assertions. The returned logger writes to stderr at the configured level.
func (m *Main) load(a *CommonArgs) (*clari.Factory, *slog.Logger, *Problem, error) {
	config := clari.DefaultConfig()
	if a.Config != "" {
		var err error
		if config, err = clari.LoadConfig(a.Config); err != nil {
			return nil, nil, nil, err
		}
	}
	if a.LogLevel != "" {
		config.LogLevel = a.LogLevel
	}

	level, err := logging.ParseLevel(config.LogLevel)
	if err != nil {
		return nil, nil, nil, errors.Wrap(clari.ErrUsage, err.Error())
	}
	config.Logger = slog.New(slog.NewTextHandler(m.Stderr, &slog.HandlerOptions{Level: level}))

	f, err := clari.NewFactory(config)
	if err != nil {
		return nil, nil, nil, err
	}

	problem, err := ReadProblemFile(f, a.Problem)
	if err != nil {
		return nil, nil, nil, err
	}
	return f, config.Logger, problem, nil
}
