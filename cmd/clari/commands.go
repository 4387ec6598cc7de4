package main

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clari/z3"
	"github.com/pkg/errors"
)

// CheckCommand represents a command for checking satisfiability of a problem.
type CheckCommand struct {
	*Main
}

// NewCheckCommand returns a new instance of CheckCommand.
func NewCheckCommand(m *Main) *CheckCommand {
	return &CheckCommand{Main: m}
}

// CheckArgs are the flags of the "check" subcommand.
type CheckArgs struct {
	CommonArgs
	N       int           `arg:"-n" default:"1" help:"number of values to report per eval expression"`
	Timeout time.Duration `arg:"--timeout" help:"solver timeout per check"`
}

// Run executes the "check" subcommand.
func (cmd *CheckCommand) Run(ctx context.Context, args []string) error {
	var a CheckArgs
	if err := cmd.parseArgs("clari-check", &a, args); err != nil {
		return err
	}

	f, logger, problem, err := cmd.load(&a.CommonArgs)
	if err != nil {
		return err
	}

	b := z3.NewBackend(f, z3.Config{Timeout: a.Timeout, Logger: logger})
	defer b.Close()

	ok, err := b.Satisfiable(problem.Assertions...)
	if err != nil {
		return err
	} else if !ok {
		fmt.Fprintln(cmd.Stdout, "unsat")
		return nil
	}
	fmt.Fprintln(cmd.Stdout, "sat")

	for _, e := range problem.Eval {
		values, err := b.Eval(e, a.N, problem.Assertions...)
		if err != nil {
			return errors.Wrapf(err, "eval %s", e)
		}
		for _, v := range values {
			fmt.Fprintf(cmd.Stdout, "%s = %s\n", e, v)
		}
	}
	return nil
}

// ReprCommand represents a command for printing the structure of a problem.
type ReprCommand struct {
	*Main
}

// NewReprCommand returns a new instance of ReprCommand.
func NewReprCommand(m *Main) *ReprCommand {
	return &ReprCommand{Main: m}
}

// ReprArgs are the flags of the "repr" subcommand.
type ReprArgs struct {
	CommonArgs
	Verbose bool `arg:"-v,--verbose" help:"include sort, hash and size"`
}

// Run executes the "repr" subcommand.
func (cmd *ReprCommand) Run(ctx context.Context, args []string) error {
	var a ReprArgs
	if err := cmd.parseArgs("clari-repr", &a, args); err != nil {
		return err
	}

	_, _, problem, err := cmd.load(&a.CommonArgs)
	if err != nil {
		return err
	}

	for _, e := range problem.Assertions {
		if err := e.Repr(cmd.Stdout, a.Verbose); err != nil {
			return err
		}
		fmt.Fprintln(cmd.Stdout)
	}
	return nil
}

// SimplifyCommand represents a command for printing assertions as built.
type SimplifyCommand struct {
	*Main
}

// NewSimplifyCommand returns a new instance of SimplifyCommand.
func NewSimplifyCommand(m *Main) *SimplifyCommand {
	return &SimplifyCommand{Main: m}
}

// SimplifyArgs are the flags of the "simplify" subcommand.
type SimplifyArgs struct {
	CommonArgs
}

// Run executes the "simplify" subcommand.
func (cmd *SimplifyCommand) Run(ctx context.Context, args []string) error {
	var a SimplifyArgs
	if err := cmd.parseArgs("clari-simplify", &a, args); err != nil {
		return err
	}

	f, _, problem, err := cmd.load(&a.CommonArgs)
	if err != nil {
		return err
	}

	for _, e := range problem.Assertions {
		fmt.Fprintln(cmd.Stdout, e)
	}

	// Conjoin the assertions so trivially true problems collapse.
	switch len(problem.Assertions) {
	case 0:
		fmt.Fprintln(cmd.Stdout, "=>", f.True())
	case 1:
		fmt.Fprintln(cmd.Stdout, "=>", problem.Assertions[0])
	default:
		all, err := f.And(problem.Assertions...)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.Stdout, "=>", all)
	}
	return nil
}
