// Package main implements the bankrace CLI.
//
// bankrace creates a set of accounts with identical balances, lets several
// workers withdraw from every account concurrently, and prints how many
// accounts ended below zero:
//
//	$ bankrace
//	Banks with less than $0: 0
//
//	$ bankrace -unguarded
//	Banks with less than $0: 1873
//
// The unguarded count depends on scheduling. Add -check for a verdict that
// does not.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/kolkov/bankrace/bank"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args, performs one run and returns the exit code.
//
//nolint:errcheck // best-effort console output
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg := bank.DefaultConfig()
	cfg.Log = stderr

	fs := flag.NewFlagSet("bankrace", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr, fs) }

	fs.IntVar(&cfg.Accounts, "accounts", cfg.Accounts, "number of accounts")
	fs.Int64Var(&cfg.InitialBalance, "balance", cfg.InitialBalance, "initial balance of every account")
	fs.Int64Var(&cfg.Amount, "amount", cfg.Amount, "amount withdrawn per account")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of concurrent workers")
	unguarded := fs.Bool("unguarded", false, "run without per-account guards")
	guard := fs.String("guard", string(cfg.Guard), "guard kind: mutex or semaphore")
	fs.DurationVar(&cfg.CheckDelay, "check-delay", 0, "pause between balance check and withdrawal")
	fs.BoolVar(&cfg.Check, "check", false, "run the happens-before checker")
	fs.Uint64Var(&cfg.SampleRate, "sample", 0, "check one account in N (with -check)")
	fs.BoolVar(&cfg.History, "history", false, "show the previous access stack in reports (with -check)")
	fs.BoolVar(&cfg.Verbose, "v", false, "log run progress to stderr")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "bankrace: unexpected arguments: %v\n", fs.Args())
		return 2
	}

	if *showVersion {
		info := bank.GetInfo()
		fmt.Fprintf(stdout, "bankrace %s (%s)\n", info.Version, info.Checker)
		return 0
	}

	cfg.Guarded = !*unguarded
	kind, err := bank.ParseGuardKind(*guard)
	if err != nil {
		fmt.Fprintf(stderr, "bankrace: %v\n", err)
		return 2
	}
	cfg.Guard = kind

	res, err := bank.Run(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "bankrace: %v\n", err)
		var ce *bank.ConfigError
		if errors.As(err, &ce) {
			return 2
		}
		return 1
	}

	fmt.Fprintf(stdout, "Banks with less than $0: %d\n", res.Negative)
	if cfg.Check {
		fmt.Fprintf(stdout, "Accounts with unordered accesses: %d of %d checked\n", res.Conflicts, res.Checked)
	}
	if res.Interrupted > 0 {
		fmt.Fprintf(stderr, "bankrace: %d of %d workers interrupted\n", res.Interrupted, cfg.Workers)
	}
	return 0
}

//nolint:errcheck // best-effort console output
func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprint(w, `bankrace - concurrent withdrawals with and without per-account guards

USAGE:
    bankrace [flags]

With no flags, runs 2 guarded workers over 1,000,000 accounts of 200,
withdrawing 200 from each account that can cover it, and prints:

    Banks with less than $0: 0

FLAGS:
`)
	fs.PrintDefaults()
	fmt.Fprint(w, `
EXAMPLES:
    # Show the check-then-act race
    bankrace -unguarded

    # Widen the race window and ask the checker
    bankrace -unguarded -accounts 1000 -check-delay 1ms -check

    # FIFO semaphore guards, 8 workers
    bankrace -guard semaphore -workers 8
`)
}
