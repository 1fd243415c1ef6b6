package bank

import (
	"context"

	"github.com/kolkov/bankrace/internal/bank/account"
	"github.com/kolkov/bankrace/internal/bank/coordinator"
)

// Config describes one run. See DefaultConfig for the reference values.
type Config = coordinator.Config

// Result is the outcome of one run.
type Result = coordinator.Result

// ConfigError reports an invalid Config field.
type ConfigError = coordinator.ConfigError

// GuardKind selects the per-account guard.
type GuardKind = account.Kind

// Guard kinds.
const (
	GuardMutex     = account.KindMutex
	GuardSemaphore = account.KindSemaphore
)

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return coordinator.DefaultConfig()
}

// ParseGuardKind parses "mutex" or "semaphore".
func ParseGuardKind(s string) (GuardKind, error) {
	return account.ParseKind(s)
}

// Run builds the account set, runs cfg.Workers concurrent traversals over it
// and tallies the balances.
//
// The only error is an invalid cfg, reported as *ConfigError. Cancelling ctx
// stops workers that are waiting for a guard; the run still completes and
// counts them in Result.Interrupted.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	return coordinator.Run(ctx, cfg)
}
