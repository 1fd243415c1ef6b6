package coordinator

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kolkov/bankrace/internal/bank/account"
	"github.com/kolkov/bankrace/internal/race/detector"
)

// Reference configuration.
const (
	DefaultAccounts       = 1_000_000
	DefaultInitialBalance = 200
	DefaultAmount         = 200
	DefaultWorkers        = 2
)

// Config describes one run.
type Config struct {
	// Accounts is the size of the shared set.
	Accounts int

	// InitialBalance is the starting balance of every account. Must be positive.
	InitialBalance int64

	// Amount is the fixed withdrawal. Must be positive.
	Amount int64

	// Workers is the number of concurrent full-set traversals.
	Workers int

	// Guarded gives every account its own guard of kind Guard.
	Guarded bool
	Guard   account.Kind

	// CheckDelay, when positive, is slept between check and withdrawal.
	// It widens the race window of the unguarded variant.
	CheckDelay time.Duration

	// Check runs the happens-before checker alongside the workers.
	Check bool

	// SampleRate checks one account in SampleRate. 0 and 1 check all.
	SampleRate uint64

	// History makes conflict reports show the stack of the previous
	// access. Slows checked runs down considerably.
	History bool

	// MaxReports caps the conflict reports kept and printed. 0 uses the
	// detector default, a negative value prints none.
	MaxReports int

	// Verbose logs run start and completion.
	Verbose bool

	// Log receives interruption notices, conflict reports and verbose
	// output. nil discards them.
	Log io.Writer
}

// DefaultConfig returns the reference configuration: a guarded run of two
// workers over 1,000,000 accounts of 200, withdrawing 200.
func DefaultConfig() Config {
	return Config{
		Accounts:       DefaultAccounts,
		InitialBalance: DefaultInitialBalance,
		Amount:         DefaultAmount,
		Workers:        DefaultWorkers,
		Guarded:        true,
		Guard:          account.KindMutex,
		Log:            os.Stderr,
	}
}

// Validate reports the first invalid field as a *ConfigError.
func (c Config) Validate() error {
	switch {
	case c.Accounts < 0:
		return &ConfigError{Field: "Accounts", Message: fmt.Sprintf("must not be negative, got %d", c.Accounts)}
	case c.InitialBalance <= 0:
		return &ConfigError{Field: "InitialBalance", Message: fmt.Sprintf("must be positive, got %d", c.InitialBalance)}
	case c.Amount <= 0:
		return &ConfigError{Field: "Amount", Message: fmt.Sprintf("must be positive, got %d", c.Amount)}
	case c.Workers < 1:
		return &ConfigError{Field: "Workers", Message: fmt.Sprintf("must be at least 1, got %d", c.Workers)}
	case c.Workers >= detector.MaxParticipants:
		return &ConfigError{Field: "Workers", Message: fmt.Sprintf("must be below %d, got %d", detector.MaxParticipants, c.Workers)}
	case c.CheckDelay < 0:
		return &ConfigError{Field: "CheckDelay", Message: fmt.Sprintf("must not be negative, got %s", c.CheckDelay)}
	}
	if c.Guarded {
		if _, err := account.ParseKind(string(c.Guard)); err != nil {
			return &ConfigError{Field: "Guard", Message: err.Error()}
		}
	}
	return nil
}

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field   string // Config field name
	Message string // what is wrong with it
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Message)
}
