package bank_test

import (
	"context"
	"fmt"

	"github.com/kolkov/bankrace/bank"
)

// Example runs a small guarded experiment.
func Example() {
	cfg := bank.DefaultConfig()
	cfg.Accounts = 10_000
	cfg.Workers = 4
	cfg.Log = nil

	res, err := bank.Run(context.Background(), cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("Banks with less than $0: %d\n", res.Negative)

	// Output:
	// Banks with less than $0: 0
}

// Example_check shows the checker's verdict on both variants. Unlike the
// balances, it does not depend on scheduling.
func Example_check() {
	for _, guarded := range []bool{true, false} {
		cfg := bank.DefaultConfig()
		cfg.Accounts = 1000
		cfg.Guarded = guarded
		cfg.Check = true
		cfg.Log = nil

		res, err := bank.Run(context.Background(), cfg)
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("guarded=%v: %d of %d accounts with conflicts\n", guarded, res.Conflicts, res.Checked)
	}

	// Output:
	// guarded=true: 0 of 1000 accounts with conflicts
	// guarded=false: 1000 of 1000 accounts with conflicts
}

// Example_semaphore selects the semaphore guard.
func Example_semaphore() {
	kind, err := bank.ParseGuardKind("semaphore")
	if err != nil {
		fmt.Println(err)
		return
	}
	cfg := bank.DefaultConfig()
	cfg.Accounts = 1000
	cfg.Guard = kind
	cfg.Log = nil

	res, _ := bank.Run(context.Background(), cfg)
	fmt.Println(res.Negative, res.Overdrawn, res.Withdrawn)

	// Output:
	// 0 0 200000
}

// Example_invalidConfig shows the error for a bad configuration.
func Example_invalidConfig() {
	cfg := bank.DefaultConfig()
	cfg.Amount = 0

	_, err := bank.Run(context.Background(), cfg)
	fmt.Println(err)

	// Output:
	// invalid config: Amount must be positive, got 0
}
