// Package coordinator runs the withdrawal experiment: it builds the shared
// account set, starts the workers together, waits for all of them and tallies
// the result.
//
// The coordinator touches the set only before the workers start and after
// every one of them has returned. There is no coordinator-initiated
// cancellation; the caller's context is the only interruption source, and it
// is observed only by workers waiting for a guard.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	uuid "github.com/satori/go.uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kolkov/bankrace/internal/bank/account"
	"github.com/kolkov/bankrace/internal/bank/worker"
	"github.com/kolkov/bankrace/internal/race/detector"
	"github.com/kolkov/bankrace/internal/race/goroutine"
)

// Result is the outcome of one run.
type Result struct {
	// RunID tags the run's log lines.
	RunID uuid.UUID

	// Negative is the number of accounts left below zero.
	Negative int

	// Overdrawn is the number of accounts that gave out more than
	// floor(initial/amount)*amount.
	Overdrawn int

	// Withdrawn is the total amount taken from all accounts.
	Withdrawn int64

	// Workers holds each worker's counters, indexed by worker ID - 1.
	Workers []worker.Stats

	// Interrupted is the number of workers that stopped early.
	Interrupted int

	// Checked is the number of accounts under the happens-before checker,
	// 0 when Config.Check is off.
	Checked int

	// Conflicts is the number of checked accounts with unordered accesses.
	Conflicts int

	// Reports are the first conflict reports.
	Reports []*detector.RaceReport

	// Elapsed is the wall time from start gate to the last worker's return.
	Elapsed time.Duration
}

// Run executes one run of cfg.
//
// The only error is an invalid configuration, returned as *ConfigError.
// Interrupted workers are logged and counted in Result.Interrupted; the run
// still completes and tallies.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.Must(uuid.NewV4())
	log := newRunLog(cfg.Log, runID)

	set, err := account.NewSet(cfg.Accounts, cfg.InitialBalance, cfg.Guarded, cfg.Guard)
	if err != nil {
		return nil, fmt.Errorf("building account set: %w", err)
	}

	var det *detector.Detector
	if cfg.Check {
		det, err = detector.NewDetector(cfg.Accounts, detector.Options{
			Workers: cfg.Workers,
			Sampling: detector.SamplerConfig{
				Enabled: cfg.SampleRate > 1,
				Rate:    cfg.SampleRate,
			},
			MaxReports: cfg.MaxReports,
			History:    cfg.History,
		})
		if err != nil {
			return nil, fmt.Errorf("creating checker: %w", err)
		}
		// The initial balances are the coordinator's writes.
		for i := 0; i < set.Len(); i++ {
			det.OnWrite(i, det.Root())
		}
	}

	if cfg.Verbose {
		log.printf("starting %d workers over %d %s accounts (balance %d, amount %d)",
			cfg.Workers, cfg.Accounts, guardName(cfg), cfg.InitialBalance, cfg.Amount)
	}

	workers := make([]*worker.Worker, cfg.Workers)
	tracers := make([]*checkTracer, cfg.Workers)
	for i := range workers {
		wc := worker.Config{ID: i + 1, Amount: cfg.Amount}
		if cfg.CheckDelay > 0 {
			delay := cfg.CheckDelay
			wc.BetweenCheckAndAct = func(int) { time.Sleep(delay) }
		}
		if det != nil {
			//nolint:gosec // G115: Validate bounds Workers below MaxParticipants.
			tracers[i] = &checkTracer{det: det, rc: det.Spawn(uint16(i + 1))}
			wc.Tracer = tracers[i]
		}
		workers[i] = worker.New(set, wc)
	}

	var (
		g           errgroup.Group
		start       = make(chan struct{})
		interrupted atomic.Int64
	)
	for i, w := range workers {
		tr := tracers[i]
		g.Go(func() error {
			<-start
			err := w.Run(ctx)
			if tr != nil {
				det.Done(tr.rc)
			}
			var ie *worker.InterruptedError
			if errors.As(err, &ie) {
				interrupted.Add(1)
				logInterrupted(log, ie)
				return nil
			}
			return err
		})
	}

	begin := time.Now()
	close(start)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	elapsed := time.Since(begin)
	if det != nil {
		det.Wait()
	}

	res := tally(set, cfg)
	res.RunID = runID
	res.Elapsed = elapsed
	res.Interrupted = int(interrupted.Load())
	res.Workers = make([]worker.Stats, len(workers))
	for i, w := range workers {
		res.Workers[i] = w.Stats()
	}

	if det != nil {
		// The tally reads every balance after the join.
		for i := 0; i < set.Len(); i++ {
			det.OnRead(i, det.Root())
		}
		res.Checked = det.Checked()
		res.Conflicts = det.RacesDetected()
		res.Reports = det.Reports()
		logConflicts(log, res)
	}

	if cfg.Verbose {
		log.printf("done in %s: %d negative, %d overdrawn, %d withdrawn, %d interrupted",
			res.Elapsed.Round(time.Millisecond), res.Negative, res.Overdrawn, res.Withdrawn, res.Interrupted)
	}
	return res, nil
}

// tally scans the set once, single-threaded.
func tally(set *account.Set, cfg Config) *Result {
	limit := cfg.InitialBalance - cfg.InitialBalance%cfg.Amount
	res := &Result{}
	for i := 0; i < set.Len(); i++ {
		b := set.At(i).Balance()
		taken := cfg.InitialBalance - b
		res.Withdrawn += taken
		if b < 0 {
			res.Negative++
		}
		if taken > limit {
			res.Overdrawn++
		}
	}
	return res
}

func guardName(cfg Config) string {
	if !cfg.Guarded {
		return "unguarded"
	}
	if cfg.Guard == "" {
		return string(account.KindMutex) + "-guarded"
	}
	return string(cfg.Guard) + "-guarded"
}

func logInterrupted(log *runLog, ie *worker.InterruptedError) {
	log.block(notice, "WORKER INTERRUPTED", func(w io.Writer) {
		fmt.Fprintf(w, "%v\n", ie) //nolint:errcheck // best-effort diagnostic output
		fmt.Fprint(w, detector.FormatStack(1))
	})
}

//nolint:errcheck // best-effort diagnostic output
func logConflicts(log *runLog, res *Result) {
	for _, r := range res.Reports {
		log.raw(r.Format)
	}
	if res.Conflicts == 0 {
		log.block(clean, "No unordered balance accesses", func(w io.Writer) {
			fmt.Fprintf(w, "%d accounts checked.\n", res.Checked)
		})
		return
	}
	log.block(alarm, fmt.Sprintf("WARNING: %d of %d checked accounts accessed without ordering", res.Conflicts, res.Checked), func(w io.Writer) {
		if hidden := res.Conflicts - len(res.Reports); hidden > 0 {
			fmt.Fprintf(w, "%d more conflict(s) not shown.\n", hidden)
		}
	})
}

// checkTracer forwards one worker's accesses to the detector.
type checkTracer struct {
	det *detector.Detector
	rc  *goroutine.RaceContext
}

func (t *checkTracer) Acquired(i int)  { t.det.OnAcquire(i, t.rc) }
func (t *checkTracer) Read(i int)      { t.det.OnRead(i, t.rc) }
func (t *checkTracer) Write(i int)     { t.det.OnWrite(i, t.rc) }
func (t *checkTracer) Releasing(i int) { t.det.OnRelease(i, t.rc) }
