package detector

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kolkov/bankrace/internal/race/epoch"
	"github.com/kolkov/bankrace/internal/race/goroutine"
	"github.com/kolkov/bankrace/internal/race/shadowmem"
	"github.com/kolkov/bankrace/internal/race/stackdepot"
	"github.com/kolkov/bankrace/internal/race/syncshadow"
)

// MaxParticipants bounds coordinator plus workers by the 16-bit TID space.
const MaxParticipants = 1 << epoch.TIDBits

// DefaultMaxReports is the number of reports kept when Options.MaxReports is 0.
const DefaultMaxReports = 10

// Options configures a Detector.
type Options struct {
	// Workers is the number of workers of the run. The coordinator is added
	// as participant 0.
	Workers int

	// Sampling selects the checked accounts.
	Sampling SamplerConfig

	// MaxReports caps the reports kept for printing. 0 uses
	// DefaultMaxReports, a negative value keeps none. Conflicts are
	// counted regardless.
	MaxReports int

	// History records the stack of the last access to every checked
	// account, so reports can show where the previous access came from.
	// It costs a stack capture per access.
	History bool
}

// Stats counts the events the detector has processed.
type Stats struct {
	Reads      uint64 // Balance reads checked.
	Writes     uint64 // Balance writes checked.
	Acquires   uint64 // Guard acquisitions.
	Releases   uint64 // Guard releases.
	Promotions uint64 // Cells promoted to a read clock.
	Skipped    uint64 // Events on accounts outside the sample.
}

// Detector checks one withdrawal run.
type Detector struct {
	participants int

	// shadowMemory holds the balance history of every checked account.
	shadowMemory *shadowmem.ShadowMemory

	// syncShadow holds guard release clocks and the worker group edges.
	syncShadow *syncshadow.SyncShadow

	sampler *Sampler

	// root is the coordinator's context (TID 0).
	root *goroutine.RaceContext

	// conflicted marks shadow slots that already produced a conflict,
	// so each account is counted once. Guarded by the slot's cell lock.
	conflicted []bool

	racesDetected atomic.Int64

	maxReports int

	// depot is nil unless Options.History is set. writeStacks and
	// readStacks are guarded by the slot's cell lock.
	depot       *stackdepot.Depot
	writeStacks []uint64
	readStacks  [][]readStack

	// mu protects reports.
	mu      sync.Mutex
	reports []*RaceReport

	reads, writes, acquires, releases, promotions, skipped atomic.Uint64
}

// readStack is the stack of a recorded read and who made it.
type readStack struct {
	hash uint64
	tid  uint16
}

// NewDetector creates a detector for a set of accounts.
//
// Example:
//
//	d := NewDetector(1000, Options{Workers: 2})
//	w := d.Spawn(1)
//	d.OnAcquire(17, w)
//	d.OnRead(17, w)
//	d.OnRelease(17, w)
//	d.Done(w)
//	d.Wait()
func NewDetector(accounts int, opts Options) (*Detector, error) {
	if opts.Workers < 1 {
		return nil, fmt.Errorf("detector: need at least one worker, got %d", opts.Workers)
	}
	if opts.Workers+1 > MaxParticipants {
		return nil, fmt.Errorf("detector: %d workers exceed the %d participant limit", opts.Workers, MaxParticipants-1)
	}
	if accounts < 0 {
		return nil, fmt.Errorf("detector: negative account count %d", accounts)
	}

	sampler := NewSampler(opts.Sampling)
	slots := sampler.Slots(accounts)
	n := opts.Workers + 1

	maxReports := opts.MaxReports
	if maxReports == 0 {
		maxReports = DefaultMaxReports
	}

	d := &Detector{
		participants: n,
		shadowMemory: shadowmem.NewShadowMemory(slots),
		syncShadow:   syncshadow.NewSyncShadow(slots),
		sampler:      sampler,
		root:         goroutine.Alloc(0, n),
		conflicted:   make([]bool, slots),
		maxReports:   maxReports,
	}
	if opts.History {
		d.depot = stackdepot.New()
		d.writeStacks = make([]uint64, slots)
		d.readStacks = make([][]readStack, slots)
	}
	return d, nil
}

// Root returns the coordinator's context.
func (d *Detector) Root() *goroutine.RaceContext {
	return d.root
}

// Checked returns the number of accounts under check.
func (d *Detector) Checked() int {
	return d.shadowMemory.Len()
}

// Spawn creates the context of worker tid, ordered after everything the
// coordinator did so far. It must be called from the coordinator before the
// worker goroutine starts.
func (d *Detector) Spawn(tid uint16) *goroutine.RaceContext {
	ctx := goroutine.Alloc(tid, d.participants)
	ctx.C.Join(d.root.C)
	ctx.Sync()
	d.syncShadow.Group().OnSpawn()
	d.root.IncrementClock()
	return ctx
}

// Done publishes a finished worker's clock. Called by the worker itself as
// its last action.
func (d *Detector) Done(ctx *goroutine.RaceContext) {
	d.syncShadow.Group().OnDone(ctx.C)
}

// Wait orders the coordinator after every worker that called Done. Called by
// the coordinator after joining the workers.
func (d *Detector) Wait() {
	d.syncShadow.Group().JoinInto(d.root.C)
	d.root.IncrementClock()
}

// slot returns the shadow slot of account, counting skipped events.
func (d *Detector) slot(account int) (int, bool) {
	slot, ok := d.sampler.Slot(account)
	if !ok || slot >= d.shadowMemory.Len() {
		d.skipped.Add(1)
		return 0, false
	}
	return slot, true
}

// OnWrite checks a balance write by ctx.
//
// [FT WRITE]: same-epoch fast path, then write-write and read-write checks,
// then vs.W = epoch, reads cleared, clock advanced.
func (d *Detector) OnWrite(account int, ctx *goroutine.RaceContext) {
	slot, ok := d.slot(account)
	if !ok {
		return
	}
	d.writes.Add(1)

	vs := d.shadowMemory.Get(slot)
	cur := ctx.GetEpoch()

	vs.Lock()
	defer vs.Unlock()

	if vs.W.Same(cur) {
		return
	}

	switch {
	case !vs.W.HappensBefore(ctx.C):
		d.report(slot, RaceTypeWriteWrite, account, vs.W, cur)
	case !vs.IsPromoted():
		if r := vs.GetReadEpoch(); r != 0 && !r.HappensBefore(ctx.C) {
			d.report(slot, RaceTypeReadWrite, account, r, cur)
		}
	default:
		if prev, ok := firstUnordered(vs, ctx); !ok {
			d.report(slot, RaceTypeReadWrite, account, prev, cur)
		}
	}

	vs.W = cur
	vs.Demote()
	if d.depot != nil {
		d.writeStacks[slot] = d.depot.Capture(1)
		d.readStacks[slot] = d.readStacks[slot][:0]
	}
	ctx.IncrementClock()
}

// OnRead checks a balance read by ctx.
//
// [FT READ]: write-read check, then the read is recorded as an epoch while
// readers are ordered, or in a read clock once they overlap.
func (d *Detector) OnRead(account int, ctx *goroutine.RaceContext) {
	slot, ok := d.slot(account)
	if !ok {
		return
	}
	d.reads.Add(1)

	vs := d.shadowMemory.Get(slot)
	cur := ctx.GetEpoch()

	vs.Lock()
	defer vs.Unlock()

	if vs.W != 0 && !vs.W.HappensBefore(ctx.C) {
		d.report(slot, RaceTypeWriteRead, account, vs.W, cur)
	}

	if vs.IsPromoted() {
		vs.AddReader(cur)
	} else {
		r := vs.GetReadEpoch()
		switch {
		case r.Same(cur):
			return
		case r == 0, r.TID() == ctx.TID, r.HappensBefore(ctx.C):
			vs.SetReadEpoch(cur)
		default:
			vs.PromoteToReadClock(d.participants, cur)
			d.promotions.Add(1)
		}
	}
	if d.depot != nil {
		d.recordRead(slot, vs.IsPromoted(), readStack{hash: d.depot.Capture(1), tid: ctx.TID})
	}
	ctx.IncrementClock()
}

// firstUnordered returns the first recorded reader not ordered before ctx.
func firstUnordered(vs *shadowmem.VarState, ctx *goroutine.RaceContext) (epoch.Epoch, bool) {
	rc := vs.GetReadClock()
	for i := 0; i < rc.Len(); i++ {
		tid := uint16(i) //nolint:gosec // G115: bounded by MaxParticipants.
		if clock := rc.Get(tid); clock > ctx.C.Get(tid) {
			return epoch.NewEpoch(tid, clock), false
		}
	}
	return 0, true
}

// OnAcquire records that ctx acquired the guard of account: Ct := Ct ⊔ Lg.
// Call it after the guard is held.
func (d *Detector) OnAcquire(account int, ctx *goroutine.RaceContext) {
	slot, ok := d.slot(account)
	if !ok {
		return
	}
	d.acquires.Add(1)
	d.syncShadow.Get(slot).JoinInto(ctx.C)
	ctx.IncrementClock()
}

// OnRelease records that ctx is releasing the guard of account: Lg := Ct.
// Call it while the guard is still held.
func (d *Detector) OnRelease(account int, ctx *goroutine.RaceContext) {
	slot, ok := d.slot(account)
	if !ok {
		return
	}
	d.releases.Add(1)
	d.syncShadow.Get(slot).SetReleaseClock(ctx.C)
	ctx.IncrementClock()
}

// report counts a conflict once per slot and keeps the first reports.
// The caller holds the slot's cell lock.
func (d *Detector) report(slot int, raceType string, account int, prev, cur epoch.Epoch) {
	if d.conflicted[slot] {
		return
	}
	d.conflicted[slot] = true
	d.racesDetected.Add(1)

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.reports) >= d.maxReports {
		return
	}
	r := NewRaceReport(raceType, account, prev, cur)
	if d.depot != nil {
		r.Previous.StackTrace = d.previousStack(slot, raceType, prev)
	}
	d.reports = append(d.reports, r)
}

// recordRead keeps one read stack per reader since the last write while the
// cell is promoted, and only the latest one otherwise.
func (d *Detector) recordRead(slot int, promoted bool, rs readStack) {
	reads := d.readStacks[slot]
	if !promoted {
		d.readStacks[slot] = append(reads[:0], rs)
		return
	}
	for i := range reads {
		if reads[i].tid == rs.tid {
			reads[i] = rs
			return
		}
	}
	d.readStacks[slot] = append(reads, rs)
}

// previousStack returns the recorded stack of the previous access.
func (d *Detector) previousStack(slot int, raceType string, prev epoch.Epoch) []uintptr {
	if raceType != RaceTypeReadWrite {
		return d.depot.Get(d.writeStacks[slot]).Frames()
	}
	for _, rs := range d.readStacks[slot] {
		if rs.tid == prev.TID() {
			return d.depot.Get(rs.hash).Frames()
		}
	}
	return nil
}

// RacesDetected returns the number of accounts with at least one conflict.
func (d *Detector) RacesDetected() int {
	return int(d.racesDetected.Load())
}

// Reports returns the kept reports, in detection order.
func (d *Detector) Reports() []*RaceReport {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*RaceReport, len(d.reports))
	copy(out, d.reports)
	return out
}

// GetStats returns a snapshot of the event counters.
func (d *Detector) GetStats() Stats {
	return Stats{
		Reads:      d.reads.Load(),
		Writes:     d.writes.Load(),
		Acquires:   d.acquires.Load(),
		Releases:   d.releases.Load(),
		Promotions: d.promotions.Load(),
		Skipped:    d.skipped.Load(),
	}
}

// Reset returns the detector to its freshly created state.
//
// Not safe for concurrent use.
func (d *Detector) Reset() {
	d.shadowMemory.Reset()
	d.syncShadow.Reset()
	d.root = goroutine.Alloc(0, d.participants)
	clear(d.conflicted)
	if d.depot != nil {
		d.depot.Reset()
		clear(d.writeStacks)
		clear(d.readStacks)
	}
	d.racesDetected.Store(0)
	d.mu.Lock()
	d.reports = nil
	d.mu.Unlock()
	d.reads.Store(0)
	d.writes.Store(0)
	d.acquires.Store(0)
	d.releases.Store(0)
	d.promotions.Store(0)
	d.skipped.Store(0)
}
