package detector

import (
	"strings"
	"testing"

	"github.com/kolkov/bankrace/internal/race/epoch"
)

func TestAccessType_String(t *testing.T) {
	tests := []struct {
		name string
		at   AccessType
		want string
	}{
		{"read", AccessRead, "Read"},
		{"write", AccessWrite, "Write"},
		{"unknown", AccessType(99), "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.at.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewRaceReport(t *testing.T) {
	prev := epoch.NewEpoch(1, 5)
	cur := epoch.NewEpoch(2, 3)

	tests := []struct {
		raceType string
		wantCur  AccessType
		wantPrev AccessType
	}{
		{RaceTypeWriteWrite, AccessWrite, AccessWrite},
		{RaceTypeReadWrite, AccessWrite, AccessRead},
		{RaceTypeWriteRead, AccessRead, AccessWrite},
	}
	for _, tt := range tests {
		t.Run(tt.raceType, func(t *testing.T) {
			r := NewRaceReport(tt.raceType, 42, prev, cur)

			if r.Current.Type != tt.wantCur || r.Previous.Type != tt.wantPrev {
				t.Errorf("types = %s/%s, want %s/%s", r.Current.Type, r.Previous.Type, tt.wantCur, tt.wantPrev)
			}
			if r.Current.Account != 42 || r.Previous.Account != 42 {
				t.Errorf("accounts = %d/%d, want 42/42", r.Current.Account, r.Previous.Account)
			}
			if r.Current.Worker != 2 || r.Previous.Worker != 1 {
				t.Errorf("workers = %d/%d, want 2/1", r.Current.Worker, r.Previous.Worker)
			}
			if r.Current.Epoch != cur || r.Previous.Epoch != prev {
				t.Errorf("epochs = %s/%s, want %s/%s", r.Current.Epoch, r.Previous.Epoch, cur, prev)
			}
			if len(r.Current.StackTrace) == 0 {
				t.Error("current stack trace not captured")
			}
			if len(r.Previous.StackTrace) != 0 {
				t.Error("previous stack trace should be empty")
			}
		})
	}
}

func TestRaceReport_Format(t *testing.T) {
	r := NewRaceReport(RaceTypeReadWrite, 17, epoch.NewEpoch(1, 11), epoch.NewEpoch(2, 12))
	out := r.String()

	wants := []string{
		"==================",
		"WARNING: DATA RACE",
		"Write at account 17 by worker 2:",
		"[epoch: 12@2]",
		"Previous read at account 17 by worker 1:",
		"(previous access stack trace not available)",
		"[epoch: 11@1]",
		"TestRaceReport_Format",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "==================") != 2 {
		t.Errorf("report should be delimited by two banners:\n%s", out)
	}
}

func TestRaceReport_Format_NoStack(t *testing.T) {
	r := &RaceReport{
		Current:  AccessInfo{Type: AccessWrite, Account: 3, Worker: 1, Epoch: epoch.NewEpoch(1, 2)},
		Previous: AccessInfo{Type: AccessWrite, Account: 3, Worker: 2, Epoch: epoch.NewEpoch(2, 2)},
	}
	out := r.String()
	if !strings.Contains(out, "(no stack trace captured)") {
		t.Errorf("expected placeholder for missing current stack:\n%s", out)
	}
	if !strings.Contains(out, "Previous write at account 3 by worker 2:") {
		t.Errorf("unexpected previous line:\n%s", out)
	}
}

func TestFormatStack(t *testing.T) {
	out := FormatStack(0)
	if !strings.Contains(out, "TestFormatStack") {
		t.Errorf("FormatStack(0) should start at the caller:\n%s", out)
	}
	if strings.Contains(out, "detector.FormatStack") {
		t.Errorf("FormatStack should hide its own frame:\n%s", out)
	}
}

func TestFormatStackTrace_Empty(t *testing.T) {
	if got := formatStackTrace(nil); got != "  (no stack trace available)\n" {
		t.Errorf("formatStackTrace(nil) = %q", got)
	}
}

func TestGenerateDeduplicationKey(t *testing.T) {
	tests := []struct {
		name     string
		raceType string
		account  int
		w1, w2   uint16
		want     string
	}{
		{"ordered", RaceTypeWriteWrite, 17, 1, 2, "write-write:17:1:2"},
		{"reversed", RaceTypeWriteWrite, 17, 2, 1, "write-write:17:1:2"},
		{"read-write", RaceTypeReadWrite, 0, 3, 1, "read-write:0:1:3"},
		{"write-read", RaceTypeWriteRead, 999999, 0, 5, "write-read:999999:0:5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := generateDeduplicationKey(tt.raceType, tt.account, tt.w1, tt.w2); got != tt.want {
				t.Errorf("generateDeduplicationKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestDetector_Deduplication_PerAccount verifies one report per account,
// whichever worker detects it and whatever the conflict kind.
func TestDetector_Deduplication_PerAccount(t *testing.T) {
	d := newTestDetector(t, 2, 3)
	w1, w2, w3 := d.Spawn(1), d.Spawn(2), d.Spawn(3)

	d.OnWrite(0, w1)
	d.OnWrite(0, w2) // write-write
	d.OnRead(0, w3)  // write-read, same account
	d.OnWrite(1, w3)
	d.OnRead(1, w1) // different account

	if d.RacesDetected() != 2 {
		t.Errorf("RacesDetected() = %d, want 2", d.RacesDetected())
	}
	reports := d.Reports()
	if len(reports) != 2 {
		t.Fatalf("len(Reports()) = %d, want 2", len(reports))
	}
	if reports[0].DeduplicationKey != "write-write:0:1:2" {
		t.Errorf("first key = %q", reports[0].DeduplicationKey)
	}
	if reports[1].DeduplicationKey != "write-read:1:1:3" {
		t.Errorf("second key = %q", reports[1].DeduplicationKey)
	}
}

func BenchmarkNewRaceReport(b *testing.B) {
	prev, cur := epoch.NewEpoch(1, 5), epoch.NewEpoch(2, 3)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = NewRaceReport(RaceTypeWriteWrite, 42, prev, cur)
	}
}

func BenchmarkRaceReport_String(b *testing.B) {
	r := NewRaceReport(RaceTypeWriteWrite, 42, epoch.NewEpoch(1, 5), epoch.NewEpoch(2, 3))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = r.String()
	}
}

func TestIsDetectorFrame(t *testing.T) {
	const pkg = "github.com/kolkov/bankrace/internal/race/detector."
	tests := []struct {
		fn   string
		want bool
	}{
		{pkg + "(*Detector).OnWrite", true},
		{pkg + "(*Detector).report", true},
		{pkg + "NewRaceReport", true},
		{pkg + "captureStackTrace", true},
		{pkg + "TestIsDetectorFrame", false},
		{"github.com/kolkov/bankrace/internal/bank/worker.(*Worker).visit", false},
		{"main.main", false},
	}
	for _, tt := range tests {
		if got := isDetectorFrame(tt.fn); got != tt.want {
			t.Errorf("isDetectorFrame(%q) = %v, want %v", tt.fn, got, tt.want)
		}
	}
}
