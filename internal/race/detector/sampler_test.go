package detector

import "testing"

func TestNewSampler_DefaultConfig(t *testing.T) {
	s := NewSampler(SamplerConfig{})

	if s.GetConfig().Rate != 1 {
		t.Errorf("Expected rate 1, got %d", s.GetConfig().Rate)
	}
	if s.IsEnabled() {
		t.Error("Expected sampler to be disabled by default")
	}
	if s.GetEffectiveRate() != 1 {
		t.Errorf("GetEffectiveRate() = %d, want 1", s.GetEffectiveRate())
	}
}

func TestNewSampler_RateWithoutEnabled(t *testing.T) {
	s := NewSampler(SamplerConfig{Rate: 10})
	if s.IsEnabled() {
		t.Error("rate without Enabled must not sample")
	}
	if slot, ok := s.Slot(7); !ok || slot != 7 {
		t.Errorf("Slot(7) = (%d, %v), want (7, true)", slot, ok)
	}
}

func TestSampler_Slot(t *testing.T) {
	s := NewSampler(SamplerConfig{Enabled: true, Rate: 10})

	tests := []struct {
		account  int
		wantSlot int
		wantOK   bool
	}{
		{0, 0, true},
		{1, 0, false},
		{9, 0, false},
		{10, 1, true},
		{999990, 99999, true},
		{-10, 0, false},
	}

	for _, tt := range tests {
		slot, ok := s.Slot(tt.account)
		if ok != tt.wantOK || (ok && slot != tt.wantSlot) {
			t.Errorf("Slot(%d) = (%d, %v), want (%d, %v)", tt.account, slot, ok, tt.wantSlot, tt.wantOK)
		}
	}
}

func TestSampler_Slots(t *testing.T) {
	tests := []struct {
		rate uint64
		n    int
		want int
	}{
		{1, 0, 0},
		{1, 1000000, 1000000},
		{10, 1000000, 100000},
		{10, 11, 2},
		{10, 1, 1},
		{3, 7, 3},
	}

	for _, tt := range tests {
		s := NewSampler(SamplerConfig{Enabled: tt.rate > 1, Rate: tt.rate})
		if got := s.Slots(tt.n); got != tt.want {
			t.Errorf("rate %d: Slots(%d) = %d, want %d", tt.rate, tt.n, got, tt.want)
		}
	}
}

// TestSampler_SlotsCoverSlot verifies every sampled account lands inside the shadow.
func TestSampler_SlotsCoverSlot(t *testing.T) {
	for _, rate := range []uint64{1, 2, 3, 7, 10} {
		s := NewSampler(SamplerConfig{Enabled: true, Rate: rate})
		const n = 100
		slots := s.Slots(n)
		seen := 0
		for a := 0; a < n; a++ {
			slot, ok := s.Slot(a)
			if !ok {
				continue
			}
			seen++
			if slot >= slots {
				t.Errorf("rate %d: account %d mapped to slot %d >= %d", rate, a, slot, slots)
			}
		}
		if seen != slots {
			t.Errorf("rate %d: %d sampled accounts, %d slots", rate, seen, slots)
		}
	}
}
