package detector

// SamplerConfig configures which accounts the detector checks.
//
// Usage:
//
//	// Default: every account is checked.
//	s := NewSampler(SamplerConfig{})
//
//	// Check accounts 0, 10, 20, ...
//	s := NewSampler(SamplerConfig{Enabled: true, Rate: 10})
type SamplerConfig struct {
	// Enabled determines if sampling is active.
	Enabled bool

	// Rate checks one account in Rate. 0 and 1 both mean every account.
	Rate uint64
}

// Sampler selects the accounts the detector checks.
//
// Selection is by account index, not by access. Every event of a chosen
// account (reads, writes, guard acquire and release) must be seen, otherwise a
// skipped Acquire would leave a later access looking unordered.
type Sampler struct {
	config SamplerConfig
}

// NewSampler creates a Sampler. A rate of 0 is normalized to 1.
func NewSampler(config SamplerConfig) *Sampler {
	if config.Rate == 0 {
		config.Rate = 1
	}
	return &Sampler{config: config}
}

// Slot maps an account index to its shadow slot.
// It returns false when the account is not checked.
func (s *Sampler) Slot(account int) (int, bool) {
	if account < 0 {
		return 0, false
	}
	rate := s.GetEffectiveRate()
	if rate == 1 {
		return account, true
	}
	//nolint:gosec // G115: rate is a small positive sampling interval.
	r := int(rate)
	if account%r != 0 {
		return 0, false
	}
	return account / r, true
}

// Slots returns the number of shadow slots needed for n accounts.
func (s *Sampler) Slots(n int) int {
	if n <= 0 {
		return 0
	}
	//nolint:gosec // G115: see Slot.
	r := int(s.GetEffectiveRate())
	return (n + r - 1) / r
}

// GetConfig returns the sampling configuration.
func (s *Sampler) GetConfig() SamplerConfig {
	return s.config
}

// IsEnabled reports whether fewer than all accounts are checked.
func (s *Sampler) IsEnabled() bool {
	return s.config.Enabled && s.config.Rate > 1
}

// GetEffectiveRate returns the rate in use, 1 when sampling is disabled.
func (s *Sampler) GetEffectiveRate() uint64 {
	if !s.IsEnabled() {
		return 1
	}
	return s.config.Rate
}
