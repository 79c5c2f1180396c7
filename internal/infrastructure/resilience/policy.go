package resilience

import "time"

// Policy bounds how hard the executor leans on a failing collaborator.
// The zero value is unusable; start from DefaultPolicy.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration

	BreakerDisabled bool
	MinCalls        uint32
	FailureRatio    float64
	Cooldown        time.Duration
	HalfOpenCalls   uint32
}

// DefaultPolicy is tuned for slow HTTP collaborators (model inference, OCR):
// few attempts, with delays long enough to ride out a transient 5xx without
// stacking up page workers behind the rate limiter.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 250 * time.Millisecond,
		MaxDelay:  2 * time.Second,

		MinCalls:      8,
		FailureRatio:  0.6,
		Cooldown:      20 * time.Second,
		HalfOpenCalls: 1,
	}
}

func (p Policy) sanitized() Policy {
	def := DefaultPolicy()
	if p.Attempts <= 0 {
		p.Attempts = def.Attempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.MinCalls == 0 {
		p.MinCalls = def.MinCalls
	}
	if p.FailureRatio <= 0 || p.FailureRatio > 1 {
		p.FailureRatio = def.FailureRatio
	}
	if p.Cooldown <= 0 {
		p.Cooldown = def.Cooldown
	}
	if p.HalfOpenCalls == 0 {
		p.HalfOpenCalls = def.HalfOpenCalls
	}
	return p
}

// delayFor doubles the base delay per completed attempt, capped at MaxDelay.
func (p Policy) delayFor(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		if delay >= p.MaxDelay/2 {
			return p.MaxDelay
		}
		delay *= 2
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}
