package policies

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultInitialBackoff      = 30 * time.Second
	DefaultMaxBackoff          = 1 * time.Hour
	DefaultCatastrophicBackoff = 5 * time.Minute

	maxFailureReasonRunes = 1000
)

// RetryPolicy schedules the next run_at of a failed queue item. Logical
// per-item rejections back off exponentially; catastrophic batch failures use
// a fixed delay.
type RetryPolicy struct {
	InitialBackoff      time.Duration
	MaxBackoff          time.Duration
	CatastrophicBackoff time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialBackoff:      DefaultInitialBackoff,
		MaxBackoff:          DefaultMaxBackoff,
		CatastrophicBackoff: DefaultCatastrophicBackoff,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = DefaultInitialBackoff
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	if p.CatastrophicBackoff <= 0 {
		p.CatastrophicBackoff = DefaultCatastrophicBackoff
	}
	return p
}

// NextAttemptAt returns when an item that has now failed `attempts` times
// becomes claimable again.
func (p RetryPolicy) NextAttemptAt(attempts int, now time.Time) time.Time {
	return now.Add(p.Backoff(attempts))
}

func (p RetryPolicy) Backoff(attempts int) time.Duration {
	policy := p.normalized()
	if attempts <= 1 {
		return policy.InitialBackoff
	}

	backoff := policy.InitialBackoff
	for i := 1; i < attempts; i++ {
		if backoff >= policy.MaxBackoff {
			return policy.MaxBackoff
		}
		backoff *= 2
		if backoff > policy.MaxBackoff {
			return policy.MaxBackoff
		}
	}

	return backoff
}

func (p RetryPolicy) CatastrophicRetryAt(now time.Time) time.Time {
	return now.Add(p.normalized().CatastrophicBackoff)
}

func IsExhausted(retryCount int, maxAttempts int) bool {
	return retryCount >= maxAttempts
}

// TruncateFailureReason bounds a failure reason to what the failed_reason
// column is expected to hold without splitting a multi-byte rune.
func TruncateFailureReason(reason string) string {
	trimmed := strings.TrimSpace(reason)
	if utf8.RuneCountInString(trimmed) <= maxFailureReasonRunes {
		return trimmed
	}
	runes := []rune(trimmed)
	return string(runes[:maxFailureReasonRunes-3]) + "..."
}
