package limiter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/parleykit/parley/logging"
)

const (
	// window is the trailing interval over which budgets apply.
	window = 60 * time.Second
	// maxBackoff caps the cooldown applied after provider overload.
	maxBackoff = 60 * time.Second
	// maxWindowEntries bounds per-provider memory regardless of traffic.
	maxWindowEntries = 512
)

// ErrAcquireAborted is returned when the context is canceled while waiting
// for budget.
var ErrAcquireAborted = errors.New("rate limit acquisition aborted")

// ErrorKind classifies a provider error reported via RecordError.
type ErrorKind string

const (
	// KindRateLimit marks quota rejections; triggers backoff.
	KindRateLimit ErrorKind = "rate_limit"
	// KindOverloaded marks capacity rejections; triggers backoff.
	KindOverloaded ErrorKind = "overloaded"
	// KindOther marks errors that do not affect pacing.
	KindOther ErrorKind = "other"
)

// requestRecord is one remembered request in the sliding window.
type requestRecord struct {
	at       time.Time
	tokens   int
	duration time.Duration
}

// providerState is the pacing state for a single provider. Its mutex
// serializes all pacing decisions for that provider while leaving other
// providers free to proceed.
type providerState struct {
	mu           sync.Mutex
	lastRequest  time.Time
	window       []requestRecord
	backoffUntil time.Time
}

// Status is a read-only snapshot of one provider's pacing state.
type Status struct {
	Provider          string
	RequestsInWindow  int
	TokensInWindow    int
	RequestsPerMinute int
	TokensPerMinute   int
	BackoffUntil      time.Time
	LastRequest       time.Time
	Local             bool
}

// Options configures a Limiter.
type Options struct {
	// Disabled short-circuits every acquisition to a zero wait.
	Disabled bool
	// SafetyMargin scales the token budget; the limiter never knowingly
	// admits more than SafetyMargin × TokensPerMinute tokens in any trailing
	// 60-second window.
	SafetyMargin float64
	// Capabilities overrides the built-in per-provider budget table.
	Capabilities map[string]Capability
	// Logger receives pacing decisions at debug level.
	Logger logging.Logger

	// Now and Sleep are injectable for deterministic tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Limiter paces outbound calls per provider. Safe for concurrent use across
// conversations; state for different providers is independently locked.
type Limiter struct {
	disabled     bool
	safetyMargin float64
	caps         map[string]Capability
	logger       logging.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu        sync.Mutex
	providers map[string]*providerState
}

// New constructs a Limiter with optional overrides.
func New(optFns ...func(o *Options)) *Limiter {
	opts := Options{
		SafetyMargin: 0.9,
		Capabilities: defaultCapabilities(),
		Logger:       logging.NoOpLogger{},
		Now:          time.Now,
		Sleep:        sleepContext,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.SafetyMargin <= 0 || opts.SafetyMargin > 1 {
		opts.SafetyMargin = 0.9
	}
	if opts.Capabilities == nil {
		opts.Capabilities = defaultCapabilities()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Limiter{
		disabled:     opts.Disabled,
		safetyMargin: opts.SafetyMargin,
		caps:         opts.Capabilities,
		logger:       opts.Logger,
		now:          opts.Now,
		sleep:        opts.Sleep,
		providers:    make(map[string]*providerState),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// capability resolves a provider's budgets, falling back to the generic
// default row for unknown providers.
func (l *Limiter) capability(provider string) Capability {
	if c, ok := l.caps[provider]; ok {
		return c
	}
	return l.caps[DefaultProviderKey]
}

func (l *Limiter) state(provider string) *providerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.providers[provider]
	if !ok {
		st = &providerState{}
		l.providers[provider] = st
	}
	return st
}

// prune drops window entries older than the trailing window. Caller holds
// st.mu.
func prune(st *providerState, now time.Time) {
	cutoff := now.Add(-window)
	i := 0
	for ; i < len(st.window); i++ {
		if st.window[i].at.After(cutoff) {
			break
		}
	}
	if i > 0 {
		st.window = append(st.window[:0], st.window[i:]...)
	}
	if len(st.window) > maxWindowEntries {
		st.window = append(st.window[:0], st.window[len(st.window)-maxWindowEntries:]...)
	}
}

func windowTokens(st *providerState) int {
	total := 0
	for _, r := range st.window {
		total += r.tokens
	}
	return total
}

// Acquire blocks until a request to the provider fits under its budgets and
// returns how long it waited. An active backoff is honored first, then the
// larger of the request-spacing wait and the token-budget wait. The context
// aborts any sleep with ErrAcquireAborted.
func (l *Limiter) Acquire(ctx context.Context, provider string, estimatedTokens int) (time.Duration, error) {
	capb := l.capability(provider)
	if l.disabled || capb.Local {
		return 0, nil
	}

	st := l.state(provider)
	st.mu.Lock()
	defer st.mu.Unlock()

	var waited time.Duration

	// sleepLocked releases the lock, so the window and backoff may have moved
	// by the time a sleep returns. Admit only on an iteration that needed no
	// wait at all; otherwise recompute from the current state.
	for {
		now := l.now()

		if st.backoffUntil.After(now) {
			d := st.backoffUntil.Sub(now)
			if err := l.sleepLocked(ctx, st, d); err != nil {
				return waited, err
			}
			waited += d
			if !st.backoffUntil.After(l.now()) {
				st.backoffUntil = time.Time{}
			}
			continue
		}

		prune(st, now)

		var spacingWait time.Duration
		if capb.RequestsPerMinute > 0 && !st.lastRequest.IsZero() {
			interval := window / time.Duration(capb.RequestsPerMinute)
			if since := now.Sub(st.lastRequest); since < interval {
				spacingWait = interval - since
			}
		}

		tokenWait := tokenBudgetWait(st, now, estimatedTokens, capb.TokensPerMinute, l.safetyMargin)

		wait := spacingWait
		if tokenWait > wait {
			wait = tokenWait
		}
		if wait <= 0 {
			st.lastRequest = now
			st.window = append(st.window, requestRecord{at: now, tokens: estimatedTokens})
			return waited, nil
		}

		l.logger.Debug("rate limit wait", "provider", provider, "wait", wait, "spacing", spacingWait, "tokens", tokenWait)
		if err := l.sleepLocked(ctx, st, wait); err != nil {
			return waited, err
		}
		waited += wait
	}
}

// sleepLocked releases the provider lock for the duration of the sleep so
// RecordError/GetStatus are not starved, then reacquires it.
func (l *Limiter) sleepLocked(ctx context.Context, st *providerState, d time.Duration) error {
	st.mu.Unlock()
	err := l.sleep(ctx, d)
	st.mu.Lock()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAcquireAborted, err)
	}
	return nil
}

// tokenBudgetWait computes how long the caller must wait so that the tokens
// in the trailing window plus the new estimate fit under margin × budget.
// Caller holds st.mu and has pruned the window.
func tokenBudgetWait(st *providerState, now time.Time, estimated, tokensPerMinute int, margin float64) time.Duration {
	if tokensPerMinute <= 0 {
		return 0
	}
	budget := int(float64(tokensPerMinute) * margin)
	used := windowTokens(st)
	if used+estimated <= budget {
		return 0
	}

	// Walk the window oldest-first until enough tokens age out.
	freed := 0
	for _, r := range st.window {
		freed += r.tokens
		if used-freed+estimated <= budget {
			return r.at.Add(window).Sub(now)
		}
	}
	// Even an empty window cannot absorb the estimate; wait for it to clear
	// entirely rather than refusing.
	if len(st.window) > 0 {
		return st.window[len(st.window)-1].at.Add(window).Sub(now)
	}
	return 0
}

// RecordComplete overwrites the most recent window entry's estimated token
// count and duration with ground truth so future window math is accurate.
func (l *Limiter) RecordComplete(provider string, actualTokens int, actualDuration time.Duration) {
	st := l.state(provider)
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.window) == 0 {
		return
	}
	last := &st.window[len(st.window)-1]
	last.tokens = actualTokens
	last.duration = actualDuration
}

// RecordError reacts to a provider-reported failure. Rate-limit and overload
// kinds start a cooldown that scales with recent request pressure:
// min(60, 2 × requests in the last 60s) seconds, with a 2s floor when the
// window is empty.
func (l *Limiter) RecordError(provider string, kind ErrorKind) {
	if kind != KindRateLimit && kind != KindOverloaded {
		return
	}
	st := l.state(provider)
	st.mu.Lock()
	defer st.mu.Unlock()

	now := l.now()
	prune(st, now)

	backoff := time.Duration(2*len(st.window)) * time.Second
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	st.backoffUntil = now.Add(backoff)
	l.logger.Warn("provider backoff", "provider", provider, "kind", string(kind), "backoff", backoff)
}

// GetStatus returns a read-only snapshot of the provider's pacing state.
func (l *Limiter) GetStatus(provider string) Status {
	capb := l.capability(provider)
	st := l.state(provider)
	st.mu.Lock()
	defer st.mu.Unlock()

	prune(st, l.now())
	return Status{
		Provider:          provider,
		RequestsInWindow:  len(st.window),
		TokensInWindow:    windowTokens(st),
		RequestsPerMinute: capb.RequestsPerMinute,
		TokensPerMinute:   capb.TokensPerMinute,
		BackoffUntil:      st.backoffUntil,
		LastRequest:       st.lastRequest,
		Local:             capb.Local,
	}
}
