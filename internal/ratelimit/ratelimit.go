// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit spaces out requests to a single external endpoint.
//
// A Limiter is shared by every worker that talks to the endpoint. Wait
// checks the time since the previous request, sleeps if it is too recent,
// and stamps the new request time, all under one lock, so two workers can
// never both pass the gate inside the same interval.
package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Limiter enforces a minimum interval plus random jitter between
// consecutive requests.
type Limiter struct {
	interval  time.Duration
	jitterMin time.Duration
	jitterMax time.Duration

	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
	jitter func(lo, hi time.Duration) time.Duration

	mu   sync.Mutex
	last time.Time
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock and sleep function. Tests use it to
// observe waits without sleeping.
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) Option {
	return func(l *Limiter) {
		l.now = now
		l.sleep = sleep
	}
}

// WithJitter replaces the jitter source.
func WithJitter(fn func(lo, hi time.Duration) time.Duration) Option {
	return func(l *Limiter) { l.jitter = fn }
}

// New returns a Limiter that keeps requests at least interval apart and
// adds a delay drawn from [jitterMin, jitterMax] whenever it has to wait.
func New(interval, jitterMin, jitterMax time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		interval:  interval,
		jitterMin: jitterMin,
		jitterMax: jitterMax,
		now:       time.Now,
		sleep:     sleepContext,
		jitter:    uniform,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Wait blocks until the caller may issue a request, then records the
// request time. It returns ctx.Err() if ctx ends while waiting; the
// request time is not stamped in that case.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.last.IsZero() {
		if elapsed := l.now().Sub(l.last); elapsed < l.interval {
			d := l.interval - elapsed + l.jitter(l.jitterMin, l.jitterMax)
			if err := l.sleep(ctx, d); err != nil {
				return err
			}
		}
	}
	l.last = l.now()
	return nil
}

// Last returns the time of the most recent stamped request.
func (l *Limiter) Last() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

func uniform(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
