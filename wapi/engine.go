// Package wapi drives update cycles: it takes the resolved addresses,
// works out which managed records are stale, and brings them current
// through their provider accounts.
package wapi

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"go.uber.org/zap"

	"wapi/backoff"
	"wapi/log"
	"wapi/providers"
	"wapi/store"
)

type Options struct {
	// Workers bounds how many records update concurrently. Records on the
	// same account still serialize against each other at the client.
	Workers int
	// MaxAttempts bounds provider calls per record per cycle.
	MaxAttempts int
	// CallTimeout bounds one provider call, including its internal fetch.
	CallTimeout time.Duration
	// RetryInitial and RetryMax shape the backoff between attempts.
	RetryInitial time.Duration
	RetryMax     time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 10 * time.Second
	}
	if o.RetryInitial <= 0 {
		o.RetryInitial = 500 * time.Millisecond
	}
	if o.RetryMax <= 0 {
		o.RetryMax = 30 * time.Second
	}
	return o
}

// Engine runs update cycles over a fixed set of managed records.
type Engine struct {
	registry *providers.Registry
	cache    store.Interface
	records  []ManagedRecord
	opts     Options
}

func New(registry *providers.Registry, cache store.Interface, records []ManagedRecord, opts Options) *Engine {
	return &Engine{
		registry: registry,
		cache:    cache,
		records:  records,
		opts:     opts.withDefaults(),
	}
}

// Run executes one cycle against the given resolved addresses. Every record
// is attempted in isolation: one record's failure never blocks another's
// update, and the report always covers all of them.
func (e *Engine) Run(ctx context.Context, addrs map[string]netip.Addr) Report {
	begin := time.Now()
	elapsed := log.Elapsed("elapsed")
	ctx = log.SWith(ctx, log.Stage("update"))

	results := make([]Result, len(e.records))
	workers := newPool(e.opts.Workers)
	for i := range e.records {
		i := i
		rec := e.records[i]
		if err := workers.submit(ctx, func() {
			results[i] = e.updateRecord(ctx, rec, addrs)
		}); err != nil {
			results[i] = Result{Record: rec, Status: StatusFailed, Err: err}
		}
	}
	workers.wait()

	report := Report{Results: results, Elapsed: time.Since(begin)}
	s := report.Summarize()
	log.S(ctx).Infow("cycle finished",
		"updated", s.Updated, "unchanged", s.Unchanged, "skipped", s.Skipped, "failed", s.Failed,
		elapsed)
	return report
}

func (e *Engine) updateRecord(ctx context.Context, rec ManagedRecord, addrs map[string]netip.Addr) Result {
	ctx = log.SWith(ctx, "domain", rec.Domain, "ns_type", rec.Type, "account", rec.Account)

	addr, ok := addrs[rec.Address]
	if !ok {
		log.S(ctx).Warnw("address not resolved, cannot update record", "address", rec.Address)
		return Result{Record: rec, Status: StatusFailed,
			Err: fmt.Errorf("address %q was not resolved", rec.Address)}
	}

	if !rec.Type.Matches(addr) {
		err := &providers.Error{
			Kind:     providers.KindUnsupported,
			Provider: rec.Account,
			Op:       "update",
			Err:      fmt.Errorf("%s record cannot hold address %s", rec.Type, addr),
		}
		log.S(ctx).Errorw("address family does not match record type", log.IP(addr))
		return Result{Record: rec, Status: StatusFailed, Err: err}
	}
	value := addr.String()

	key := rec.key()
	if cached, found, err := e.cache.Get(key); err != nil {
		// A broken cache only costs provider round trips; treat as a miss.
		log.S(ctx).Warnw("cache read failed", zap.Error(err))
	} else if found && cached.Address == value {
		log.S(ctx).Debugw("address didn't change, skip update", log.IP(addr))
		return Result{Record: rec, Status: StatusSkipped}
	}

	client, err := e.registry.Client(rec.Account)
	if err != nil {
		log.S(ctx).Errorw("no usable provider for record", zap.Error(err))
		return Result{Record: rec, Status: StatusFailed, Err: err}
	}

	outcome, attempts, err := e.attempt(ctx, client, rec.providerRecord(), value)
	if err != nil {
		return Result{Record: rec, Status: StatusFailed, Attempts: attempts, Err: err}
	}

	// Only confirmed state enters the cache. The provider acknowledged
	// value just now, so a commit failure is not an update failure.
	if err := e.cache.Commit(key, store.Entry{Address: value, UpdatedAt: time.Now()}); err != nil {
		log.S(ctx).Warnw("cache commit failed", zap.Error(err))
	}

	status := StatusUpdated
	switch outcome {
	case providers.Unchanged:
		status = StatusUnchanged
		log.S(ctx).Infow("record already current", log.IP(addr), "attempts", attempts)
	default:
		log.S(ctx).Infow("record updated", log.IP(addr), "outcome", outcome.String(), "attempts", attempts)
	}
	return Result{Record: rec, Status: status, Outcome: outcome, Attempts: attempts}
}

// attempt drives the retry loop for one record. Only transient failures
// are retried, the provider's own wait hint stretches the backoff, and
// cancellation ends the loop without a result.
func (e *Engine) attempt(ctx context.Context, client *providers.Client, r providers.Record, value string) (providers.Outcome, int, error) {
	wait := backoff.New(backoff.Config{
		Initial:    e.opts.RetryInitial,
		Max:        e.opts.RetryMax,
		Multiplier: 2,
		Jitter:     0.2,
	})

	for attempt := 1; ; attempt++ {
		outcome, err := e.updateOnce(ctx, client, r, value)
		if err == nil {
			return outcome, attempt, nil
		}

		if providers.IsNotFound(err) && !client.Capabilities().CanCreate {
			err = &providers.Error{
				Kind:     providers.KindUnsupported,
				Provider: client.Provider(),
				Op:       "update",
				Err:      errors.New("record does not exist and provider cannot create records"),
			}
			log.S(ctx).Errorw("update failed", "attempt", attempt, zap.Error(err))
			return providers.Unchanged, attempt, err
		}
		if !providers.IsRetryable(err) {
			log.S(ctx).Errorw("update failed", "attempt", attempt, zap.Error(err))
			return providers.Unchanged, attempt, err
		}
		if attempt >= e.opts.MaxAttempts {
			log.S(ctx).Errorw("update failed, attempts exhausted", "attempts", attempt, zap.Error(err))
			return providers.Unchanged, attempt, err
		}

		delay := wait.NextAfter(providers.HintedBackoff(err))
		log.S(ctx).Warnw("update failed, will retry", "attempt", attempt, "delay", delay, zap.Error(err))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return providers.Unchanged, attempt, fmt.Errorf("retry abandoned: %w", ctx.Err())
		}
	}
}

func (e *Engine) updateOnce(ctx context.Context, client *providers.Client, r providers.Record, value string) (providers.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()
	return client.Update(ctx, r, value)
}
