// The MIT License (MIT)

// Copyright (c) 2017-2020 Uber Technologies Inc.

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package restriction implements the admission-control decision engine:
// the public check/acquire/release operations, the restriction registry
// and matcher, and the built-in limit-over-duration policy. It composes
// package tokenizer (the per-request rotation/pruning helper) with
// package persistence (the record store) and package keys (the
// tokenizer key oracle).
package restriction

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/clock"
	"github.com/digitalbazaar/bedrock-resource-restriction/common/errors"
	"github.com/digitalbazaar/bedrock-resource-restriction/common/log"
	"github.com/digitalbazaar/bedrock-resource-restriction/common/types"
	"github.com/digitalbazaar/bedrock-resource-restriction/keys"
	"github.com/digitalbazaar/bedrock-resource-restriction/persistence"
	"github.com/digitalbazaar/bedrock-resource-restriction/restriction/tokenizer"
)

// Config carries the caller-supplied defaults the engine needs. Loading
// it from the hosting application's own configuration is out of scope
// for this package.
type Config struct {
	// AcquisitionTTL is the default retention, in milliseconds, used
	// when no matched policy returns its own ttl.
	AcquisitionTTL int64
}

// Engine implements the check/acquire/release operations.
type Engine struct {
	acquisitions persistence.AcquisitionStore
	matcher      *Matcher
	oracle       keys.Oracle
	clock        clock.TimeSource
	config       Config
	logger       log.Logger
}

// New constructs an Engine. logger may be nil (common/log.NewNoop is
// used); clk may be nil (clock.NewRealTimeSource is used).
func New(acquisitions persistence.AcquisitionStore, matcher *Matcher, oracle keys.Oracle, config Config, clk clock.TimeSource, logger log.Logger) *Engine {
	if clk == nil {
		clk = clock.NewRealTimeSource()
	}
	if logger == nil {
		logger = log.NewNoop()
	}
	return &Engine{
		acquisitions: acquisitions,
		matcher:      matcher,
		oracle:       oracle,
		clock:        clk,
		config:       config,
		logger:       logger,
	}
}

// checkOutcome is the engine-internal check result, carrying the
// bookkeeping acquire/release need beyond the public DecisionResult
// shape.
type checkOutcome struct {
	authorized         bool
	excessResources    map[string]int
	trackedResources   map[string]bool
	untrackedResources []string
	maxRestrictionTTL  int64
}

// Check reports whether request would be authorized without acquiring
// anything.
func (e *Engine) Check(ctx context.Context, acquirerID string, request []types.RequestItem, zones []string) (types.DecisionResult, error) {
	if err := validateRequest(acquirerID, request, true); err != nil {
		return types.DecisionResult{}, err
	}

	record, tz, err := e.loadAndProcess(ctx, acquirerID, request)
	if err != nil {
		return types.DecisionResult{}, err
	}
	_ = record

	outcome, err := e.check(ctx, acquirerID, request, zones, tz)
	if err != nil {
		return types.DecisionResult{}, err
	}
	return outcome.toResult(), nil
}

// check runs the matcher and fans a request out across the matched
// policies concurrently, minus the parts only acquire/release need
// (tokenizer has already been Process()'d by the caller).
func (e *Engine) check(ctx context.Context, acquirerID string, request []types.RequestItem, zones []string, tz *tokenizer.Tokenizer) (checkOutcome, error) {
	acquired := tz.GetUntokenizedAcquisitionMap()

	policies, err := e.matcher.match(ctx, request, zones)
	if err != nil {
		return checkOutcome{}, err
	}

	now := e.clock.Now()
	results := make([]types.PolicyResult, len(policies))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range policies {
		i, p := i, p
		g.Go(func() error {
			in := Input{
				AcquirerID:        acquirerID,
				Acquired:          acquired,
				Request:           request,
				Zones:             zones,
				Restriction:       p.restriction,
				Now:               now,
				GetAcquisitionMap: tz.GetAdditionalAcquisitionMap,
			}
			res, err := p.fn(gctx, in)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return checkOutcome{}, err
	}

	outcome := checkOutcome{
		authorized:        true,
		excessResources:   make(map[string]int),
		trackedResources:  make(map[string]bool),
		maxRestrictionTTL: 0,
	}
	for i, res := range results {
		r := policies[i].restriction
		tracked := res.TrackedResources
		if len(tracked) == 0 {
			tracked = []string{r.Resource}
		}
		for _, resource := range tracked {
			outcome.trackedResources[resource] = true
		}

		ttl := e.config.AcquisitionTTL
		if res.TTL != nil {
			ttl = *res.TTL
		}
		if ttl > outcome.maxRestrictionTTL {
			outcome.maxRestrictionTTL = ttl
		}

		if !res.Authorized {
			outcome.authorized = false
			if res.Excess > outcome.excessResources[r.Resource] {
				outcome.excessResources[r.Resource] = res.Excess
			}
		}
	}

	seen := make(map[string]bool, len(request))
	for _, item := range request {
		if seen[item.Resource] || outcome.trackedResources[item.Resource] {
			seen[item.Resource] = true
			continue
		}
		seen[item.Resource] = true
		outcome.untrackedResources = append(outcome.untrackedResources, item.Resource)
	}

	return outcome, nil
}

func (o checkOutcome) toResult() types.DecisionResult {
	return types.DecisionResult{
		Authorized:         o.authorized,
		ExcessResources:    toExcessList(o.excessResources),
		UntrackedResources: o.untrackedResources,
	}
}

// Acquire evaluates request and, if authorized (or forceAcquisition is
// set), persists the acquisition, retrying on a lost optimistic-write
// race.
func (e *Engine) Acquire(ctx context.Context, acquirerID string, request []types.RequestItem, zones []string, forceAcquisition bool) (types.DecisionResult, error) {
	if err := validateRequest(acquirerID, request, true); err != nil {
		return types.DecisionResult{}, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return types.DecisionResult{}, errors.Upstream(err)
		}

		record, tz, err := e.loadAndProcess(ctx, acquirerID, request)
		if err != nil {
			return types.DecisionResult{}, err
		}

		outcome, err := e.check(ctx, acquirerID, request, zones, tz)
		if err != nil {
			return types.DecisionResult{}, err
		}

		if !outcome.authorized && !forceAcquisition {
			return outcome.toResult(), nil
		}
		if len(outcome.trackedResources) == 0 {
			return outcome.toResult(), nil
		}

		now := e.clock.Now()
		applied := tz.ApplyAcquireRequest(outcome.trackedResources, outcome.maxRestrictionTTL, now)

		priorTokenized := priorGroups(record)
		if !applied.HasItems && priorTokenized == nil {
			// nothing persisted, nothing to persist: no write needed.
			return outcome.toResult(), nil
		}

		var writeErr error
		if !applied.HasItems {
			writeErr = e.acquisitions.ConditionalDelete(ctx, acquirerID, priorTokenized)
		} else {
			writeErr = e.acquisitions.ConditionalUpsert(ctx, acquirerID, priorTokenized, applied.NewTokenized, applied.TTL, applied.Expires, now)
		}

		if writeErr == nil {
			return outcome.toResult(), nil
		}
		if !isRecoverable(writeErr) {
			return types.DecisionResult{}, writeErr
		}
		e.logger.Debug("acquire: optimistic write lost the race, retrying", zap.String("acquirerId", acquirerID), zap.Error(writeErr))
	}
}

// Release consumes acquired counts to satisfy request, retrying on a
// lost optimistic-write race.
func (e *Engine) Release(ctx context.Context, acquirerID string, request []types.RequestItem) (types.ReleaseResult, error) {
	if err := validateRequest(acquirerID, request, false); err != nil {
		return types.ReleaseResult{}, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return types.ReleaseResult{}, errors.Upstream(err)
		}

		record, tz, err := e.loadAndProcess(ctx, acquirerID, request)
		if err != nil {
			return types.ReleaseResult{}, err
		}

		if !record.IsPersisted() {
			excess := make(map[string]int)
			for _, item := range request {
				excess[item.Resource] += item.Count
			}
			return types.ReleaseResult{Authorized: true, ExcessResources: toExcessList(excess)}, nil
		}

		applied := tz.ApplyReleaseRequest()
		priorTokenized := priorGroups(record)

		var writeErr error
		if !applied.HasItems {
			writeErr = e.acquisitions.ConditionalDelete(ctx, acquirerID, priorTokenized)
		} else {
			writeErr = e.acquisitions.ConditionalUpsert(ctx, acquirerID, priorTokenized, applied.NewTokenized, applied.TTL, applied.Expires, e.clock.Now())
		}

		if writeErr == nil {
			return types.ReleaseResult{
				Authorized:      true,
				ExcessResources: toExcessList(applied.ExcessResources),
				Expires:         applied.Expires,
			}, nil
		}
		if !isRecoverable(writeErr) {
			return types.ReleaseResult{}, writeErr
		}
		e.logger.Debug("release: optimistic write lost the race, retrying", zap.String("acquirerId", acquirerID), zap.Error(writeErr))
	}
}

// loadAndProcess runs the shared preamble for all three operations:
// read the record, build a tokenizer, and Process it.
func (e *Engine) loadAndProcess(ctx context.Context, acquirerID string, request []types.RequestItem) (*types.AcquisitionRecord, *tokenizer.Tokenizer, error) {
	now := e.clock.Now()

	record, err := e.acquisitions.Get(ctx, acquirerID)
	if err != nil {
		if !errors.IsNotFound(err) {
			return nil, nil, err
		}
		record = nil // synthesized default: tokenizer.Process treats nil the same as an unpersisted record
	}

	tz := tokenizer.New(acquirerID, request, e.oracle)
	if err := tz.Process(ctx, record, now); err != nil {
		return nil, nil, err
	}

	if record == nil {
		record = &types.AcquisitionRecord{AcquirerID: acquirerID}
	}
	return record, tz, nil
}

func priorGroups(record *types.AcquisitionRecord) []types.TokenizedGroup {
	if record == nil || !record.IsPersisted() {
		return nil
	}
	return record.Tokenized
}

// isRecoverable reports whether writeErr should trigger a read-retry
// rather than propagate to the caller: duplicate-on-insert and
// precondition mismatch are both recovered, since either means another
// writer raced us.
func isRecoverable(err error) bool {
	return errors.IsPreconditionMismatch(err) || errors.IsDuplicate(err)
}

func toExcessList(m map[string]int) []types.ExcessResource {
	if len(m) == 0 {
		return nil
	}
	out := make([]types.ExcessResource, 0, len(m))
	for resource, count := range m {
		out = append(out, types.ExcessResource{Resource: resource, Count: count})
	}
	return out
}

func validateRequest(acquirerID string, request []types.RequestItem, requireRequested bool) error {
	if acquirerID == "" {
		return errors.InputValidation("acquirerId (string) is required")
	}
	for _, item := range request {
		if item.Count <= 0 {
			return errors.InputValidation("request item for resource %q: count must be a positive integer", item.Resource)
		}
		if requireRequested && item.Requested == 0 {
			return errors.InputValidation("request item for resource %q: requested is required", item.Resource)
		}
	}
	return nil
}
