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

package keys

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/time/rate"
)

// CachingOracle wraps an Oracle and throttles how often it is willing to
// ask the wrapped Oracle for the current key id, since GetCurrent is an
// I/O suspension point that is otherwise called on every request. Signer
// lookups for already-seen key ids are cached forever,
// since a key's signature behavior never changes for its lifetime.
//
// refreshRate bounds calls to the wrapped Oracle's GetCurrent the same
// way loadbalanced/limiter throttles per-key usage reporting: a
// golang.org/x/time/rate.Limiter admits a refresh, and callers in between
// get the last-known value.
type CachingOracle struct {
	wrapped     Oracle
	refreshRate *rate.Limiter

	mu         sync.RWMutex
	currentID  string
	haveCached bool
	signers    map[string]Signer

	generation atomic.Uint64 // bumped every successful refresh, observable by tests
}

// NewCachingOracle wraps oracle, allowing at most one GetCurrent refresh
// per minInterval (bursts of 1: refreshes are never batched).
func NewCachingOracle(oracle Oracle, minInterval time.Duration) *CachingOracle {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &CachingOracle{
		wrapped:     oracle,
		refreshRate: rate.NewLimiter(limit, 1),
		signers:     make(map[string]Signer),
	}
}

// Generation returns how many times GetCurrent has actually hit the
// wrapped Oracle. Exposed for tests that need to assert throttling.
func (c *CachingOracle) Generation() uint64 {
	return c.generation.Load()
}

func (c *CachingOracle) GetCurrent(ctx context.Context) (string, error) {
	c.mu.RLock()
	cachedID, have := c.currentID, c.haveCached
	c.mu.RUnlock()

	// the first fetch also takes the limiter's token, so the next refresh
	// is admitted only after minInterval.
	allowed := c.refreshRate.Allow()
	if have && !allowed {
		return cachedID, nil
	}

	id, err := c.wrapped.GetCurrent(ctx)
	if err != nil {
		if have {
			// degrade to the last-known-good id rather than failing a
			// request outright over a transient oracle hiccup.
			return cachedID, nil
		}
		return "", err
	}

	c.mu.Lock()
	c.currentID = id
	c.haveCached = true
	c.mu.Unlock()
	c.generation.Add(1)
	return id, nil
}

func (c *CachingOracle) Get(ctx context.Context, keyID string) (Signer, error) {
	c.mu.RLock()
	signer, ok := c.signers[keyID]
	c.mu.RUnlock()
	if ok {
		return signer, nil
	}

	signer, err := c.wrapped.Get(ctx, keyID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.signers[keyID] = signer
	c.mu.Unlock()
	return signer, nil
}

var _ Oracle = (*CachingOracle)(nil)
