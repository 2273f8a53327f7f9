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

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/errors"
	"github.com/digitalbazaar/bedrock-resource-restriction/common/types"
	"github.com/digitalbazaar/bedrock-resource-restriction/persistence"
)

// AcquisitionStore is a mutex-guarded map-backed persistence.AcquisitionStore.
// The whole store is guarded by one lock, which makes ConditionalUpsert and
// ConditionalDelete trivially atomic: concurrent callers serialize on the
// lock rather than racing, and a "duplicate insert" race degenerates into
// an ordinary precondition mismatch for whichever caller loses, which the
// engine's retry loop already knows how to handle.
type AcquisitionStore struct {
	mu  sync.Mutex
	byID map[string]*types.AcquisitionRecord
}

// NewAcquisitionStore returns an empty AcquisitionStore.
func NewAcquisitionStore() *AcquisitionStore {
	return &AcquisitionStore{byID: make(map[string]*types.AcquisitionRecord)}
}

var _ persistence.AcquisitionStore = (*AcquisitionStore)(nil)

func (s *AcquisitionStore) Get(_ context.Context, acquirerID string) (*types.AcquisitionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[acquirerID]
	if !ok {
		return nil, errors.NotFound("acquisition record %q not found", acquirerID)
	}
	return cloneRecord(rec), nil
}

func (s *AcquisitionStore) ConditionalUpsert(_ context.Context, acquirerID string, priorTokenized, newTokenized []types.TokenizedGroup, ttl int64, expires time.Time, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[acquirerID]
	if !ok {
		if len(priorTokenized) > 0 {
			return errors.PreconditionMismatch("acquisition record %q no longer exists", acquirerID)
		}
		s.byID[acquirerID] = &types.AcquisitionRecord{
			AcquirerID: acquirerID,
			Tokenized:  newTokenized,
			TTL:        ttl,
			Expires:    expires,
			Meta:       &types.Meta{Created: now, Updated: now},
		}
		return nil
	}

	if persistence.SerializeTokenized(existing.Tokenized) != persistence.SerializeTokenized(priorTokenized) {
		return errors.PreconditionMismatch("acquisition record %q changed since it was read", acquirerID)
	}

	existing.Tokenized = newTokenized
	existing.TTL = ttl
	existing.Expires = expires
	existing.Meta.Updated = now
	return nil
}

func (s *AcquisitionStore) ConditionalDelete(_ context.Context, acquirerID string, priorTokenized []types.TokenizedGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[acquirerID]
	if !ok {
		return errors.PreconditionMismatch("acquisition record %q already absent", acquirerID)
	}
	if persistence.SerializeTokenized(existing.Tokenized) != persistence.SerializeTokenized(priorTokenized) {
		return errors.PreconditionMismatch("acquisition record %q changed since it was read", acquirerID)
	}
	delete(s.byID, acquirerID)
	return nil
}

func (s *AcquisitionStore) PruneExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, rec := range s.byID {
		if rec.Expires.Before(now) || rec.Expires.Equal(now) {
			delete(s.byID, id)
			pruned++
		}
	}
	return pruned, nil
}

func cloneRecord(rec *types.AcquisitionRecord) *types.AcquisitionRecord {
	out := *rec
	out.Tokenized = make([]types.TokenizedGroup, len(rec.Tokenized))
	for i, g := range rec.Tokenized {
		out.Tokenized[i] = g.Clone()
	}
	if rec.Meta != nil {
		meta := *rec.Meta
		out.Meta = &meta
	}
	return &out
}
