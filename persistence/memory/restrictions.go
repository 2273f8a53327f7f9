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

// Package memory is an in-memory reference implementation of the two
// persistence.* stores, exercising the same conditional-write and
// TTL-expiry semantics a real store is required to provide. It backs the
// tests and the cmd/restrictionctl demo; it is not meant for production
// use (no durability, no real secondary indexes).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/errors"
	"github.com/digitalbazaar/bedrock-resource-restriction/common/types"
	"github.com/digitalbazaar/bedrock-resource-restriction/persistence"
)

// RestrictionStore is a mutex-guarded map-backed persistence.RestrictionStore.
type RestrictionStore struct {
	mu   sync.RWMutex
	byID map[string]types.Restriction
}

func nowMeta() types.Meta {
	now := time.Now()
	return types.Meta{Created: now, Updated: now}
}

// NewRestrictionStore returns an empty RestrictionStore.
func NewRestrictionStore() *RestrictionStore {
	return &RestrictionStore{byID: make(map[string]types.Restriction)}
}

var _ persistence.RestrictionStore = (*RestrictionStore)(nil)

func (s *RestrictionStore) Insert(_ context.Context, r types.Restriction) (types.Restriction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(r)
}

func (s *RestrictionStore) insertLocked(r types.Restriction) (types.Restriction, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if _, exists := s.byID[r.ID]; exists {
		return types.Restriction{}, errors.Duplicate("restriction id %q already exists", r.ID)
	}
	now := nowMeta()
	r.Meta = &now
	s.byID[r.ID] = r
	return r, nil
}

func (s *RestrictionStore) BulkInsert(_ context.Context, rs []types.Restriction) ([]types.Restriction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(rs))
	for _, r := range rs {
		id := r.ID
		if id == "" {
			continue
		}
		if _, exists := s.byID[id]; exists {
			return nil, errors.Duplicate("restriction id %q already exists", id)
		}
		if _, dup := seen[id]; dup {
			return nil, errors.Duplicate("restriction id %q already exists", id)
		}
		seen[id] = struct{}{}
	}

	out := make([]types.Restriction, 0, len(rs))
	for _, r := range rs {
		inserted, err := s.insertLocked(r)
		if err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

func (s *RestrictionStore) Update(_ context.Context, r types.Restriction) (types.Restriction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[r.ID]
	if !ok {
		return types.Restriction{}, errors.NotFound("restriction %q not found", r.ID)
	}
	meta := *existing.Meta
	meta.Updated = nowMeta().Updated
	r.Meta = &meta
	s.byID[r.ID] = r
	return r, nil
}

func (s *RestrictionStore) Get(_ context.Context, id string) (types.Restriction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return types.Restriction{}, errors.NotFound("restriction %q not found", id)
	}
	return r, nil
}

func (s *RestrictionStore) GetAll(_ context.Context, query persistence.RestrictionQuery, limit, offset int) ([]types.Restriction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]types.Restriction, 0, len(s.byID))
	for _, r := range s.byID {
		if query.Zone != "" && r.Zone != query.Zone {
			continue
		}
		if query.Resource != "" && r.Resource != query.Resource {
			continue
		}
		matched = append(matched, r)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	if offset >= len(matched) {
		return []types.Restriction{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *RestrictionStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return errors.NotFound("restriction %q not found", id)
	}
	delete(s.byID, id)
	return nil
}

func (s *RestrictionStore) RemoveAll(_ context.Context, zone, resource string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.byID {
		if r.Zone == zone && r.Resource == resource {
			delete(s.byID, id)
		}
	}
	return nil
}

func (s *RestrictionStore) FindMatching(_ context.Context, zones, resources []string) ([]types.Restriction, error) {
	zoneSet := toSet(zones)
	resourceSet := toSet(resources)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Restriction
	for _, r := range s.byID {
		if _, ok := zoneSet[r.Zone]; !ok {
			continue
		}
		if _, ok := resourceSet[r.Resource]; !ok {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func toSet(vals []string) map[string]struct{} {
	set := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		set[v] = struct{}{}
	}
	return set
}
