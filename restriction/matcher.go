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

package restriction

import (
	"context"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/types"
	"github.com/digitalbazaar/bedrock-resource-restriction/persistence"
)

// Matcher loads and instantiates policies matching a request.
type Matcher struct {
	store    persistence.RestrictionStore
	registry *Registry
}

// NewMatcher builds a Matcher over store, resolving methods via registry.
func NewMatcher(store persistence.RestrictionStore, registry *Registry) *Matcher {
	return &Matcher{store: store, registry: registry}
}

// match queries for restrictions whose zone is in zones and whose
// resource is named by request, and resolves each to its registered Func.
// Order is unspecified; callers must not depend on it.
func (m *Matcher) match(ctx context.Context, request []types.RequestItem, zones []string) ([]policy, error) {
	resources := make([]string, 0, len(request))
	seen := make(map[string]bool, len(request))
	for _, item := range request {
		if seen[item.Resource] {
			continue
		}
		seen[item.Resource] = true
		resources = append(resources, item.Resource)
	}

	restrictions, err := m.store.FindMatching(ctx, zones, resources)
	if err != nil {
		return nil, err
	}

	policies := make([]policy, 0, len(restrictions))
	for _, r := range restrictions {
		fn, err := m.registry.Lookup(r.Method)
		if err != nil {
			return nil, err
		}
		policies = append(policies, policy{restriction: r, fn: fn})
	}
	return policies, nil
}
