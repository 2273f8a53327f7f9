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

// Package types holds the plain value types shared across this module:
// the persisted restriction and acquisition record shapes, request/result
// shapes, and nothing else. Behavior lives in the packages that consume
// these types, not here.
package types

import "time"

// Meta records creation/update timestamps. Its absence on an
// AcquisitionRecord marks the record as a synthesized default that has
// never been persisted.
type Meta struct {
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// Restriction is a policy definition: it applies to requests naming
// Resource when Zone is among the caller's zones, and is enforced by the
// registered Method with MethodOptions as its configuration.
type Restriction struct {
	ID             string         `json:"id"`
	Zone           string         `json:"zone"`
	Resource       string         `json:"resource"`
	Method         string         `json:"method"`
	MethodOptions  map[string]any `json:"methodOptions,omitempty"`
	Meta           *Meta          `json:"meta,omitempty"`
}

// RequestItem is one line of a check/acquire/release request.
type RequestItem struct {
	Resource string `json:"resource"`
	Count    int    `json:"count"`
	// Requested is an absolute millisecond timestamp. Required for
	// check/acquire; optional for release (zero means "unspecified").
	Requested int64 `json:"requested"`
	// Latest chooses which stored acquisitions a release consumes:
	// false (default) consumes from the earliest Requested first, true
	// consumes from the latest first. Meaningful only for release.
	Latest bool `json:"latest,omitempty"`
}

// AcquisitionItem is one recorded acquire event for a single tokenized
// resource: a count acquired at a point in time.
type AcquisitionItem struct {
	Count     int   `json:"count"`
	Requested int64 `json:"requested"`
}

// AcquisitionList is an ordered sequence of AcquisitionItem, sorted by
// Requested ascending. Multiple items may share a Requested value.
type AcquisitionList []AcquisitionItem

// TotalCount sums Count across the list.
func (l AcquisitionList) TotalCount() int {
	total := 0
	for _, item := range l {
		total += item.Count
	}
	return total
}

// Clone returns a shallow copy safe for independent mutation of the slice
// header (append/truncate) without aliasing the original.
func (l AcquisitionList) Clone() AcquisitionList {
	if l == nil {
		return nil
	}
	out := make(AcquisitionList, len(l))
	copy(out, l)
	return out
}

// TokenizedGroup is a {tokenizerId, resources} block within an
// AcquisitionRecord, corresponding to one key generation. Resources maps
// an opaque token (never the plaintext resource id) to its acquisition
// history.
type TokenizedGroup struct {
	TokenizerID string                     `json:"tokenizerId"`
	Resources   map[string]AcquisitionList `json:"resources"`
}

// Clone deep-copies the group's resources map (but not its
// AcquisitionLists' backing arrays, which callers must not mutate
// in-place; use AcquisitionList.Clone for that).
func (g TokenizedGroup) Clone() TokenizedGroup {
	resources := make(map[string]AcquisitionList, len(g.Resources))
	for token, list := range g.Resources {
		resources[token] = list
	}
	return TokenizedGroup{TokenizerID: g.TokenizerID, Resources: resources}
}

// AcquisitionRecord is the per-acquirer persisted state. len(Tokenized) is
// 1 or 2: when 2, index 0 is the older key generation awaiting rotation
// and index 1 is the one used for new writes.
type AcquisitionRecord struct {
	AcquirerID string           `json:"acquirerId"`
	Tokenized  []TokenizedGroup `json:"tokenized"`
	TTL        int64            `json:"ttl"`
	Expires    time.Time        `json:"expires"`
	Meta       *Meta            `json:"meta,omitempty"`
}

// IsPersisted reports whether this record reflects a document that
// actually exists in the store, as opposed to a synthesized default built
// for an unknown acquirer.
func (r *AcquisitionRecord) IsPersisted() bool {
	return r != nil && r.Meta != nil
}

// ExcessResource reports how many units of Resource could not be
// authorized (check/acquire) or held (release).
type ExcessResource struct {
	Resource string `json:"resource"`
	Count    int    `json:"count"`
}

// DecisionResult is the public shape returned by Check and Acquire.
type DecisionResult struct {
	Authorized         bool             `json:"authorized"`
	ExcessResources    []ExcessResource `json:"excessResources"`
	UntrackedResources []string         `json:"untrackedResources"`
}

// ReleaseResult is the public shape returned by Release.
type ReleaseResult struct {
	Authorized      bool             `json:"authorized"`
	ExcessResources []ExcessResource `json:"excessResources"`
	Expires         time.Time        `json:"expires"`
}

// PolicyResult is what a restriction policy's apply function returns.
type PolicyResult struct {
	Authorized bool
	// Excess is the number of restriction.Resource units that would
	// overflow. Must be > 0 when Authorized is false.
	Excess int
	// TTL declares how long this policy needs its TrackedResources
	// retained. Nil means "use the caller-provided default".
	TTL *int64
	// TrackedResources lists which request resources this policy wants
	// tracked. Nil/empty defaults to []string{restriction.Resource}.
	TrackedResources []string
}
