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

// Package persistence defines the two external collaborator stores this
// module depends on: a "restrictions" collection of policy definitions
// and an "acquisitions" collection of per-acquirer state. The actual
// durable key-value store (with secondary indexes, single-document
// atomic conditional update, and automatic expiration on a date field) is
// out of scope; only the interface it must satisfy is defined here, plus
// an in-memory implementation in package memory for tests and the CLI
// demo.
package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/types"
)

// RestrictionQuery filters the restrictions collection. A zero value
// matches everything. Non-empty fields are ANDed together.
type RestrictionQuery struct {
	Zone     string
	Resource string
}

// RestrictionStore is the "restrictions" collection: unique index on id,
// non-unique index on zone.
type RestrictionStore interface {
	// Insert adds a new restriction, setting Meta.Created/Updated.
	// Returns a Duplicate-wrapped error if id collides.
	Insert(ctx context.Context, r types.Restriction) (types.Restriction, error)
	// BulkInsert inserts many restrictions; none are persisted if any id
	// collides (all-or-nothing), surfaced as a Duplicate-wrapped error
	// naming the offending id.
	BulkInsert(ctx context.Context, rs []types.Restriction) ([]types.Restriction, error)
	// Update replaces an existing restriction's fields other than id,
	// bumping Meta.Updated. Returns NotFound if id is absent.
	Update(ctx context.Context, r types.Restriction) (types.Restriction, error)
	// Get returns the restriction with this id, or NotFound.
	Get(ctx context.Context, id string) (types.Restriction, error)
	// GetAll returns restrictions matching query, ordered by id, with
	// limit/offset pagination. limit <= 0 means "no limit".
	GetAll(ctx context.Context, query RestrictionQuery, limit, offset int) ([]types.Restriction, error)
	// Remove deletes the restriction with this id. Returns NotFound if
	// absent.
	Remove(ctx context.Context, id string) error
	// RemoveAll deletes every restriction matching zone and resource.
	RemoveAll(ctx context.Context, zone, resource string) error
	// FindMatching returns every restriction whose zone is in zones AND
	// whose resource is in resources, the query the Matcher issues.
	// Order is unspecified.
	FindMatching(ctx context.Context, zones, resources []string) ([]types.Restriction, error)
}

// AcquisitionStore is the "acquisitions" collection: unique index on
// acquirerId, TTL index on expires with expireAfterSeconds = 0.
type AcquisitionStore interface {
	// Get returns the record for acquirerId, or (nil, NotFound) if none
	// exists (including if it was TTL-expired). Callers synthesize a
	// default record for NotFound, per the acquisition lifecycle.
	Get(ctx context.Context, acquirerID string) (*types.AcquisitionRecord, error)

	// ConditionalUpsert writes newTokenized/ttl/expires for acquirerID,
	// guarded by the precondition that the stored tokenized value
	// currently equals priorTokenized. If no document
	// exists for acquirerID, it is inserted (setting Meta.Created) and
	// the precondition is trivially satisfied only when priorTokenized
	// is empty/nil (i.e. the caller read a synthesized default, not a
	// persisted one). A conflicting concurrent insert surfaces the same
	// as a precondition mismatch.
	//
	// Returns a PreconditionMismatch-wrapped error if the guard failed;
	// the caller re-reads and retries. now stamps Meta.Created (insert)
	// or Meta.Updated (update).
	ConditionalUpsert(ctx context.Context, acquirerID string, priorTokenized []types.TokenizedGroup, newTokenized []types.TokenizedGroup, ttl int64, expires time.Time, now time.Time) error

	// ConditionalDelete removes the document for acquirerID, guarded by
	// the same precondition as ConditionalUpsert. Returns a
	// PreconditionMismatch-wrapped error (including "already absent") if
	// the guard failed.
	ConditionalDelete(ctx context.Context, acquirerID string, priorTokenized []types.TokenizedGroup) error

	// PruneExpired deletes every record whose Expires has passed as of
	// now, simulating the datastore's TTL worker. Real stores do this
	// automatically in the background; tests call it explicitly.
	PruneExpired(ctx context.Context, now time.Time) (int, error)
}

// SerializeTokenized canonically serializes a tokenized array for use as
// an optimistic-concurrency precondition: servers lacking deep-equality
// support can instead compare a deterministic serialization. Map keys
// (tokens) are sorted so the same logical content always serializes
// identically regardless of map iteration order.
func SerializeTokenized(groups []types.TokenizedGroup) string {
	type item struct {
		Count     int   `json:"count"`
		Requested int64 `json:"requested"`
	}
	type group struct {
		TokenizerID string            `json:"tokenizerId"`
		Resources   map[string][]item `json:"resources"`
	}

	out := make([]group, 0, len(groups))
	for _, g := range groups {
		resources := make(map[string][]item, len(g.Resources))
		for token, list := range g.Resources {
			items := make([]item, len(list))
			for i, a := range list {
				items[i] = item{Count: a.Count, Requested: a.Requested}
			}
			resources[token] = items
		}
		out = append(out, group{TokenizerID: g.TokenizerID, Resources: resources})
	}

	// encoding/json sorts object keys for map values, which is what makes
	// this serialization canonical regardless of map iteration order.
	// Group order (slice, not map) is significant and preserved as-is.
	b, err := json.Marshal(out)
	if err != nil {
		// out is built entirely from JSON-safe primitives above.
		panic("unreachable: canonical tokenized serialization failed: " + err.Error())
	}
	return string(b)
}
