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

// Package tokenizer implements the ResourceTokenizer: the per-request
// helper that prunes an acquisition record's expired entries, decides
// whether to rotate tokenizer keys, and can synthesize the post-acquire
// or post-release tokenized state.
//
// Resource identifiers are never stored in the clear: every token is an
// HMAC of (acquirerId, resourceId) under a key fetched from the
// tokenizer key oracle (package keys), so a reader of the persisted
// record cannot recover which resources it concerns without the key.
package tokenizer

import (
	"context"
	"sort"
	"time"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/types"
	"github.com/digitalbazaar/bedrock-resource-restriction/keys"
)

// Tokenizer is constructed per request and produces no I/O until Process
// is called.
type Tokenizer struct {
	acquirerID string
	request    []types.RequestItem
	oracle     keys.Oracle

	processed bool

	previousTTL  int64
	rotate       bool
	writeKeyID   string
	prunedGroups []types.TokenizedGroup // 1 or 2 groups, post-prune
	oldGroup     *types.TokenizedGroup  // set iff rotate: the older-generation group (pruned[0]) whose tokens may be migrated

	// forward[keyID][resource] = token, reverse[keyID][token] = resource,
	// populated for every resource in the request, for every key id this
	// process() call needs (writeKeyID, and oldGroup's key if rotating).
	forward map[string]map[string]string
	reverse map[string]map[string]string
	signers map[string]keys.Signer
}

// New constructs a Tokenizer for one acquirerId/request pair. Call
// Process before using any other method.
func New(acquirerID string, request []types.RequestItem, oracle keys.Oracle) *Tokenizer {
	return &Tokenizer{
		acquirerID: acquirerID,
		request:    request,
		oracle:     oracle,
	}
}

// Process prunes expired entries, decides rotation, and builds the
// forward/reverse token maps needed for the rest of this request's
// processing. record may be nil or synthesized-default (record.Meta ==
// nil); both are treated as "no prior acquisitions".
func (t *Tokenizer) Process(ctx context.Context, record *types.AcquisitionRecord, now time.Time) error {
	previousTTL := int64(0)
	var existingGroups []types.TokenizedGroup
	if record != nil {
		previousTTL = record.TTL
		existingGroups = record.Tokenized
	}

	nowMs := now.UnixMilli()
	pruned := make([]types.TokenizedGroup, 0, len(existingGroups))
	for _, g := range existingGroups {
		resources := make(map[string]types.AcquisitionList)
		for token, list := range g.Resources {
			var kept types.AcquisitionList
			for _, item := range list {
				if item.Requested+previousTTL >= nowMs {
					kept = append(kept, item)
				}
			}
			if len(kept) > 0 {
				resources[token] = kept
			}
		}
		if len(resources) > 0 {
			pruned = append(pruned, types.TokenizedGroup{TokenizerID: g.TokenizerID, Resources: resources})
		}
	}

	currentKeyID, err := t.oracle.GetCurrent(ctx)
	if err != nil {
		return err
	}

	if len(pruned) == 0 {
		pruned = []types.TokenizedGroup{{TokenizerID: currentKeyID, Resources: map[string]types.AcquisitionList{}}}
		previousTTL = 0
	}

	var rotate bool
	writeKeyID := currentKeyID
	var oldGroup *types.TokenizedGroup

	switch len(pruned) {
	case 1:
		if pruned[0].TokenizerID == currentKeyID {
			rotate = false
		} else {
			rotate = true
			old := pruned[0]
			oldGroup = &old
		}
	default: // 2
		rotate = true
		old := pruned[0]
		oldGroup = &old
		writeKeyID = pruned[1].TokenizerID
	}

	keyIDs := map[string]bool{writeKeyID: true}
	if oldGroup != nil {
		keyIDs[oldGroup.TokenizerID] = true
	}

	forward := make(map[string]map[string]string, len(keyIDs))
	reverse := make(map[string]map[string]string, len(keyIDs))
	signers := make(map[string]keys.Signer, len(keyIDs))
	for keyID := range keyIDs {
		signer, err := t.oracle.Get(ctx, keyID)
		if err != nil {
			return err
		}
		signers[keyID] = signer

		fwd := make(map[string]string, len(t.request))
		rev := make(map[string]string, len(t.request))
		for _, item := range t.request {
			token := string(signer.Sign(encodePair(t.acquirerID, item.Resource)))
			fwd[item.Resource] = token
			rev[token] = item.Resource
		}
		forward[keyID] = fwd
		reverse[keyID] = rev
	}

	t.previousTTL = previousTTL
	t.rotate = rotate
	t.writeKeyID = writeKeyID
	t.prunedGroups = pruned
	t.oldGroup = oldGroup
	t.forward = forward
	t.reverse = reverse
	t.signers = signers
	t.processed = true
	return nil
}

// PreviousTTL returns the record's ttl as observed before this process()
// call reset it (0 if every acquisition was pruned).
func (t *Tokenizer) PreviousTTL() int64 {
	return t.previousTTL
}

// GetUntokenizedAcquisitionMap returns, for each resource in the
// request, the caller's already-stored acquisitions (pooled across both
// groups if rotation is in progress), keyed by the plaintext resource
// id.
func (t *Tokenizer) GetUntokenizedAcquisitionMap() map[string]types.AcquisitionList {
	out := make(map[string]types.AcquisitionList, len(t.request))
	for _, item := range t.request {
		var combined types.AcquisitionList
		for _, g := range t.prunedGroups {
			token, ok := t.forward[g.TokenizerID][item.Resource]
			if !ok {
				continue
			}
			if list, ok := g.Resources[token]; ok {
				combined = mergeSorted(combined, list)
			}
		}
		if len(combined) > 0 {
			out[item.Resource] = combined
		}
	}
	return out
}

// GetAdditionalAcquisitionMap implements the getAcquisitionMap callback
// of the policy contract: untokenized acquisitions for resource ids a
// policy cares about that may not be in the request.
func (t *Tokenizer) GetAdditionalAcquisitionMap(ctx context.Context, resourceIDs []string) (map[string]types.AcquisitionList, error) {
	out := make(map[string]types.AcquisitionList, len(resourceIDs))
	for _, resource := range resourceIDs {
		var combined types.AcquisitionList
		for _, g := range t.prunedGroups {
			signer := t.signers[g.TokenizerID]
			if signer == nil {
				var err error
				signer, err = t.oracle.Get(ctx, g.TokenizerID)
				if err != nil {
					return nil, err
				}
				t.signers[g.TokenizerID] = signer
			}
			token := string(signer.Sign(encodePair(t.acquirerID, resource)))
			if list, ok := g.Resources[token]; ok {
				combined = mergeSorted(combined, list)
			}
		}
		if len(combined) > 0 {
			out[resource] = combined
		}
	}
	return out, nil
}

// ApplyResult is the outcome of ApplyAcquireRequest or
// ApplyReleaseRequest: the tokenized array to write, whether it has any
// items left (false means the caller must delete the record instead of
// writing it), and the ttl/expires to persist alongside it.
type ApplyResult struct {
	NewTokenized    []types.TokenizedGroup
	TTL             int64
	Expires         time.Time
	HasItems        bool
	ExcessResources map[string]int // release only; nil for acquire
}

// ApplyAcquireRequest folds an acquire request into the tokenized state,
// returning what should be persisted.
func (t *Tokenizer) ApplyAcquireRequest(trackedResources map[string]bool, maxRestrictionTTL int64, now time.Time) ApplyResult {
	ttl := t.previousTTL
	if maxRestrictionTTL > ttl {
		ttl = maxRestrictionTTL
	}

	newTokenized, writeIdx := t.createNewTokenizedAcquisition()
	nowMs := now.UnixMilli()

	for _, item := range t.request {
		if !trackedResources[item.Resource] {
			continue
		}
		if item.Requested+ttl < nowMs {
			continue // pruned before ever being written
		}
		token := t.forward[t.writeKeyID][item.Resource]
		list := newTokenized[writeIdx].Resources[token]
		newTokenized[writeIdx].Resources[token] = insertSorted(list, types.AcquisitionItem{
			Count:     item.Count,
			Requested: item.Requested,
		})
	}

	return t.finalizeResult(newTokenized, ttl, nil)
}

// ApplyReleaseRequest consumes acquired counts to satisfy a release
// request, returning what should be persisted (or HasItems=false if the
// record should be deleted).
func (t *Tokenizer) ApplyReleaseRequest() ApplyResult {
	ttl := t.previousTTL
	newTokenized, writeIdx := t.createNewTokenizedAcquisition()
	excess := make(map[string]int)

	for _, item := range t.request {
		token := t.forward[t.writeKeyID][item.Resource]
		list := newTokenized[writeIdx].Resources[token].Clone()
		remaining := item.Count

		if item.Latest {
			for remaining > 0 && len(list) > 0 {
				last := len(list) - 1
				if list[last].Count <= remaining {
					remaining -= list[last].Count
					list = list[:last]
				} else {
					list[last].Count -= remaining
					remaining = 0
				}
			}
		} else {
			for remaining > 0 && len(list) > 0 {
				if list[0].Count <= remaining {
					remaining -= list[0].Count
					list = list[1:]
				} else {
					list[0].Count -= remaining
					remaining = 0
				}
			}
		}

		if remaining > 0 {
			excess[item.Resource] += remaining
		}
		if len(list) == 0 {
			delete(newTokenized[writeIdx].Resources, token)
		} else {
			newTokenized[writeIdx].Resources[token] = list
		}
	}

	return t.finalizeResult(newTokenized, ttl, excess)
}

func (t *Tokenizer) finalizeResult(newTokenized []types.TokenizedGroup, ttl int64, excess map[string]int) ApplyResult {
	maxRequested, found := maxRequestedAcrossAll(newTokenized)
	result := ApplyResult{
		NewTokenized:    newTokenized,
		TTL:             ttl,
		HasItems:        found,
		ExcessResources: excess,
	}
	if found {
		result.Expires = time.UnixMilli(maxRequested + ttl)
	}
	return result
}

// createNewTokenizedAcquisition builds the tokenized array that
// acquire/release will mutate, migrating whatever old-generation
// entries this request can resolve.
func (t *Tokenizer) createNewTokenizedAcquisition() (newTokenized []types.TokenizedGroup, writeIdx int) {
	if !t.rotate {
		return []types.TokenizedGroup{t.prunedGroups[0].Clone()}, 0
	}

	var writeGroup types.TokenizedGroup
	if len(t.prunedGroups) == 2 {
		writeGroup = t.prunedGroups[1].Clone()
	} else {
		writeGroup = types.TokenizedGroup{TokenizerID: t.writeKeyID, Resources: map[string]types.AcquisitionList{}}
	}

	unconverted := make(map[string]types.AcquisitionList)
	if t.oldGroup != nil {
		oldReverse := t.reverse[t.oldGroup.TokenizerID]
		for token, list := range t.oldGroup.Resources {
			resource, ok := oldReverse[token]
			if !ok {
				// not resolvable: this request doesn't name the resource
				// this token belongs to, so it cannot be re-tokenized yet.
				unconverted[token] = list
				continue
			}
			newToken := t.forward[t.writeKeyID][resource]
			writeGroup.Resources[newToken] = mergeSorted(writeGroup.Resources[newToken], list)
		}
	}

	if len(unconverted) > 0 {
		return []types.TokenizedGroup{
			{TokenizerID: t.oldGroup.TokenizerID, Resources: unconverted},
			writeGroup,
		}, 1
	}
	return []types.TokenizedGroup{writeGroup}, 0
}

func maxRequestedAcrossAll(groups []types.TokenizedGroup) (max int64, found bool) {
	for _, g := range groups {
		for _, list := range g.Resources {
			for _, item := range list {
				if !found || item.Requested > max {
					max = item.Requested
					found = true
				}
			}
		}
	}
	return max, found
}

// insertSorted inserts item into list, maintaining ascending order by
// Requested.
func insertSorted(list types.AcquisitionList, item types.AcquisitionItem) types.AcquisitionList {
	i := sort.Search(len(list), func(i int) bool { return list[i].Requested > item.Requested })
	list = append(list, types.AcquisitionItem{})
	copy(list[i+1:], list[i:])
	list[i] = item
	return list
}

// mergeSorted merges two AcquisitionLists, both already ascending by
// Requested, into one ascending list.
func mergeSorted(a, b types.AcquisitionList) types.AcquisitionList {
	if len(a) == 0 {
		return b.Clone()
	}
	if len(b) == 0 {
		return a.Clone()
	}
	out := make(types.AcquisitionList, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Requested <= b[j].Requested {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
