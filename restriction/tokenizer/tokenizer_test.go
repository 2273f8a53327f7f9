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

package tokenizer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/types"
	"github.com/digitalbazaar/bedrock-resource-restriction/keys"
	"github.com/digitalbazaar/bedrock-resource-restriction/restriction/tokenizer"
)

func req(resource string, count int, requestedMs int64) types.RequestItem {
	return types.RequestItem{Resource: resource, Count: count, Requested: requestedMs}
}

func TestProcessNoPriorRecord(t *testing.T) {
	oracle := keys.NewStaticOracle("k1", []byte("secret"))
	tz := tokenizer.New("acquirer-1", []types.RequestItem{req("res-a", 1, 1000)}, oracle)

	require.NoError(t, tz.Process(context.Background(), nil, time.UnixMilli(1000)))
	assert.Equal(t, int64(0), tz.PreviousTTL())
	assert.Empty(t, tz.GetUntokenizedAcquisitionMap())
}

func TestAcquireThenRoundTripThroughProcess(t *testing.T) {
	oracle := keys.NewStaticOracle("k1", []byte("secret"))
	ctx := context.Background()
	now := time.UnixMilli(1_000_000)

	tz := tokenizer.New("acquirer-1", []types.RequestItem{req("res-a", 3, now.UnixMilli())}, oracle)
	require.NoError(t, tz.Process(ctx, nil, now))
	result := tz.ApplyAcquireRequest(map[string]bool{"res-a": true}, 60_000, now)
	require.True(t, result.HasItems)
	require.Len(t, result.NewTokenized, 1)

	rec := &types.AcquisitionRecord{
		Tokenized: result.NewTokenized,
		TTL:       result.TTL,
		Expires:   result.Expires,
		Meta:      &types.Meta{Created: now, Updated: now},
	}

	tz2 := tokenizer.New("acquirer-1", []types.RequestItem{req("res-a", 1, now.UnixMilli())}, oracle)
	require.NoError(t, tz2.Process(ctx, rec, now))
	m := tz2.GetUntokenizedAcquisitionMap()
	require.Contains(t, m, "res-a")
	assert.Equal(t, 3, m["res-a"].TotalCount())
}

func TestPruneExpiredItemsOnProcess(t *testing.T) {
	oracle := keys.NewStaticOracle("k1", []byte("secret"))
	ctx := context.Background()
	base := time.UnixMilli(0)

	tz := tokenizer.New("acquirer-1", []types.RequestItem{req("res-a", 1, 0)}, oracle)
	require.NoError(t, tz.Process(ctx, nil, base))
	result := tz.ApplyAcquireRequest(map[string]bool{"res-a": true}, 1000, base)
	require.True(t, result.HasItems)

	rec := &types.AcquisitionRecord{Tokenized: result.NewTokenized, TTL: result.TTL, Expires: result.Expires, Meta: &types.Meta{}}

	// well past ttl: the single item should be pruned away entirely.
	later := base.Add(10 * time.Second)
	tz2 := tokenizer.New("acquirer-1", []types.RequestItem{req("res-a", 1, later.UnixMilli())}, oracle)
	require.NoError(t, tz2.Process(ctx, rec, later))
	assert.Equal(t, int64(0), tz2.PreviousTTL())
	assert.Empty(t, tz2.GetUntokenizedAcquisitionMap())
}

func TestRotationMigratesResolvableTokens(t *testing.T) {
	oracle := keys.NewStaticOracle("k1", []byte("secret-1"))
	ctx := context.Background()
	now := time.UnixMilli(1_000_000)

	tz := tokenizer.New("acquirer-1", []types.RequestItem{req("res-a", 2, now.UnixMilli())}, oracle)
	require.NoError(t, tz.Process(ctx, nil, now))
	result := tz.ApplyAcquireRequest(map[string]bool{"res-a": true}, 60_000, now)
	rec := &types.AcquisitionRecord{Tokenized: result.NewTokenized, TTL: result.TTL, Expires: result.Expires, Meta: &types.Meta{}}
	require.Len(t, rec.Tokenized, 1)
	require.Equal(t, "k1", rec.Tokenized[0].TokenizerID)

	oracle.AddKey("k2", []byte("secret-2"))

	tz2 := tokenizer.New("acquirer-1", []types.RequestItem{req("res-a", 1, now.UnixMilli())}, oracle)
	require.NoError(t, tz2.Process(ctx, rec, now))
	m := tz2.GetUntokenizedAcquisitionMap()
	require.Contains(t, m, "res-a")
	assert.Equal(t, 2, m["res-a"].TotalCount())

	acquireResult := tz2.ApplyAcquireRequest(map[string]bool{"res-a": true}, 60_000, now)
	require.True(t, acquireResult.HasItems)
	require.Len(t, acquireResult.NewTokenized, 1, "every token in the request was resolvable, so rotation should complete in one pass")
	assert.Equal(t, "k2", acquireResult.NewTokenized[0].TokenizerID)

	total := 0
	for _, list := range acquireResult.NewTokenized[0].Resources {
		total += list.TotalCount()
	}
	assert.Equal(t, 3, total)
}

func TestRotationLeavesUnresolvedOldGroupUntouched(t *testing.T) {
	oracle := keys.NewStaticOracle("k1", []byte("secret-1"))
	ctx := context.Background()
	now := time.UnixMilli(1_000_000)

	tz := tokenizer.New("acquirer-1", []types.RequestItem{
		req("res-a", 1, now.UnixMilli()),
		req("res-b", 1, now.UnixMilli()),
	}, oracle)
	require.NoError(t, tz.Process(ctx, nil, now))
	result := tz.ApplyAcquireRequest(map[string]bool{"res-a": true, "res-b": true}, 60_000, now)
	rec := &types.AcquisitionRecord{Tokenized: result.NewTokenized, TTL: result.TTL, Expires: result.Expires, Meta: &types.Meta{}}

	oracle.AddKey("k2", []byte("secret-2"))

	// this request only names res-a, so res-b's old-generation token can't
	// be resolved yet and must survive untouched in the old group.
	tz2 := tokenizer.New("acquirer-1", []types.RequestItem{req("res-a", 1, now.UnixMilli())}, oracle)
	require.NoError(t, tz2.Process(ctx, rec, now))
	acquireResult := tz2.ApplyAcquireRequest(map[string]bool{"res-a": true}, 60_000, now)
	require.Len(t, acquireResult.NewTokenized, 2)
	assert.Equal(t, "k1", acquireResult.NewTokenized[0].TokenizerID)
	assert.Equal(t, "k2", acquireResult.NewTokenized[1].TokenizerID)
}

func TestReleaseLatestConsumesFromTail(t *testing.T) {
	oracle := keys.NewStaticOracle("k1", []byte("secret"))
	ctx := context.Background()
	base := time.UnixMilli(1_000_000)

	tz := tokenizer.New("acquirer-1", []types.RequestItem{req("res-a", 1, base.UnixMilli())}, oracle)
	require.NoError(t, tz.Process(ctx, nil, base))
	first := tz.ApplyAcquireRequest(map[string]bool{"res-a": true}, 60_000, base)

	second := base.Add(time.Second)
	rec := &types.AcquisitionRecord{Tokenized: first.NewTokenized, TTL: first.TTL, Expires: first.Expires, Meta: &types.Meta{}}
	tz2 := tokenizer.New("acquirer-1", []types.RequestItem{req("res-a", 1, second.UnixMilli())}, oracle)
	require.NoError(t, tz2.Process(ctx, rec, second))
	acquireResult := tz2.ApplyAcquireRequest(map[string]bool{"res-a": true}, 60_000, second)
	rec2 := &types.AcquisitionRecord{Tokenized: acquireResult.NewTokenized, TTL: acquireResult.TTL, Expires: acquireResult.Expires, Meta: &types.Meta{}}

	tz3 := tokenizer.New("acquirer-1", []types.RequestItem{{Resource: "res-a", Count: 1, Latest: true}}, oracle)
	require.NoError(t, tz3.Process(ctx, rec2, second))
	releaseResult := tz3.ApplyReleaseRequest()
	require.True(t, releaseResult.HasItems)
	require.Empty(t, releaseResult.ExcessResources)

	remaining := 0
	for _, list := range releaseResult.NewTokenized[0].Resources {
		for _, item := range list {
			remaining += item.Count
			assert.Equal(t, base.UnixMilli(), item.Requested, "releasing latest=true should have consumed the second (later) item")
		}
	}
	assert.Equal(t, 1, remaining)
}

func TestReleaseExcessWhenOverdrawn(t *testing.T) {
	oracle := keys.NewStaticOracle("k1", []byte("secret"))
	ctx := context.Background()
	now := time.UnixMilli(1_000_000)

	tz := tokenizer.New("acquirer-1", []types.RequestItem{req("res-a", 1, now.UnixMilli())}, oracle)
	require.NoError(t, tz.Process(ctx, nil, now))
	result := tz.ApplyAcquireRequest(map[string]bool{"res-a": true}, 60_000, now)
	rec := &types.AcquisitionRecord{Tokenized: result.NewTokenized, TTL: result.TTL, Expires: result.Expires, Meta: &types.Meta{}}

	tz2 := tokenizer.New("acquirer-1", []types.RequestItem{{Resource: "res-a", Count: 5}}, oracle)
	require.NoError(t, tz2.Process(ctx, rec, now))
	releaseResult := tz2.ApplyReleaseRequest()
	require.Equal(t, 4, releaseResult.ExcessResources["res-a"])
	assert.False(t, releaseResult.HasItems)
}
