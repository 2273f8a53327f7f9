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

package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/types"
	"github.com/digitalbazaar/bedrock-resource-restriction/persistence"
	"github.com/digitalbazaar/bedrock-resource-restriction/persistence/memory"
)

func TestRestrictionStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRestrictionStore()

	r, err := store.Insert(ctx, types.Restriction{ID: "r1", Zone: "z", Resource: "res"})
	require.NoError(t, err)
	assert.NotNil(t, r.Meta)

	_, err = store.Insert(ctx, types.Restriction{ID: "r1", Zone: "z", Resource: "res"})
	assert.True(t, isDuplicate(err))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "z", got.Zone)

	_, err = store.Get(ctx, "missing")
	assert.True(t, isNotFound(err))

	got.Resource = "res2"
	_, err = store.Update(ctx, got)
	require.NoError(t, err)

	all, err := store.GetAll(ctx, persistence.RestrictionQuery{Zone: "z"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "res2", all[0].Resource)

	require.NoError(t, store.Remove(ctx, "r1"))
	assert.True(t, isNotFound(store.Remove(ctx, "r1")))
}

func TestRestrictionStoreFindMatching(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRestrictionStore()
	_, err := store.Insert(ctx, types.Restriction{ID: "r1", Zone: "z1", Resource: "res1"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, types.Restriction{ID: "r2", Zone: "z2", Resource: "res2"})
	require.NoError(t, err)

	matches, err := store.FindMatching(ctx, []string{"z1"}, []string{"res1", "res2"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "r1", matches[0].ID)
}

func TestAcquisitionStoreConditionalWrites(t *testing.T) {
	ctx := context.Background()
	store := memory.NewAcquisitionStore()
	now := time.Unix(1000, 0)

	_, err := store.Get(ctx, "acquirer-1")
	assert.True(t, isNotFound(err))

	group := []types.TokenizedGroup{{TokenizerID: "k1", Resources: map[string]types.AcquisitionList{
		"tok": {{Count: 1, Requested: 100}},
	}}}
	err = store.ConditionalUpsert(ctx, "acquirer-1", nil, group, 1000, now.Add(time.Second), now)
	require.NoError(t, err)

	// stale prior -> mismatch
	err = store.ConditionalUpsert(ctx, "acquirer-1", nil, group, 1000, now.Add(time.Second), now)
	assert.True(t, isPreconditionMismatch(err))

	rec, err := store.Get(ctx, "acquirer-1")
	require.NoError(t, err)

	// correct prior -> succeeds
	err = store.ConditionalUpsert(ctx, "acquirer-1", rec.Tokenized, group, 2000, now.Add(2*time.Second), now)
	require.NoError(t, err)

	rec, err = store.Get(ctx, "acquirer-1")
	require.NoError(t, err)
	err = store.ConditionalDelete(ctx, "acquirer-1", rec.Tokenized)
	require.NoError(t, err)

	_, err = store.Get(ctx, "acquirer-1")
	assert.True(t, isNotFound(err))
}

func TestAcquisitionStorePruneExpired(t *testing.T) {
	ctx := context.Background()
	store := memory.NewAcquisitionStore()
	now := time.Unix(1000, 0)

	err := store.ConditionalUpsert(ctx, "acquirer-1", nil, nil, 0, now.Add(-time.Second), now)
	require.NoError(t, err)

	n, err := store.PruneExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.Get(ctx, "acquirer-1")
	assert.True(t, isNotFound(err))
}
