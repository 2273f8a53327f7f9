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

package restriction_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/types"
	"github.com/digitalbazaar/bedrock-resource-restriction/restriction"
)

func TestLimitOverDurationWithinLimit(t *testing.T) {
	now := time.UnixMilli(1_000_000_000)
	in := restriction.Input{
		Restriction: types.Restriction{
			Resource:      "res-R",
			MethodOptions: map[string]any{"limit": 5, "duration": "P30D"},
		},
		Acquired: map[string]types.AcquisitionList{
			"res-R": {{Count: 3, Requested: now.UnixMilli()}},
		},
		Request: []types.RequestItem{{Resource: "res-R", Count: 2, Requested: now.UnixMilli()}},
		Now:     now,
	}

	result, err := restriction.LimitOverDuration(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, result.Authorized)
	assert.Equal(t, 0, result.Excess)
	require.NotNil(t, result.TTL)
	assert.Equal(t, (30 * 24 * time.Hour).Milliseconds(), *result.TTL)
}

func TestLimitOverDurationExceedsLimit(t *testing.T) {
	now := time.UnixMilli(1_000_000_000)
	in := restriction.Input{
		Restriction: types.Restriction{
			Resource:      "res-R",
			MethodOptions: map[string]any{"limit": 5, "duration": "P30D"},
		},
		Acquired: map[string]types.AcquisitionList{
			"res-R": {{Count: 4, Requested: now.UnixMilli()}},
		},
		Request: []types.RequestItem{{Resource: "res-R", Count: 2, Requested: now.UnixMilli()}},
		Now:     now,
	}

	result, err := restriction.LimitOverDuration(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, result.Authorized)
	assert.Equal(t, 1, result.Excess)
}

func TestLimitOverDurationIgnoresStaleAcquisitions(t *testing.T) {
	now := time.UnixMilli(1_000_000_000)
	stale := now.Add(-31 * 24 * time.Hour)
	in := restriction.Input{
		Restriction: types.Restriction{
			Resource:      "res-R",
			MethodOptions: map[string]any{"limit": 1, "duration": "P30D"},
		},
		Acquired: map[string]types.AcquisitionList{
			"res-R": {{Count: 10, Requested: stale.UnixMilli()}},
		},
		Request: []types.RequestItem{{Resource: "res-R", Count: 1, Requested: now.UnixMilli()}},
		Now:     now,
	}

	result, err := restriction.LimitOverDuration(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, result.Authorized)
}

func TestLimitOverDurationRejectsBadOptions(t *testing.T) {
	now := time.UnixMilli(1_000_000_000)
	in := restriction.Input{
		Restriction: types.Restriction{Resource: "res-R", MethodOptions: map[string]any{"duration": "P30D"}},
		Now:         now,
	}
	_, err := restriction.LimitOverDuration(context.Background(), in)
	assert.Error(t, err)
}
