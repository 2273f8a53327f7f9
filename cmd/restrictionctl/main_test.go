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

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalbazaar/bedrock-resource-restriction/tools/common/commoncli"
)

func TestCheckAcquireReleaseRoundTrip(t *testing.T) {
	d := newDeployment()

	out := commoncli.NewMockOutput(t)
	require.NoError(t, runWithDeployment(d, out, []string{"insert-restriction", "zone-1", "res-R", "1", "P30D"}))
	require.NoError(t, out.Error())

	out2 := commoncli.NewMockOutput(t)
	require.NoError(t, runWithDeployment(d, out2, []string{"check", "acquirer-A", "zone-1", "res-R", "1"}))
	assert.Contains(t, out2.String(), `"authorized": true`)

	out3 := commoncli.NewMockOutput(t)
	require.NoError(t, runWithDeployment(d, out3, []string{"acquire", "acquirer-A", "zone-1", "res-R", "1"}))
	assert.Contains(t, out3.String(), `"authorized": true`)

	out4 := commoncli.NewMockOutput(t)
	require.NoError(t, runWithDeployment(d, out4, []string{"acquire", "acquirer-A", "zone-1", "res-R", "1"}))
	assert.Contains(t, out4.String(), `"authorized": false`)

	out5 := commoncli.NewMockOutput(t)
	require.NoError(t, runWithDeployment(d, out5, []string{"release", "acquirer-A", "res-R", "1"}))
	assert.Contains(t, out5.String(), `"authorized": true`)
}

func TestUsageOnNoArgs(t *testing.T) {
	d := newDeployment()
	out := commoncli.NewMockOutput(t)
	require.NoError(t, runWithDeployment(d, out, nil))
	assert.True(t, strings.Contains(out.String(), "usage:"))
}
