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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/errors"
	"github.com/digitalbazaar/bedrock-resource-restriction/common/types"
	"github.com/digitalbazaar/bedrock-resource-restriction/restriction"
)

func noopFunc(_ context.Context, _ restriction.Input) (types.PolicyResult, error) {
	return types.PolicyResult{Authorized: true}, nil
}

func TestRegistryBuiltinPreregistered(t *testing.T) {
	r := restriction.NewRegistry()
	fn, err := r.Lookup(restriction.MethodLimitOverDuration)
	require.NoError(t, err)
	assert.NotNil(t, fn)
}

func TestRegistryRejectsDuplicateMethod(t *testing.T) {
	r := restriction.NewRegistry()
	require.NoError(t, r.Register("custom", noopFunc))
	err := r.Register("custom", noopFunc)
	assert.True(t, errors.IsDuplicate(err))
}

func TestRegistryLookupMissing(t *testing.T) {
	r := restriction.NewRegistry()
	_, err := r.Lookup("does-not-exist")
	assert.True(t, errors.IsMethodNotRegistered(err))
}
