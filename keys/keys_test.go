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

package keys_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalbazaar/bedrock-resource-restriction/keys"
)

func TestStaticOracleRotation(t *testing.T) {
	ctx := context.Background()
	o := keys.NewStaticOracle("k1", []byte("secret-1"))

	id, err := o.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "k1", id)

	signer1, err := o.Get(ctx, "k1")
	require.NoError(t, err)
	sig := signer1.Sign([]byte("hello"))
	sig2 := signer1.Sign([]byte("hello"))
	assert.Equal(t, sig, sig2, "signing must be deterministic")

	o.AddKey("k2", []byte("secret-2"))
	id, err = o.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "k2", id)

	// old key is still resolvable until retired
	_, err = o.Get(ctx, "k1")
	require.NoError(t, err)

	o.Retire("k1")
	_, err = o.Get(ctx, "k1")
	assert.Error(t, err)
}

func TestHMACSignerDistinctInputs(t *testing.T) {
	signer := keys.NewHMACSigner([]byte("secret"))
	a := signer.Sign([]byte("a"))
	b := signer.Sign([]byte("b"))
	assert.NotEqual(t, a, b)
}

func TestCachingOracleThrottlesRefresh(t *testing.T) {
	ctx := context.Background()
	base := keys.NewStaticOracle("k1", []byte("secret-1"))
	cached := keys.NewCachingOracle(base, time.Hour)

	id, err := cached.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "k1", id)
	assert.EqualValues(t, 1, cached.Generation())

	base.AddKey("k2", []byte("secret-2"))

	// throttled: still reports the cached id, no new hit to the wrapped oracle
	id, err = cached.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "k1", id)
	assert.EqualValues(t, 1, cached.Generation())
}

func TestCachingOracleSignerCache(t *testing.T) {
	ctx := context.Background()
	base := keys.NewStaticOracle("k1", []byte("secret-1"))
	cached := keys.NewCachingOracle(base, time.Millisecond)

	s1, err := cached.Get(ctx, "k1")
	require.NoError(t, err)
	base.Retire("k1") // removed upstream, but cache still has it
	s2, err := cached.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, s1.Sign([]byte("x")), s2.Sign([]byte("x")))
}
