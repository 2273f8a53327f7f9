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

package keys

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"sync"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/errors"
)

// hmacSigner signs with HMAC-SHA256 under one fixed secret, base64
// encoding the digest so it is safe to use as a map key / JSON string.
type hmacSigner struct {
	secret []byte
}

// NewHMACSigner returns a Signer backed by HMAC-SHA256 with secret.
func NewHMACSigner(secret []byte) Signer {
	return &hmacSigner{secret: secret}
}

func (h *hmacSigner) Sign(data []byte) []byte {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(data)
	sum := mac.Sum(nil)
	out := make([]byte, base64.RawURLEncoding.EncodedLen(len(sum)))
	base64.RawURLEncoding.Encode(out, sum)
	return out
}

// StaticOracle is a fixed-keyset Oracle suitable for tests and the CLI
// demo: keys are added in rotation order and the most recently added one
// is "current".
type StaticOracle struct {
	mu      sync.RWMutex
	order   []string
	signers map[string]Signer
}

// NewStaticOracle builds a StaticOracle with one initial key.
func NewStaticOracle(keyID string, secret []byte) *StaticOracle {
	o := &StaticOracle{signers: make(map[string]Signer)}
	o.AddKey(keyID, secret)
	return o
}

// AddKey appends a new key generation and makes it current.
func (o *StaticOracle) AddKey(keyID string, secret []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.signers[keyID]; !exists {
		o.order = append(o.order, keyID)
	}
	o.signers[keyID] = NewHMACSigner(secret)
}

// Retire removes a key generation, simulating the key subsystem
// forgetting an old key after its grace period elapses.
func (o *StaticOracle) Retire(keyID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.signers, keyID)
	for i, id := range o.order {
		if id == keyID {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}

// GetCurrent returns the most recently added key id.
func (o *StaticOracle) GetCurrent(_ context.Context) (string, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if len(o.order) == 0 {
		return "", errors.Upstream(errors.New("no keys configured"))
	}
	return o.order[len(o.order)-1], nil
}

// Get returns the Signer for keyID, or a NotFound-wrapped error if it has
// been retired or never existed.
func (o *StaticOracle) Get(_ context.Context, keyID string) (Signer, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	signer, ok := o.signers[keyID]
	if !ok {
		return nil, errors.NotFound("key %q is not known to the oracle", keyID)
	}
	return signer, nil
}

var _ Oracle = (*StaticOracle)(nil)
