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

// Package keys defines the tokenizer key-management subsystem as an
// external collaborator: something that hands out a "current key id" and,
// for any key id it still remembers, a deterministic HMAC oracle. The
// subsystem's own key storage/rotation policy is out of scope for this
// package; it only defines the interface the engine depends on and a
// couple of concrete implementations useful for tests and the CLI demo.
package keys

import "context"

// Signer deterministically signs bytes under one key generation. Two
// calls with the same input on the same Signer MUST return the same
// output; this is what lets the engine re-derive a token instead of
// storing one.
type Signer interface {
	Sign(data []byte) []byte
}

// Oracle supplies the current key id and, for any key id it still has,
// the Signer for it. Implementations are assumed thread-safe and
// cacheable.
type Oracle interface {
	// GetCurrent returns the id of the key new tokens should be written
	// under.
	GetCurrent(ctx context.Context) (string, error)
	// Get returns the Signer for keyID, or an error if the oracle no
	// longer has it (e.g. it was retired after the grace period the key
	// subsystem enforces internally).
	Get(ctx context.Context, keyID string) (Signer, error)
}
