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

package restriction

import (
	"sync"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/errors"
)

// Registry maps a policy method name to its Func. It is process-wide
// state, populated during initialization, and is safe for concurrent
// reads once populated.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]Func
}

// NewRegistry returns a Registry whose only entry is the built-in
// limitOverDuration method.
func NewRegistry() *Registry {
	r := &Registry{methods: make(map[string]Func)}
	// panics only if the built-in name collides with itself, which it
	// cannot on a fresh registry.
	if err := r.Register(MethodLimitOverDuration, LimitOverDuration); err != nil {
		panic(err)
	}
	return r
}

// Register adds fn under method. Returns a Duplicate-wrapped error if
// method is already registered.
func (r *Registry) Register(method string, fn Func) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.methods[method]; exists {
		return errors.Duplicate("restriction method %q is already registered", method)
	}
	r.methods[method] = fn
	return nil
}

// Lookup returns the Func registered under method, or a
// MethodNotRegistered error.
func (r *Registry) Lookup(method string) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.methods[method]
	if !ok {
		return nil, errors.MethodNotRegistered(method)
	}
	return fn, nil
}
