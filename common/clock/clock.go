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

// Package clock abstracts wall-clock time so the engine's pruning and
// expiration math can be driven deterministically in tests.
//
// All packages should use this instead of calling time.Now directly, so a
// TimeSource can be swapped for a fixed or steppable one in tests.
package clock

import "time"

// TimeSource supplies the current time. NewRealTimeSource wraps time.Now;
// tests should use NewMockTimeSource or otherwise supply their own.
type TimeSource interface {
	Now() time.Time
}

type realTimeSource struct{}

// NewRealTimeSource returns a TimeSource backed by time.Now.
func NewRealTimeSource() TimeSource {
	return realTimeSource{}
}

func (realTimeSource) Now() time.Time {
	return time.Now()
}

// MockTimeSource is a manually-advanced TimeSource for tests.
type MockTimeSource struct {
	now time.Time
}

// NewMockTimeSource returns a MockTimeSource pinned to now.
func NewMockTimeSource(now time.Time) *MockTimeSource {
	return &MockTimeSource{now: now}
}

func (m *MockTimeSource) Now() time.Time {
	return m.now
}

// Advance moves the mock clock forward by d.
func (m *MockTimeSource) Advance(d time.Duration) {
	m.now = m.now.Add(d)
}

// SetTime pins the mock clock to t.
func (m *MockTimeSource) SetTime(t time.Time) {
	m.now = t
}
