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

// Package mocks holds hand-written gomock doubles for package
// persistence's interfaces, in the shape mockgen would produce, since no
// code generator runs in this module.
package mocks

import (
	"context"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/types"
)

// MockAcquisitionStore is a mock of persistence.AcquisitionStore.
type MockAcquisitionStore struct {
	ctrl     *gomock.Controller
	recorder *MockAcquisitionStoreMockRecorder
}

// MockAcquisitionStoreMockRecorder is the mock recorder for MockAcquisitionStore.
type MockAcquisitionStoreMockRecorder struct {
	mock *MockAcquisitionStore
}

// NewMockAcquisitionStore creates a new mock instance.
func NewMockAcquisitionStore(ctrl *gomock.Controller) *MockAcquisitionStore {
	mock := &MockAcquisitionStore{ctrl: ctrl}
	mock.recorder = &MockAcquisitionStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockAcquisitionStore) EXPECT() *MockAcquisitionStoreMockRecorder {
	return m.recorder
}

// Get mocks base method.
func (m *MockAcquisitionStore) Get(ctx context.Context, acquirerID string) (*types.AcquisitionRecord, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", ctx, acquirerID)
	ret0, _ := ret[0].(*types.AcquisitionRecord)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Get indicates an expected call of Get.
func (mr *MockAcquisitionStoreMockRecorder) Get(ctx, acquirerID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockAcquisitionStore)(nil).Get), ctx, acquirerID)
}

// ConditionalUpsert mocks base method.
func (m *MockAcquisitionStore) ConditionalUpsert(ctx context.Context, acquirerID string, priorTokenized, newTokenized []types.TokenizedGroup, ttl int64, expires, now time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ConditionalUpsert", ctx, acquirerID, priorTokenized, newTokenized, ttl, expires, now)
	ret0, _ := ret[0].(error)
	return ret0
}

// ConditionalUpsert indicates an expected call of ConditionalUpsert.
func (mr *MockAcquisitionStoreMockRecorder) ConditionalUpsert(ctx, acquirerID, priorTokenized, newTokenized, ttl, expires, now any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ConditionalUpsert", reflect.TypeOf((*MockAcquisitionStore)(nil).ConditionalUpsert), ctx, acquirerID, priorTokenized, newTokenized, ttl, expires, now)
}

// ConditionalDelete mocks base method.
func (m *MockAcquisitionStore) ConditionalDelete(ctx context.Context, acquirerID string, priorTokenized []types.TokenizedGroup) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ConditionalDelete", ctx, acquirerID, priorTokenized)
	ret0, _ := ret[0].(error)
	return ret0
}

// ConditionalDelete indicates an expected call of ConditionalDelete.
func (mr *MockAcquisitionStoreMockRecorder) ConditionalDelete(ctx, acquirerID, priorTokenized any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ConditionalDelete", reflect.TypeOf((*MockAcquisitionStore)(nil).ConditionalDelete), ctx, acquirerID, priorTokenized)
}

// PruneExpired mocks base method.
func (m *MockAcquisitionStore) PruneExpired(ctx context.Context, now time.Time) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PruneExpired", ctx, now)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// PruneExpired indicates an expected call of PruneExpired.
func (mr *MockAcquisitionStoreMockRecorder) PruneExpired(ctx, now any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PruneExpired", reflect.TypeOf((*MockAcquisitionStore)(nil).PruneExpired), ctx, now)
}
