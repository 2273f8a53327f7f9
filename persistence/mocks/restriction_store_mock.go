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

package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/types"
	"github.com/digitalbazaar/bedrock-resource-restriction/persistence"
)

// MockRestrictionStore is a mock of persistence.RestrictionStore.
type MockRestrictionStore struct {
	ctrl     *gomock.Controller
	recorder *MockRestrictionStoreMockRecorder
}

// MockRestrictionStoreMockRecorder is the mock recorder for MockRestrictionStore.
type MockRestrictionStoreMockRecorder struct {
	mock *MockRestrictionStore
}

// NewMockRestrictionStore creates a new mock instance.
func NewMockRestrictionStore(ctrl *gomock.Controller) *MockRestrictionStore {
	mock := &MockRestrictionStore{ctrl: ctrl}
	mock.recorder = &MockRestrictionStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRestrictionStore) EXPECT() *MockRestrictionStoreMockRecorder {
	return m.recorder
}

// Insert mocks base method.
func (m *MockRestrictionStore) Insert(ctx context.Context, r types.Restriction) (types.Restriction, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Insert", ctx, r)
	ret0, _ := ret[0].(types.Restriction)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Insert indicates an expected call of Insert.
func (mr *MockRestrictionStoreMockRecorder) Insert(ctx, r any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Insert", reflect.TypeOf((*MockRestrictionStore)(nil).Insert), ctx, r)
}

// BulkInsert mocks base method.
func (m *MockRestrictionStore) BulkInsert(ctx context.Context, rs []types.Restriction) ([]types.Restriction, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BulkInsert", ctx, rs)
	ret0, _ := ret[0].([]types.Restriction)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BulkInsert indicates an expected call of BulkInsert.
func (mr *MockRestrictionStoreMockRecorder) BulkInsert(ctx, rs any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BulkInsert", reflect.TypeOf((*MockRestrictionStore)(nil).BulkInsert), ctx, rs)
}

// Update mocks base method.
func (m *MockRestrictionStore) Update(ctx context.Context, r types.Restriction) (types.Restriction, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, r)
	ret0, _ := ret[0].(types.Restriction)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Update indicates an expected call of Update.
func (mr *MockRestrictionStoreMockRecorder) Update(ctx, r any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockRestrictionStore)(nil).Update), ctx, r)
}

// Get mocks base method.
func (m *MockRestrictionStore) Get(ctx context.Context, id string) (types.Restriction, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", ctx, id)
	ret0, _ := ret[0].(types.Restriction)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Get indicates an expected call of Get.
func (mr *MockRestrictionStoreMockRecorder) Get(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockRestrictionStore)(nil).Get), ctx, id)
}

// GetAll mocks base method.
func (m *MockRestrictionStore) GetAll(ctx context.Context, query persistence.RestrictionQuery, limit, offset int) ([]types.Restriction, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetAll", ctx, query, limit, offset)
	ret0, _ := ret[0].([]types.Restriction)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetAll indicates an expected call of GetAll.
func (mr *MockRestrictionStoreMockRecorder) GetAll(ctx, query, limit, offset any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetAll", reflect.TypeOf((*MockRestrictionStore)(nil).GetAll), ctx, query, limit, offset)
}

// Remove mocks base method.
func (m *MockRestrictionStore) Remove(ctx context.Context, id string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Remove", ctx, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// Remove indicates an expected call of Remove.
func (mr *MockRestrictionStoreMockRecorder) Remove(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Remove", reflect.TypeOf((*MockRestrictionStore)(nil).Remove), ctx, id)
}

// RemoveAll mocks base method.
func (m *MockRestrictionStore) RemoveAll(ctx context.Context, zone, resource string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RemoveAll", ctx, zone, resource)
	ret0, _ := ret[0].(error)
	return ret0
}

// RemoveAll indicates an expected call of RemoveAll.
func (mr *MockRestrictionStoreMockRecorder) RemoveAll(ctx, zone, resource any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RemoveAll", reflect.TypeOf((*MockRestrictionStore)(nil).RemoveAll), ctx, zone, resource)
}

// FindMatching mocks base method.
func (m *MockRestrictionStore) FindMatching(ctx context.Context, zones, resources []string) ([]types.Restriction, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FindMatching", ctx, zones, resources)
	ret0, _ := ret[0].([]types.Restriction)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FindMatching indicates an expected call of FindMatching.
func (mr *MockRestrictionStoreMockRecorder) FindMatching(ctx, zones, resources any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FindMatching", reflect.TypeOf((*MockRestrictionStore)(nil).FindMatching), ctx, zones, resources)
}
