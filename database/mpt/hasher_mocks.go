// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package mpt

import (
	reflect "reflect"

	common "github.com/Fantom-foundation/mptnode/common"
	gomock "go.uber.org/mock/gomock"
)

// MockHasher is a mock of Hasher interface.
type MockHasher struct {
	ctrl     *gomock.Controller
	recorder *MockHasherMockRecorder
}

// MockHasherMockRecorder is the mock recorder for MockHasher.
type MockHasherMockRecorder struct {
	mock *MockHasher
}

// NewMockHasher creates a new mock instance.
func NewMockHasher(ctrl *gomock.Controller) *MockHasher {
	mock := &MockHasher{ctrl: ctrl}
	mock.recorder = &MockHasherMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockHasher) EXPECT() *MockHasherMockRecorder {
	return m.recorder
}

// HashBranch mocks base method.
func (m *MockHasher) HashBranch(children ChildBitmap, hashes *[NumChildren]common.Hash) common.Hash {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "HashBranch", children, hashes)
	ret0, _ := ret[0].(common.Hash)
	return ret0
}

// HashBranch indicates an expected call of HashBranch.
func (mr *MockHasherMockRecorder) HashBranch(children, hashes any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "HashBranch", reflect.TypeOf((*MockHasher)(nil).HashBranch), children, hashes)
}

// HashExtension mocks base method.
func (m *MockHasher) HashExtension(path []Nibble, child common.Hash) common.Hash {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "HashExtension", path, child)
	ret0, _ := ret[0].(common.Hash)
	return ret0
}

// HashExtension indicates an expected call of HashExtension.
func (mr *MockHasherMockRecorder) HashExtension(path, child any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "HashExtension", reflect.TypeOf((*MockHasher)(nil).HashExtension), path, child)
}

// HashLeaf mocks base method.
func (m *MockHasher) HashLeaf(path []Nibble, value []byte) common.Hash {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "HashLeaf", path, value)
	ret0, _ := ret[0].(common.Hash)
	return ret0
}

// HashLeaf indicates an expected call of HashLeaf.
func (mr *MockHasherMockRecorder) HashLeaf(path, value any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "HashLeaf", reflect.TypeOf((*MockHasher)(nil).HashLeaf), path, value)
}
