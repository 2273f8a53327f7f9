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
	"context"
	"time"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/types"
)

// Func is a registered policy implementation. It is pure decision logic:
// any I/O it needs (additional untokenized acquisitions) goes through
// Input.GetAcquisitionMap rather than a store handle, so policies stay
// independently unit-testable.
type Func func(ctx context.Context, in Input) (types.PolicyResult, error)

// Input is everything a Func needs to decide.
type Input struct {
	AcquirerID  string
	Acquired    map[string]types.AcquisitionList // resource -> stored acquisitions, for resources named in Request
	Request     []types.RequestItem
	Zones       []string
	Restriction types.Restriction
	Now         time.Time

	// GetAcquisitionMap supplies untokenized acquisitions for resource
	// ids the policy cares about that may not be in Request.
	GetAcquisitionMap func(ctx context.Context, resourceIDs []string) (map[string]types.AcquisitionList, error)
}

// policy pairs a stored restriction with its resolved Func, as produced
// by the Matcher.
type policy struct {
	restriction types.Restriction
	fn          Func
}
