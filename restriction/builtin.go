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

	"github.com/digitalbazaar/bedrock-resource-restriction/common/errors"
	"github.com/digitalbazaar/bedrock-resource-restriction/common/types"
)

// MethodLimitOverDuration is the registered name of the built-in
// limit-over-duration policy.
const MethodLimitOverDuration = "limitOverDuration"

// limitOverDurationOptions mirrors the methodOptions shape
// {limit: int>0, duration: ISO-8601}.
type limitOverDurationOptions struct {
	Limit    int    `json:"limit"`
	Duration string `json:"duration"`
}

// LimitOverDuration enforces a ceiling on the sum of counts acquired
// within the last `duration` window for one resource.
func LimitOverDuration(_ context.Context, in Input) (types.PolicyResult, error) {
	opts, err := parseLimitOverDurationOptions(in.Restriction)
	if err != nil {
		return types.PolicyResult{}, err
	}

	window, err := ParseDuration(opts.Duration)
	if err != nil {
		return types.PolicyResult{}, err
	}
	windowMs := window.Milliseconds()
	start := in.Now.UnixMilli() - windowMs

	total := 0
	for _, item := range in.Acquired[in.Restriction.Resource] {
		if item.Requested >= start {
			total += item.Count
		}
	}
	for _, item := range in.Request {
		if item.Resource != in.Restriction.Resource {
			continue
		}
		if item.Requested >= start {
			total += item.Count
		}
	}

	excess := total - opts.Limit
	if excess < 0 {
		excess = 0
	}

	return types.PolicyResult{
		Authorized: excess == 0,
		Excess:     excess,
		TTL:        &windowMs,
	}, nil
}

func parseLimitOverDurationOptions(r types.Restriction) (limitOverDurationOptions, error) {
	var opts limitOverDurationOptions

	rawLimit, ok := r.MethodOptions["limit"]
	if !ok {
		return opts, errors.InputValidation("restriction %q: methodOptions.limit is required", r.ID)
	}
	limit, ok := toInt(rawLimit)
	if !ok || limit <= 0 {
		return opts, errors.InputValidation("restriction %q: methodOptions.limit must be a positive integer", r.ID)
	}
	opts.Limit = limit

	rawDuration, ok := r.MethodOptions["duration"]
	if !ok {
		return opts, errors.InputValidation("restriction %q: methodOptions.duration is required", r.ID)
	}
	duration, ok := rawDuration.(string)
	if !ok {
		return opts, errors.InputValidation("restriction %q: methodOptions.duration must be a string", r.ID)
	}
	opts.Duration = duration

	return opts, nil
}

// toInt accepts the numeric shapes methodOptions.limit might arrive as:
// a plain int (constructed directly in Go), or a float64 (decoded from
// JSON, whose numbers are always float64 under encoding/json's default
// unmarshal target).
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), n == float64(int(n))
	default:
		return 0, false
	}
}
