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
	"regexp"
	"strconv"
	"time"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/errors"
)

// durationPattern matches ISO-8601 durations of the form
// P[nY][nM][nD][T[nH][nM][nS]] or PnW. At least one component must be
// present.
var durationPattern = regexp.MustCompile(
	`^P(?:(\d+)W|(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?)$`,
)

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
	msPerWeek   = 7 * msPerDay
	// msPerMonth/msPerYear use the same fixed-average convention the
	// built-in policy's window math relies on; ISO-8601 doesn't fix
	// these lengths either.
	msPerMonth = 30 * msPerDay
	msPerYear  = 365 * msPerDay
)

// ParseDuration converts an ISO-8601 duration string into a millisecond
// window. Returns an InputValidation error for anything that doesn't
// match the supported grammar.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.InputValidation("duration must not be empty")
	}

	m := matchDuration(s)
	if m == nil {
		return 0, errors.InputValidation("duration %q is not a supported ISO-8601 duration", s)
	}

	if m.weeks > 0 {
		return time.Duration(m.weeks) * msPerWeek * time.Millisecond, nil
	}

	var totalMs int64
	totalMs += int64(m.years) * msPerYear
	totalMs += int64(m.months) * msPerMonth
	totalMs += int64(m.days) * msPerDay
	totalMs += int64(m.hours) * msPerHour
	totalMs += int64(m.minutes) * msPerMinute
	totalMs += int64(m.seconds) * msPerSecond

	if totalMs == 0 {
		return 0, errors.InputValidation("duration %q has no components", s)
	}
	return time.Duration(totalMs) * time.Millisecond, nil
}

type durationComponents struct {
	weeks, years, months, days, hours, minutes, seconds int
}

func matchDuration(s string) *durationComponents {
	groups := durationPattern.FindStringSubmatch(s)
	if groups == nil {
		return nil
	}
	toInt := func(s string) int {
		if s == "" {
			return 0
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0
		}
		return n
	}
	return &durationComponents{
		weeks:   toInt(groups[1]),
		years:   toInt(groups[2]),
		months:  toInt(groups[3]),
		days:    toInt(groups[4]),
		hours:   toInt(groups[5]),
		minutes: toInt(groups[6]),
		seconds: toInt(groups[7]),
	}
}
