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

// Package errors contains the error kinds used across this module, plus
// zap-field-carrying wrappers so callers can log structured detail without
// polluting Error() strings. All packages should import this rather than
// the stdlib errors package directly.
//
// Due to how messy Is/As-equality is with value-typed errors, custom error
// kinds here are always pointer types.
package errors

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stdlib passthroughs, so call sites never need to import both packages.

func Is(err error, target error) bool { return errors.Is(err, target) }
func As(err error, target any) bool   { return errors.As(err, target) }
func New(message string) error        { return errors.New(message) }

type (
	inputValidation      struct{ error }
	notFound             struct{ error }
	duplicate            struct{ error }
	preconditionMismatch struct{ error }
	upstream             struct{ error }
	methodNotRegistered  struct{ error }
)

func (e *inputValidation) Unwrap() error      { return e.error }
func (e *notFound) Unwrap() error             { return e.error }
func (e *duplicate) Unwrap() error            { return e.error }
func (e *preconditionMismatch) Unwrap() error { return e.error }
func (e *upstream) Unwrap() error             { return e.error }
func (e *methodNotRegistered) Unwrap() error  { return e.error }

// InputValidation wraps an error caused by a caller-supplied value: a
// missing acquirerId, a malformed restriction, an unparseable duration.
// Surfaced to the caller as-is; never retried.
func InputValidation(format string, args ...any) error {
	return &inputValidation{fmt.Errorf(format, args...)}
}

// IsInputValidation reports whether err (or any wrapped cause) is an
// InputValidation error.
func IsInputValidation(err error) bool {
	var target *inputValidation
	return errors.As(err, &target)
}

// NotFound wraps a lookup miss, e.g. a restriction id that does not exist.
func NotFound(format string, args ...any) error {
	return &notFound{fmt.Errorf(format, args...)}
}

func IsNotFound(err error) bool {
	var target *notFound
	return errors.As(err, &target)
}

// Duplicate wraps a unique-index collision on insert.
func Duplicate(format string, args ...any) error {
	return &duplicate{fmt.Errorf(format, args...)}
}

func IsDuplicate(err error) bool {
	var target *duplicate
	return errors.As(err, &target)
}

// PreconditionMismatch wraps a failed optimistic-concurrency conditional
// write: the record was not in the state the caller expected. This is
// internal to the acquire/release retry loop and should not usually escape
// to a caller.
func PreconditionMismatch(format string, args ...any) error {
	return &preconditionMismatch{fmt.Errorf(format, args...)}
}

func IsPreconditionMismatch(err error) bool {
	var target *preconditionMismatch
	return errors.As(err, &target)
}

// Upstream wraps any other datastore or key-oracle failure, surfaced to
// the caller verbatim.
func Upstream(cause error) error {
	return &upstream{cause}
}

func IsUpstream(err error) bool {
	var target *upstream
	return errors.As(err, &target)
}

// MethodNotRegistered wraps a restriction referencing an unknown policy
// method name, surfaced by Matcher.
func MethodNotRegistered(method string) error {
	return &methodNotRegistered{fmt.Errorf("restriction method %q is not registered", method)}
}

func IsMethodNotRegistered(err error) bool {
	var target *methodNotRegistered
	return errors.As(err, &target)
}

// Details returns the "error_details" log field of an error, if present.
// Safe to call with any error, including nil.
func Details(err error) zap.Field {
	var logfields *logerr
	if errors.As(err, &logfields) {
		return logfields.Field()
	}
	return zap.Skip()
}

// WithDetails attaches log fields to an error for later retrieval via
// Details. If err is nil, nil is returned.
func WithDetails(err error, fields ...zap.Field) error {
	if err == nil {
		return nil
	}
	return &logerr{cause: err, fields: fields}
}

// logerr recursively accumulates zap.Field values attached to an error
// chain into a single flattened "error_details" object field.
type logerr struct {
	cause  error
	fields []zap.Field
}

var _ error = &logerr{}

func (l *logerr) Error() string { return l.cause.Error() }
func (l *logerr) Unwrap() error { return l.cause }

func (l *logerr) Field() zap.Field {
	return zap.Object("error_details", &zapobj{l.recursiveFields()})
}

func (l *logerr) recursiveFields() []zap.Field {
	var child *logerr
	if errors.As(l.cause, &child) {
		return append(l.fields, child.recursiveFields()...)
	}
	return l.fields
}

type zapobj struct {
	fields []zap.Field
}

var _ zapcore.ObjectMarshaler = &zapobj{}

func (z *zapobj) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	for _, f := range z.fields {
		f.AddTo(encoder)
	}
	return nil
}
