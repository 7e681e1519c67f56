// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diag is the pass's diagnostics sink: remediable situations
// (a missing singleton during type-value construction, an interesting
// record returned or accepted by value) emit a line here and the pass
// continues; programming errors (a record type with no function-pointer
// field at the requested index, an unknown type) fail fast. This replaces
// the original pass's `outs() << "..."` idiom with something tests can
// assert on instead of scraping stdout.
package diag

import (
	"fmt"

	errors "golang.org/x/xerrors"
)

// Notice is one non-fatal diagnostic emitted while the pass ran.
type Notice struct {
	Component string // e.g. "caller", "scrub", "stub"
	Message   string
}

func (n Notice) String() string { return fmt.Sprintf("%s: %s", n.Component, n.Message) }

// Sink collects Notices for the duration of one pass invocation; pass
// state is instance-scoped, so a fresh Sink belongs to each Pass.
type Sink struct {
	Notices []Notice
}

// Warnf records a non-fatal diagnostic for component.
func (s *Sink) Warnf(component, format string, args ...any) {
	s.Notices = append(s.Notices, Notice{Component: component, Message: fmt.Sprintf(format, args...)})
}

// Fatal is a wrapped, fail-fast programming error: a record type with no
// function-pointer field at the requested index, or an unknown type
// encountered while constructing a default value, are both reported this
// way, by panicking with a Fatal wrapping the detail via golang.org/x/xerrors,
// so the chain survives up to the pass's Recover and from there to main's log.
type Fatal struct {
	err error
}

func (f *Fatal) Error() string { return f.err.Error() }
func (f *Fatal) Unwrap() error { return f.err }

// Fail wraps a fail-fast internal error and panics with it, the only case
// in which an error propagates out of the pass at all: no error reaches
// the host pipeline except one of these internal, programming-bug errors.
func Fail(format string, args ...any) {
	panic(&Fatal{err: errors.Errorf(format, args...)})
}

// Recover turns a panicking *Fatal into a plain error, for callers (tests,
// cmd/structprep) that want to report it without crashing the process.
// Non-Fatal panics are re-raised unchanged.
func Recover(errp *error) {
	if r := recover(); r != nil {
		if f, ok := r.(*Fatal); ok {
			*errp = f
			return
		}
		panic(r)
	}
}
