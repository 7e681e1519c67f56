// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// An optional pass for sanity-checking structural invariants of the IR,
// in the manner of go/ssa's sanity.go: it is not required for the pass to
// run, but it turns a malformed-module programming error into an early,
// readable diagnostic instead of a confusing failure three components
// later.

import (
	"fmt"
	"io"
	"strings"
)

type sanity struct {
	reporter io.Writer
	fn       *Function
	insane   bool
}

// CheckFunction reports whether fn's basic blocks are well-formed: each
// terminates in exactly one Return, and every Return sits last.
// Diagnostics are written to reporter (os.Stderr-equivalent left to the
// caller; nil is treated as a no-op sink, i.e. the caller only wants the
// bool).
func CheckFunction(fn *Function, reporter io.Writer) bool {
	if reporter == nil {
		reporter = io.Discard
	}
	return (&sanity{reporter: reporter, fn: fn}).checkFunction()
}

func (s *sanity) errorf(format string, args ...any) {
	s.insane = true
	fmt.Fprintf(s.reporter, "error: function %s: %s\n", s.fn.Name, fmt.Sprintf(format, args...))
}

func (s *sanity) checkFunction() bool {
	s.insane = false
	if s.fn.IsDeclaration() {
		return true
	}
	for _, b := range s.fn.Blocks {
		s.checkBlock(b)
	}
	return !s.insane
}

func (s *sanity) checkBlock(b *BasicBlock) {
	if len(b.Instrs) == 0 {
		s.errorf("block %s is empty", b.Name)
		return
	}
	for i, inst := range b.Instrs {
		last := i == len(b.Instrs)-1
		if IsTerminator(inst) && !last {
			s.errorf("block %s: Return is not the last instruction", b.Name)
		}
		if !IsTerminator(inst) && last {
			s.errorf("block %s: last instruction is not a Return", b.Name)
		}
		if inst.Block() != b {
			s.errorf("block %s: instruction %s has wrong parent block", b.Name, inst)
		}
	}
}

// CheckModule runs CheckFunction over every defined function and collects
// all failing names; a module with no failures has an empty (nil) result.
func CheckModule(m *Module, reporter io.Writer) []string {
	var bad []string
	for _, f := range m.Functions {
		if !CheckFunction(f, reporter) {
			bad = append(bad, f.Name)
		}
	}
	return bad
}

// MustCheckModule is like CheckModule but panics, naming the offending
// functions, if any fail.
func MustCheckModule(m *Module) {
	if bad := CheckModule(m, io.Discard); len(bad) > 0 {
		panic("ir: sanity check failed for functions: " + strings.Join(bad, ", "))
	}
}
