// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instrument

import "github.com/Frankenween/ssa-ptr-track/ir"

// implementAllInterestingDeclarations is the declaration realizer: for
// every declared-only function whose signature touches an interesting
// type, it synthesizes a worst-case body standing in for whatever the
// real, externally-linked implementation might do.
//
// Restored unconditionally, as the earlier main.cpp revision had it (see
// SPEC_FULL.md §4; a later revision disabled this behind a FIXME that is
// not carried forward as a Non-goal here).
func (p *Pass) implementAllInterestingDeclarations() int {
	realized := 0
	for _, fn := range p.Module.Functions {
		if !fn.IsDeclaration() || p.isNew(fn) {
			continue
		}
		if !p.functionTouchesInteresting(fn.Sig) {
			continue
		}
		p.createStubForDeclaredFunction(fn)
		realized++
	}
	return realized
}

// createStubForDeclaredFunction gives fn a body (turning it from a
// declaration into a definition in place): for every parameter of
// pointer-to-interesting type R, it performs a bidirectional record-copy
// between the parameter and S(R), modeling the worst case that the external
// implementation both reads and writes through that pointer. The body
// returns a default value built the same way the caller generator does.
func (p *Pass) createStubForDeclaredFunction(fn *ir.Function) {
	bb := fn.NewBlock("entry")

	for i, paramType := range fn.Sig.Params {
		rec, ok := ir.AsPointerToRecord(paramType)
		if !ok || !p.filter.IsInterestingType(&ir.RecordType{Record: rec}) {
			continue
		}
		singleton := p.singletons[rec]
		if singleton == nil {
			continue
		}
		elem := paramType.(*ir.PointerType).Elem
		param := fn.Arg(i)
		// in: external body may write through the parameter; reflect that
		// write into the singleton.
		p.emitCopy(bb, elem, singleton, param)
		// out: external body may also have read a prior write through the
		// singleton; reflect it back into the caller-visible memory.
		p.emitCopy(bb, elem, param, singleton)
	}

	ret := p.constructTypeValue(fn.Sig.Ret)
	if ret == nil {
		bb.Emit(&ir.Return{})
	} else {
		bb.Emit(&ir.Return{Val: ret})
	}
}
