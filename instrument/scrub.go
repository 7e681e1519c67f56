// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instrument

import (
	"sync/atomic"

	"github.com/Frankenween/ssa-ptr-track/ir"
)

// replaceAllNegativeGEPs: a field-offset computation with a negative
// constant index is the signature of a container-of idiom, which breaks
// field-sensitive pointer analysis. Each one is replaced with an
// integer-to-pointer cast of a fresh, large, per-replacement address
// (instrument_ir.cpp's replaceAllNegativeGEPs starts at 1024 and
// increments by 1024 for each replacement; here the counter lives on the
// Pass, not a C++ function-local static, since pass state is
// instance-scoped).
//
// This must run before replaceRestrictedCasts: the cast-scrubber is what
// actually retargets any subsequent cast of the replacement pointer to the
// right singleton, and that ordering matters.
//
// The address counter is shared across every function, so this walk runs
// sequentially rather than through the errgroup fan-out replaceRestrictedCasts
// uses.
func (p *Pass) replaceAllNegativeGEPs() int {
	total := 0
	for _, fn := range p.Module.Functions {
		if p.isNew(fn) || fn.IsDeclaration() {
			continue
		}
		total += p.replaceNegativeGEPsInFunction(fn)
	}
	return total
}

func (p *Pass) replaceNegativeGEPsInFunction(fn *ir.Function) int {
	replaced := 0
	for _, b := range fn.Blocks {
		for i, inst := range b.Instrs {
			gep, ok := inst.(*ir.FieldAddr)
			if !ok || !gep.NegativeIndex() {
				continue
			}
			addrConst := &ir.ConstInt{Typ: &ir.IntType{Bits: 64}, Val: p.negAddr}
			p.negAddr += 1024
			replacement := &ir.IntToPtr{
				Name: p.Module.Temp("negaddr"),
				X:    addrConst,
				Typ:  gep.Typ,
			}
			// Emit appends (and sets the parent block); move the replacement
			// into the FieldAddr's slot so it stays ahead of its uses and the
			// block's Return stays last.
			b.Emit(replacement)
			b.Instrs = b.Instrs[:len(b.Instrs)-1]
			b.Instrs[i] = replacement
			rewireUses(fn, gep, replacement)
			replaced++
		}
	}
	return replaced
}

// replaceRestrictedCasts rewrites bit-casts that can leak a pointer into
// or out of an interesting record's shape so that the cast result becomes
// a use of the singleton. Run after singletons exist (instrument_ir.cpp's
// replaceRestrictedCasts).
//
// Each function's scrub is independent of every other's (no shared
// counter, unlike replaceAllNegativeGEPs), so this fans out one goroutine
// per function bounded by GOMAXPROCS, in the
// `var g errgroup.Group; g.SetLimit(n)` shape
// go/packages/internal/linecount/linecount.go uses for its own
// embarrassingly-parallel per-package walk.
func (p *Pass) replaceRestrictedCasts() int {
	var total int64
	runParallelOverFunctions(p.Module, p.isNew, func(fn *ir.Function) {
		atomic.AddInt64(&total, int64(p.scrubCastsInFunction(fn)))
	})
	return int(total)
}

func (p *Pass) scrubCastsInFunction(fn *ir.Function) int {
	scrubbed := 0
	for _, b := range fn.Blocks {
		remove := make(map[ir.Instruction]bool)
		for _, inst := range b.Instrs {
			cast, ok := inst.(*ir.BitCast)
			if !ok {
				continue
			}
			scrubbed += p.scrubOneCast(fn, b, cast, remove)
		}
		removeInstrs(b, remove)
	}
	return scrubbed
}

func (p *Pass) scrubOneCast(fn *ir.Function, b *ir.BasicBlock, cast *ir.BitCast, remove map[ir.Instruction]bool) int {
	// SrcT* -> InterestingT*: every use of the cast result becomes a use
	// of the singleton, and the cast itself disappears entirely, per the
	// testable invariant that no bit-cast left in the rewritten module has
	// a destination type that is a pointer to an interesting record.
	//
	// This applies even when the use sits inside a field-offset
	// computation's Base operand: the open question of whether to skip GEP
	// users is resolved in favor of keeping them included (see DESIGN.md).
	if p.filter.IsPtrToInterestingType(cast.Typ) {
		rec := ir.DereferenceRecordPtr(cast.Typ)
		rewireUses(fn, cast, p.singletons[rec])
		remove[cast] = true
		return 1
	}

	// T* -> X**: X** is only ever going to be used for a load, so replace
	// each such load's result with the singleton and drop the load. The
	// BitCast itself is not banned by the invariant above (its destination
	// is a pointer to a pointer, not a pointer to a record) and is left in
	// place, unused.
	destElem, ok := cast.Typ.(*ir.PointerType)
	if !ok || !p.filter.IsPtrToInterestingType(destElem.Elem) {
		return 0
	}
	rec := ir.DereferenceRecordPtr(destElem.Elem)
	scrubbed := 0
	for _, other := range b.Instrs {
		load, ok := other.(*ir.Load)
		if !ok || load.Addr != ir.Value(cast) {
			continue
		}
		rewireUses(fn, load, p.singletons[rec])
		remove[load] = true
		scrubbed++
	}
	return scrubbed
}
