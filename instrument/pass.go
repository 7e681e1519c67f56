// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package instrument is the core struct-instrumentation pass: it makes
// every indirect call through a function-pointer field of a record type
// resolvable to a finite, statically-discoverable set of candidate
// callees, by building a singleton "observation point" per interesting
// record type and routing every relevant flow through it.
package instrument

import (
	"fmt"

	"github.com/Frankenween/ssa-ptr-track/internal/diag"
	"github.com/Frankenween/ssa-ptr-track/ir"
	"github.com/Frankenween/ssa-ptr-track/typegraph"
)

// fieldKey identifies one (record, field index) pair, the stub map's key,
// in the manner of instrument_ir.cpp's std::map<std::pair<StructType*,
// size_t>, Function*>.
type fieldKey struct {
	rec *ir.Record
	idx int
}

// Pass holds all per-invocation state: the singleton/stub maps, the
// synthetic global-initializer and caller functions, and accumulated
// statistics. A Pass must not be reused across modules.
type Pass struct {
	Prefix string
	Module *ir.Module
	Diag   *diag.Sink

	filter     *typegraph.Filter
	singletons map[*ir.Record]*ir.Global
	stubs      map[fieldKey]*ir.Function
	newFuncs   map[*ir.Function]bool

	globalInit   *ir.Function
	globalInitBB *ir.BasicBlock
	caller       *ir.Function
	callerBB     *ir.BasicBlock

	negAddr int64 // next address for replaceAllNegativeGEPs; starts at 1024

	// SkipSanityCheck disables the post-Run structural invariant check
	// (ir.MustCheckModule) over the rewritten module. Leave false except
	// when the module is large enough that the extra pass over every
	// function's blocks is measurably expensive.
	SkipSanityCheck bool

	stats Stats
}

// New returns a Pass ready to instrument m. prefix names every synthetic
// symbol the pass produces.
func New(prefix string, m *ir.Module) *Pass {
	return &Pass{
		Prefix:     prefix,
		Module:     m,
		Diag:       &diag.Sink{},
		singletons: make(map[*ir.Record]*ir.Global),
		stubs:      make(map[fieldKey]*ir.Function),
		newFuncs:   make(map[*ir.Function]bool),
		negAddr:    1024,
	}
}

// Run executes the pass end to end, mirroring StructVisitorPass::runOnModule
// in instrument_ir.cpp, and reports whether the module was mutated. It
// always returns true: the global initializer and caller functions are
// unconditionally created, even over a module with no interesting types.
//
// A fail-fast internal error is recovered here and returned as err instead
// of crashing the host pipeline; any other panic propagates.
func (p *Pass) Run() (mutated bool, err error) {
	defer diag.Recover(&err)

	p.filter = typegraph.Build(p.Module)
	p.stats.InterestingTypes = p.filter.Len()

	p.createGlobalInitializer()
	p.createFunctionCaller()

	for _, rec := range p.filter.Interesting(p.Module) {
		p.createSingleton(rec)
	}
	p.stats.Singletons = len(p.singletons)

	p.fillSingletons()
	p.stats.Stubs = len(p.stubs)

	p.stats.GEPsScrubbed = p.replaceAllNegativeGEPs()
	p.Diag.Warnf("scrub", "negative field-offsets replaced: %d", p.stats.GEPsScrubbed)

	p.stats.CastsScrubbed = p.replaceRestrictedCasts()

	p.detectAllGlobals()

	// Declaration realizer runs before the call-site generator: a declared-
	// only function only becomes a legitimate call target once it has a
	// body, since propagateSingletons needs the realized body to already
	// exist when it walks the module and wires the synthetic caller's
	// calls to it.
	p.stats.Declarations = p.implementAllInterestingDeclarations()

	p.stats.CallerCoverage = p.propagateSingletons()

	p.finalizeGlobalInitializer()
	p.finalizeFunctionCaller()

	if !p.SkipSanityCheck {
		ir.MustCheckModule(p.Module)
	}

	return true, nil
}

// Stats reports counters accumulated by the most recent Run.
func (p *Pass) Stats() Stats { return p.stats }

// isNew reports whether fn belongs to the set of functions this pass (or a
// prior Run over this same Module) itself synthesized: such functions are
// skipped by every pass that scans "original" code (the scrubber, the
// caller generator, the declaration realizer). fn.Synthetic is checked
// directly, not just p.newFuncs, so a function synthesized by an earlier
// Run over this same Module, not just by this Pass instance, is still
// recognized and excluded.
func (p *Pass) isNew(fn *ir.Function) bool { return fn.Synthetic || p.newFuncs[fn] }

func (p *Pass) markNew(fn *ir.Function) {
	fn.Synthetic = true
	p.newFuncs[fn] = true
}

// functionTouchesInteresting reports whether any parameter or the return
// type of sig is an interesting record or pointer-to-interesting-record
// (instrument_ir.cpp's functionContainsInterestingStruct).
func (p *Pass) functionTouchesInteresting(sig *ir.FuncType) bool {
	if p.filter.IsInterestingTypeOrPtr(sig.Ret) {
		return true
	}
	for _, param := range sig.Params {
		if p.filter.IsInterestingTypeOrPtr(param) {
			return true
		}
	}
	return false
}

// constructTypeValue builds a default argument/return value for t, using a
// singleton wherever possible (instrument_ir.cpp's constructTypeValue).
// Flow-insensitivity is assumed of the downstream analysis, so any value
// that routes through the right singleton is as good as any other.
func (p *Pass) constructTypeValue(t ir.Type) ir.Value {
	switch t := t.(type) {
	case *ir.IntType:
		return &ir.ConstInt{Typ: t, Val: 0}
	case *ir.RecordType:
		if s, ok := p.singletons[t.Record]; ok {
			return s
		}
		// Edge case: no singleton exists for this record (e.g. an opaque
		// return-value type used only by an external declaration). Yield
		// the type's own zero constant.
		p.Diag.Warnf("value", "no singleton for record %s; using its zero value", t.Record.Name)
		return &ir.ConstZeroRecord{Typ: t}
	case *ir.PointerType:
		if rec, ok := ir.AsRecord(t.Elem); ok && p.filter.IsInterestingType(&ir.RecordType{Record: rec}) {
			if s, ok := p.singletons[rec]; ok {
				return s
			}
		}
		return &ir.ConstNull{Typ: t}
	case *ir.VoidType:
		return nil
	default:
		// Unknown type while constructing a default value: a programming
		// error, since every type in a well-formed module is one of the
		// above.
		diag.Fail("constructTypeValue: unknown type %s", t)
		panic("unreachable")
	}
}

func (p *Pass) createGlobalInitializer() {
	p.globalInit = &ir.Function{
		Name: globalInitializerName(p.Prefix),
		Sig:  &ir.FuncType{Ret: &ir.VoidType{}},
	}
	p.markNew(p.globalInit)
	p.globalInitBB = p.globalInit.NewBlock("entry")
	p.Module.AddFunction(p.globalInit)
}

func (p *Pass) finalizeGlobalInitializer() {
	p.globalInitBB.Emit(&ir.Return{})
}

func (p *Pass) createFunctionCaller() {
	p.caller = &ir.Function{
		Name: callerName(p.Prefix),
		Sig:  &ir.FuncType{Ret: &ir.VoidType{}},
	}
	p.markNew(p.caller)
	p.callerBB = p.caller.NewBlock("entry")
	p.Module.AddFunction(p.caller)
}

func (p *Pass) finalizeFunctionCaller() {
	p.callerBB.Emit(&ir.Return{})
}

// emitCopy appends a MemCopy(dst, src) of T's size to bb, in the manner of
// util.cpp's copyStructBetweenPointers.
func (p *Pass) emitCopy(bb *ir.BasicBlock, t ir.Type, dst, src ir.Value) {
	bb.Emit(&ir.MemCopy{Dst: dst, Src: src, Size: p.Module.SizeOf(t)})
}

// SingletonOf exposes the record -> singleton mapping for tests and for
// report rendering; nil if rec has no singleton (not interesting, or
// pruned by liveness).
func (p *Pass) SingletonOf(rec *ir.Record) *ir.Global { return p.singletons[rec] }

// Stats summarizes one pass run for the report package.
type Stats struct {
	InterestingTypes int
	Singletons       int
	Stubs            int
	GEPsScrubbed     int
	CastsScrubbed    int
	CallerCoverage   int
	Declarations     int
}

func (s Stats) String() string {
	return fmt.Sprintf(
		"interesting=%d singletons=%d stubs=%d geps=%d casts=%d caller=%d decls=%d",
		s.InterestingTypes, s.Singletons, s.Stubs, s.GEPsScrubbed, s.CastsScrubbed,
		s.CallerCoverage, s.Declarations,
	)
}
