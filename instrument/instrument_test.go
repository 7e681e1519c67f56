// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instrument

import (
	"testing"

	"github.com/Frankenween/ssa-ptr-track/ir"
)

func i32() *ir.IntType { return &ir.IntType{Bits: 32} }

// buildFillerCallerModule builds a record R with two function-pointer
// fields f1, f2. fillA writes &a to R.f1, fillB writes &b to R.f2. call(v
// *R) loads and calls through both fields.
func buildFillerCallerModule(t *testing.T) (*ir.Module, *ir.Record) {
	t.Helper()
	m := ir.NewModule()

	cbType := &ir.FuncType{Ret: &ir.VoidType{}}
	rPtrType := func(rec *ir.Record) *ir.PointerType { return &ir.PointerType{Elem: &ir.RecordType{Record: rec}} }

	rType := m.AddRecord(&ir.Record{Name: "R", Fields: []ir.Field{
		{Name: "f1", Type: &ir.PointerType{Elem: cbType}},
		{Name: "f2", Type: &ir.PointerType{Elem: cbType}},
	}})
	rRec := rType.Record

	a := &ir.Function{Name: "a", Sig: &ir.FuncType{Ret: &ir.VoidType{}}}
	a.NewBlock("entry").Emit(&ir.Return{})
	m.AddFunction(a)

	b := &ir.Function{Name: "b", Sig: &ir.FuncType{Ret: &ir.VoidType{}}}
	b.NewBlock("entry").Emit(&ir.Return{})
	m.AddFunction(b)

	fillA := &ir.Function{Name: "fillA", Sig: &ir.FuncType{Ret: &ir.VoidType{}, Params: []ir.Type{rPtrType(rRec)}}}
	fillA.Params = []*ir.Param{{Name: "r", Typ: rPtrType(rRec), Parent: fillA}}
	{
		bb := fillA.NewBlock("entry")
		addr := bb.Emit(&ir.FieldAddr{Name: "addr", Base: fillA.Params[0], Indices: []int64{0}, Typ: &ir.PointerType{Elem: &ir.PointerType{Elem: cbType}}}).(ir.Value)
		bb.Emit(&ir.Store{Addr: addr, Val: &ir.ConstFuncAddr{Fn: a}})
		bb.Emit(&ir.Return{})
	}
	m.AddFunction(fillA)

	fillB := &ir.Function{Name: "fillB", Sig: &ir.FuncType{Ret: &ir.VoidType{}, Params: []ir.Type{rPtrType(rRec)}}}
	fillB.Params = []*ir.Param{{Name: "r", Typ: rPtrType(rRec), Parent: fillB}}
	{
		bb := fillB.NewBlock("entry")
		addr := bb.Emit(&ir.FieldAddr{Name: "addr", Base: fillB.Params[0], Indices: []int64{1}, Typ: &ir.PointerType{Elem: &ir.PointerType{Elem: cbType}}}).(ir.Value)
		bb.Emit(&ir.Store{Addr: addr, Val: &ir.ConstFuncAddr{Fn: b}})
		bb.Emit(&ir.Return{})
	}
	m.AddFunction(fillB)

	call := &ir.Function{Name: "call", Sig: &ir.FuncType{Ret: &ir.VoidType{}, Params: []ir.Type{rPtrType(rRec)}}}
	call.Params = []*ir.Param{{Name: "v", Typ: rPtrType(rRec), Parent: call}}
	{
		bb := call.NewBlock("entry")
		a1 := bb.Emit(&ir.FieldAddr{Name: "a1", Base: call.Params[0], Indices: []int64{0}, Typ: &ir.PointerType{Elem: &ir.PointerType{Elem: cbType}}}).(ir.Value)
		f1 := bb.Emit(&ir.Load{Name: "f1", Addr: a1, Typ: &ir.PointerType{Elem: cbType}}).(ir.Value)
		bb.Emit(&ir.Call{Name: "c1", Callee: f1, Typ: &ir.VoidType{}})
		a2 := bb.Emit(&ir.FieldAddr{Name: "a2", Base: call.Params[0], Indices: []int64{1}, Typ: &ir.PointerType{Elem: &ir.PointerType{Elem: cbType}}}).(ir.Value)
		f2 := bb.Emit(&ir.Load{Name: "f2", Addr: a2, Typ: &ir.PointerType{Elem: cbType}}).(ir.Value)
		bb.Emit(&ir.Call{Name: "c2", Callee: f2, Typ: &ir.VoidType{}})
		bb.Emit(&ir.Return{})
	}
	m.AddFunction(call)

	return m, rRec
}

func TestRunSingletonAndStubInvariants(t *testing.T) {
	m, rRec := buildFillerCallerModule(t)
	p := New("pfx", m)
	if _, err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	singleton := p.SingletonOf(rRec)
	if singleton == nil {
		t.Fatal("R should have a singleton")
	}
	if singleton.Name != "pfx_R_singleton" {
		t.Errorf("singleton name = %q, want pfx_R_singleton", singleton.Name)
	}
	if singleton.Linkage != ir.InternalLinkage {
		t.Errorf("singleton linkage = %v, want internal", singleton.Linkage)
	}

	cs, ok := singleton.Init.(*ir.ConstStruct)
	if !ok {
		t.Fatalf("singleton initializer is %T, want *ir.ConstStruct", singleton.Init)
	}
	if len(cs.Fields) != 2 {
		t.Fatalf("singleton initializer has %d fields, want 2", len(cs.Fields))
	}
	for i, want := range []string{"pfx_R_0_stub", "pfx_R_1_stub"} {
		fa, ok := cs.Fields[i].(*ir.ConstFuncAddr)
		if !ok || fa.Fn.Name != want {
			t.Errorf("field %d initializer = %v, want func addr of %s", i, cs.Fields[i], want)
		}
	}

	for _, idx := range []int{0, 1} {
		stub := m.FindFunction(stubName("pfx", "R", idx))
		if stub == nil {
			t.Errorf("missing stub for field %d", idx)
		}
	}
}

func TestRunCallerCoverage(t *testing.T) {
	m, _ := buildFillerCallerModule(t)
	p := New("pfx", m)
	if _, err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	caller := m.FindFunction(callerName("pfx"))
	if caller == nil {
		t.Fatal("missing synthetic caller function")
	}
	covered := map[string]bool{}
	for _, b := range caller.Blocks {
		for _, inst := range b.Instrs {
			if call, ok := inst.(*ir.Call); ok {
				if fn := call.StaticCallee(); fn != nil {
					covered[fn.Name] = true
				}
			}
		}
	}
	for _, want := range []string{"fillA", "fillB", "call"} {
		if !covered[want] {
			t.Errorf("synthetic caller does not call %s", want)
		}
	}
	if covered["a"] || covered["b"] {
		t.Errorf("synthetic caller should not call a/b directly (their signatures don't touch R)")
	}
	if got, want := p.Stats().CallerCoverage, 3; got != want {
		t.Errorf("CallerCoverage = %d, want %d", got, want)
	}
}

// TestNegativeGEPScrubbed checks that a container-of computation (negative
// FieldAddr index) does not survive the pass.
func TestNegativeGEPScrubbed(t *testing.T) {
	m := ir.NewModule()
	cbType := &ir.FuncType{Ret: &ir.VoidType{}}
	innerT := m.AddRecord(&ir.Record{Name: "Inner", Fields: []ir.Field{{Name: "x", Type: i32()}}})
	outerT := m.AddRecord(&ir.Record{Name: "Outer", Fields: []ir.Field{
		{Name: "in", Type: innerT},
		{Name: "cb", Type: &ir.PointerType{Elem: cbType}},
	}})

	fn := &ir.Function{Name: "containerOf", Sig: &ir.FuncType{
		Ret:    &ir.PointerType{Elem: outerT},
		Params: []ir.Type{&ir.PointerType{Elem: innerT}},
	}}
	fn.Params = []*ir.Param{{Name: "in", Typ: &ir.PointerType{Elem: innerT}, Parent: fn}}
	bb := fn.NewBlock("entry")
	outerPtr := bb.Emit(&ir.FieldAddr{Name: "outer", Base: fn.Params[0], Indices: []int64{-1}, Typ: &ir.PointerType{Elem: outerT}}).(ir.Value)
	bb.Emit(&ir.Return{Val: outerPtr})
	m.AddFunction(fn)

	p := New("pfx", m)
	if _, err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, b := range fn.Blocks {
		for _, inst := range b.Instrs {
			if fa, ok := inst.(*ir.FieldAddr); ok && fa.NegativeIndex() {
				t.Errorf("negative FieldAddr survived scrubbing: %s", fa)
			}
		}
	}
	if p.Stats().GEPsScrubbed != 1 {
		t.Errorf("GEPsScrubbed = %d, want 1", p.Stats().GEPsScrubbed)
	}
}

// TestDeclaredOnlyExternalRealized checks that a declared-only function
// whose signature touches an interesting record gets a synthesized body
// and becomes a legitimate target of the synthetic caller.
func TestDeclaredOnlyExternalRealized(t *testing.T) {
	m := ir.NewModule()
	cbType := &ir.FuncType{Ret: &ir.VoidType{}}
	sT := m.AddRecord(&ir.Record{Name: "S", Fields: []ir.Field{
		{Name: "cb", Type: &ir.PointerType{Elem: cbType}},
	}})
	sRec := sT.Record

	ext := &ir.Function{Name: "external_consume", Sig: &ir.FuncType{
		Ret:    &ir.VoidType{},
		Params: []ir.Type{&ir.PointerType{Elem: sT}},
	}}
	ext.Params = []*ir.Param{{Name: "s", Typ: &ir.PointerType{Elem: sT}, Parent: ext}}
	m.AddFunction(ext) // no blocks: declaration only

	p := New("pfx", m)
	if _, err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if ext.IsDeclaration() {
		t.Fatal("external_consume should have a synthesized body")
	}
	var copies int
	for _, inst := range ext.Blocks[0].Instrs {
		if mc, ok := inst.(*ir.MemCopy); ok {
			singleton := p.SingletonOf(sRec)
			if mc.Dst == ir.Value(singleton) || mc.Src == ir.Value(singleton) {
				copies++
			}
		}
	}
	if copies != 2 {
		t.Errorf("expected 2 bidirectional copies with the singleton, got %d", copies)
	}

	caller := m.FindFunction(callerName("pfx"))
	found := false
	for _, inst := range caller.Blocks[0].Instrs {
		if call, ok := inst.(*ir.Call); ok && call.StaticCallee() == ext {
			found = true
		}
	}
	if !found {
		t.Error("synthetic caller should call the now-realized external_consume")
	}
}

// TestNestedInterestingByValue checks that a record nested by value inside
// another interesting record gets its own singleton, aliased bidirectionally
// with the outer singleton's occurrence of that field.
func TestNestedInterestingByValue(t *testing.T) {
	m := ir.NewModule()
	cbType := &ir.FuncType{Ret: &ir.VoidType{}}
	innerT := m.AddRecord(&ir.Record{Name: "Inner", Fields: []ir.Field{
		{Name: "cb", Type: &ir.PointerType{Elem: cbType}},
	}})
	innerRec := innerT.Record
	outerT := m.AddRecord(&ir.Record{Name: "Outer", Fields: []ir.Field{
		{Name: "in", Type: innerT},
	}})
	outerRec := outerT.Record

	// Give Outer and Inner each a live mention: liveness only marks types a
	// function signature or instruction directly names, not types reachable
	// merely by nesting, so Inner needs its own mention or it is pruned
	// even though it seeds the interesting set.
	fn := &ir.Function{Name: "touch", Sig: &ir.FuncType{
		Ret:    &ir.VoidType{},
		Params: []ir.Type{&ir.PointerType{Elem: outerT}},
	}}
	fn.Params = []*ir.Param{{Name: "o", Typ: &ir.PointerType{Elem: outerT}, Parent: fn}}
	fn.NewBlock("entry").Emit(&ir.Return{})
	m.AddFunction(fn)

	touchInner := &ir.Function{Name: "touchInner", Sig: &ir.FuncType{
		Ret:    &ir.VoidType{},
		Params: []ir.Type{&ir.PointerType{Elem: innerT}},
	}}
	touchInner.Params = []*ir.Param{{Name: "i", Typ: &ir.PointerType{Elem: innerT}, Parent: touchInner}}
	touchInner.NewBlock("entry").Emit(&ir.Return{})
	m.AddFunction(touchInner)

	p := New("pfx", m)
	if _, err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	outerSingleton := p.SingletonOf(outerRec)
	innerSingleton := p.SingletonOf(innerRec)
	if outerSingleton == nil || innerSingleton == nil {
		t.Fatal("both Outer and Inner should have singletons")
	}

	globalInit := m.FindFunction(globalInitializerName("pfx"))
	var toInner, toOuterField int
	for _, inst := range globalInit.Blocks[0].Instrs {
		mc, ok := inst.(*ir.MemCopy)
		if !ok {
			continue
		}
		if mc.Dst == ir.Value(innerSingleton) {
			toInner++
		}
		if mc.Src == ir.Value(innerSingleton) {
			toOuterField++
		}
	}
	if toInner == 0 || toOuterField == 0 {
		t.Errorf("expected bidirectional memcopy between Outer.in and S(Inner); got %d in, %d out", toInner, toOuterField)
	}
}

// TestRunIsNotIdempotentAboutSingletons documents a known limitation: a
// second Pass.Run over an already-instrumented module does add a second,
// duplicate singleton global for R, because each Pass keeps its own empty
// singletons map and ir.Module.AddGlobal never dedupes by name. See
// DESIGN.md's Open Question 3 resolution: only the "don't re-scan
// synthetic code" half of repeated-invocation behavior is actually
// idempotent; singleton/stub creation itself is not.
func TestRunIsNotIdempotentAboutSingletons(t *testing.T) {
	m, rRec := buildFillerCallerModule(t)
	p1 := New("pfx", m)
	if _, err := p1.Run(); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	before := len(m.Globals)

	p2 := New("pfx", m)
	if _, err := p2.Run(); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	after := len(m.Globals)
	if after != before+1 {
		t.Errorf("global count went from %d to %d across a second Run, want exactly one new (duplicate) global", before, after)
	}

	var named int
	for _, g := range m.Globals {
		if g.Name == "pfx_R_singleton" {
			named++
		}
	}
	if named != 2 {
		t.Errorf("found %d globals named pfx_R_singleton after a second Run, want 2 (the duplicate)", named)
	}
	if p2.SingletonOf(rRec) == nil {
		t.Error("second Pass should still have its own singleton reference for R")
	}
}
