// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package typegraph

import (
	"testing"

	"github.com/Frankenween/ssa-ptr-track/ir"
)

func i32() *ir.IntType { return &ir.IntType{Bits: 32} }

// buildNestedModule returns a module with:
//
//	Callbacks { f1 func(i32) void, f2 func(i32) void }
//	Inner     { x i32 }
//	Outer     { in Inner, cb Callbacks }
//	Unused    { y i32 }  // never mentioned anywhere
func buildNestedModule(t *testing.T) (*ir.Module, *ir.RecordType, *ir.RecordType, *ir.RecordType, *ir.RecordType) {
	t.Helper()
	m := ir.NewModule()

	fnType := &ir.FuncType{Ret: &ir.VoidType{}, Params: []ir.Type{i32()}}
	cbT := m.AddRecord(&ir.Record{Name: "Callbacks", Fields: []ir.Field{
		{Name: "f1", Type: &ir.PointerType{Elem: fnType}},
		{Name: "f2", Type: &ir.PointerType{Elem: fnType}},
	}})
	innerT := m.AddRecord(&ir.Record{Name: "Inner", Fields: []ir.Field{
		{Name: "x", Type: i32()},
	}})
	outerT := m.AddRecord(&ir.Record{Name: "Outer", Fields: []ir.Field{
		{Name: "in", Type: innerT},
		{Name: "cb", Type: cbT},
	}})
	unusedT := m.AddRecord(&ir.Record{Name: "Unused", Fields: []ir.Field{
		{Name: "y", Type: i32()},
	}})

	// Make Outer and Callbacks live via a function signature (liveness
	// counts only direct mentions, not nesting); Inner and Unused are
	// never mentioned.
	fn := &ir.Function{Name: "call", Sig: &ir.FuncType{
		Ret:    &ir.VoidType{},
		Params: []ir.Type{&ir.PointerType{Elem: outerT}, &ir.PointerType{Elem: cbT}},
	}}
	fn.Params = []*ir.Param{{Name: "v", Typ: &ir.PointerType{Elem: outerT}}, {Name: "c", Typ: &ir.PointerType{Elem: cbT}}}
	bb := fn.NewBlock("entry")
	bb.Emit(&ir.Return{})
	m.AddFunction(fn)

	return m, cbT, innerT, outerT, unusedT
}

func TestBuildInterestingAndLiveness(t *testing.T) {
	m, cbT, innerT, outerT, unusedT := buildNestedModule(t)
	f := Build(m)

	if !f.IsInterestingType(cbT) {
		t.Errorf("Callbacks should be interesting (holds function pointers)")
	}
	if !f.IsInterestingType(outerT) {
		t.Errorf("Outer should be interesting (contains Callbacks by value)")
	}
	if f.IsInterestingType(innerT) {
		t.Errorf("Inner has no path to a function-pointer field and should not be interesting")
	}
	if f.IsInterestingType(unusedT) {
		t.Errorf("Unused should not be interesting at all")
	}

	if f.IsPtrToInterestingType(&ir.PointerType{Elem: outerT}) != true {
		t.Errorf("pointer to Outer should be IsPtrToInterestingType")
	}
}

func TestLivenessPrunesUnmentionedInterestingType(t *testing.T) {
	m := ir.NewModule()
	fnType := &ir.FuncType{Ret: &ir.VoidType{}}
	// Dead has a function pointer field but is never otherwise mentioned.
	m.AddRecord(&ir.Record{Name: "Dead", Fields: []ir.Field{
		{Name: "f", Type: &ir.PointerType{Elem: fnType}},
	}})
	f := Build(m)
	if f.Len() != 0 {
		t.Errorf("Dead should have been pruned by liveness; got %d interesting types", f.Len())
	}
}
