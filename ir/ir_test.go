// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import "testing"

func intTy(bits int) *IntType { return &IntType{Bits: bits} }

func TestSizeOf(t *testing.T) {
	m := NewModule()
	inner := &Record{Name: "Inner", Fields: []Field{
		{Name: "a", Type: intTy(32)},
	}}
	innerT := m.AddRecord(inner)
	outer := &Record{Name: "Outer", Fields: []Field{
		{Name: "x", Type: intTy(64)},
		{Name: "in", Type: innerT},
		{Name: "p", Type: &PointerType{Elem: innerT}},
	}}
	outerT := m.AddRecord(outer)

	if got, want := m.SizeOf(innerT), int64(4); got != want {
		t.Errorf("SizeOf(Inner) = %d, want %d", got, want)
	}
	if got, want := m.SizeOf(outerT), int64(8+4+8); got != want {
		t.Errorf("SizeOf(Outer) = %d, want %d", got, want)
	}
}

func TestFunctionSanity(t *testing.T) {
	m := NewModule()
	_ = m
	fn := &Function{Name: "f", Sig: &FuncType{Ret: &VoidType{}}}
	bb := fn.NewBlock("entry")
	bb.Emit(&Return{})

	if !CheckFunction(fn, nil) {
		t.Errorf("well-formed function reported insane")
	}

	bad := &Function{Name: "bad", Sig: &FuncType{Ret: &VoidType{}}}
	bb2 := bad.NewBlock("entry")
	bb2.Emit(&Store{Addr: &ConstNull{Typ: &PointerType{Elem: intTy(32)}}, Val: &ConstInt{Typ: intTy(32), Val: 1}})
	if CheckFunction(bad, nil) {
		t.Errorf("block missing a terminating Return reported sane")
	}
}

func TestFieldPredicates(t *testing.T) {
	fnType := &FuncType{Ret: &VoidType{}, Params: []Type{intTy(32)}}
	f := Field{Name: "cb", Type: &PointerType{Elem: fnType}}
	got, ok := f.IsFunctionPointer()
	if !ok || got != fnType {
		t.Fatalf("IsFunctionPointer() = %v, %v; want %v, true", got, ok, fnType)
	}

	notFn := Field{Name: "n", Type: intTy(32)}
	if _, ok := notFn.IsFunctionPointer(); ok {
		t.Errorf("int field reported as function pointer")
	}
}
