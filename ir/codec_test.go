// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import "testing"

// buildCodecModule builds a module exercising every wire shape: a record
// with a function-pointer field, a global array of records, a function
// whose body produces and reuses instruction-result ("ref") values, and a
// forward reference (caller, added to the module first, directly calls
// target, added after it).
func buildCodecModule(t *testing.T) *Module {
	t.Helper()
	m := NewModule()

	cbType := &FuncType{Ret: intTy(32), Params: []Type{intTy(32)}}
	opRec := &Record{Name: "Op"}
	opT := m.AddRecord(opRec)
	opRec.Fields = []Field{
		{Name: "handler", Type: &PointerType{Elem: cbType}},
	}

	arr := &Global{
		Name: "all_ops",
		Typ:  &ArrayType{Elem: opT, Count: 2},
		Init: &ConstArray{
			Typ: &ArrayType{Elem: opT, Count: 2},
			Elements: []Constant{
				&ConstZeroRecord{Typ: opT},
				&ConstZeroRecord{Typ: opT},
			},
		},
	}
	m.AddGlobal(arr)

	// caller is added to the module before target, so its call of target
	// (by name, via ConstFuncAddr) is a genuine forward reference that only
	// resolves once Decode's multi-pass function-declaration scan has run.
	target := &Function{Name: "target", Sig: &FuncType{Ret: intTy(32), Params: []Type{intTy(32)}}}
	target.Params = []*Param{{Name: "x", Typ: intTy(32), Parent: target}}

	caller := &Function{Name: "caller", Sig: &FuncType{Ret: &VoidType{}, Params: []Type{&PointerType{Elem: opT}}}}
	caller.Params = []*Param{{Name: "op", Typ: &PointerType{Elem: opT}, Parent: caller}}
	cbb := caller.NewBlock("entry")
	addr := cbb.Emit(&FieldAddr{Name: "addr", Base: caller.Params[0], Indices: []int64{0}, Typ: &PointerType{Elem: &PointerType{Elem: cbType}}}).(Value)
	loaded := cbb.Emit(&Load{Name: "h", Addr: addr, Typ: &PointerType{Elem: cbType}}).(Value)
	cbb.Emit(&IntToPtr{Name: "ignored", X: &ConstInt{Typ: intTy(32), Val: 1}, Typ: &PointerType{Elem: intTy(32)}})
	cbb.Emit(&Call{Name: "r", Callee: loaded, Args: []Value{&ConstInt{Typ: intTy(32), Val: 7}}, Typ: intTy(32)})
	cbb.Emit(&Call{Name: "fwd", Callee: &ConstFuncAddr{Fn: target}, Args: []Value{&ConstInt{Typ: intTy(32), Val: 2}}, Typ: intTy(32)})
	cbb.Emit(&Return{})
	m.AddFunction(caller)

	bb := target.NewBlock("entry")
	bb.Emit(&Return{Val: target.Params[0]})
	m.AddFunction(target)

	return m
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := buildCodecModule(t)

	data, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	m2, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(m2.RecordNames) != 1 || m2.Records["Op"] == nil {
		t.Fatalf("decoded module missing record Op: %v", m2.RecordNames)
	}
	opRec2 := m2.Records["Op"]
	if len(opRec2.Fields) != 1 {
		t.Fatalf("decoded Op has %d fields, want 1", len(opRec2.Fields))
	}
	if _, ok := opRec2.Fields[0].IsFunctionPointer(); !ok {
		t.Errorf("decoded Op.handler is not a function pointer")
	}

	g := m2.FindGlobal("all_ops")
	if g == nil {
		t.Fatal("decoded module missing global all_ops")
	}
	arrT, ok := g.Typ.(*ArrayType)
	if !ok || arrT.Count != 2 {
		t.Fatalf("decoded all_ops type = %v, want [2 x Op]", g.Typ)
	}
	ca, ok := g.Init.(*ConstArray)
	if !ok || len(ca.Elements) != 2 {
		t.Fatalf("decoded all_ops initializer = %v, want a 2-element ConstArray", g.Init)
	}

	target2 := m2.FindFunction("target")
	caller2 := m2.FindFunction("caller")
	if target2 == nil || caller2 == nil {
		t.Fatal("decoded module missing target/caller")
	}
	if len(caller2.Blocks) != 1 || len(caller2.Blocks[0].Instrs) != 6 {
		t.Fatalf("decoded caller has wrong shape: %d blocks, %d instrs", len(caller2.Blocks), len(caller2.Blocks[0].Instrs))
	}

	var sawLoadOfFieldAddr, sawCallOfLoad, sawForwardCallOfTarget bool
	var fieldAddrResult Value
	for _, inst := range caller2.Blocks[0].Instrs {
		switch inst := inst.(type) {
		case *FieldAddr:
			fieldAddrResult = inst
		case *Load:
			if fieldAddrResult != nil && inst.Addr == fieldAddrResult {
				sawLoadOfFieldAddr = true
			}
		case *Call:
			if l, ok := inst.Callee.(*Load); ok && l.Name == "h" {
				sawCallOfLoad = true
			}
			if fa, ok := inst.Callee.(*ConstFuncAddr); ok && fa.Fn == target2 {
				sawForwardCallOfTarget = true
			}
		}
	}
	if !sawLoadOfFieldAddr {
		t.Error("decoded Load does not reference the decoded FieldAddr by identity")
	}
	if !sawCallOfLoad {
		t.Error("decoded Call does not reference the decoded Load as its callee")
	}
	if !sawForwardCallOfTarget {
		t.Error("decoded forward-referencing Call does not resolve to the decoded target function")
	}
}

func TestDecodeRejectsUnknownRecord(t *testing.T) {
	_, err := Decode([]byte(`{
		"records": [],
		"globals": [{"name": "g", "type": {"kind": "record", "record": "Missing"}}],
		"functions": []
	}`))
	if err == nil {
		t.Error("Decode did not reject a reference to an undeclared record")
	}
}
