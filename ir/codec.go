// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"encoding/json"
	"fmt"

	errors "golang.org/x/xerrors"
)

// This file is the wire codec for Module: the host pipeline that owns the
// original (non-Go) compiler front end hands this pass a JSON document
// instead of Go source, so the IR doubles as a marshaling format. There is
// no analogous decode direction in go/ssa (it only ever builds from
// go/types), so the wire shapes below are original to this module; the
// encode direction follows cmd/deadcode's own jsonFunction/jsonPackage
// encoding/json/struct-tag conventions, extended tag-switch style to also
// support decode.

type wireType struct {
	Kind   string      `json:"kind"` // int, void, ptr, func, record, array
	Bits   int         `json:"bits,omitempty"`
	Elem   *wireType   `json:"elem,omitempty"`
	Count  int         `json:"count,omitempty"`
	Params []*wireType `json:"params,omitempty"`
	Ret    *wireType   `json:"ret,omitempty"`
	Record string      `json:"record,omitempty"`
}

func encodeType(t Type) *wireType {
	switch t := t.(type) {
	case *IntType:
		return &wireType{Kind: "int", Bits: t.Bits}
	case *VoidType:
		return &wireType{Kind: "void"}
	case *PointerType:
		return &wireType{Kind: "ptr", Elem: encodeType(t.Elem)}
	case *FuncType:
		w := &wireType{Kind: "func", Ret: encodeType(t.Ret)}
		for _, p := range t.Params {
			w.Params = append(w.Params, encodeType(p))
		}
		return w
	case *RecordType:
		return &wireType{Kind: "record", Record: t.Record.Name}
	case *ArrayType:
		return &wireType{Kind: "array", Elem: encodeType(t.Elem), Count: t.Count}
	default:
		panic(fmt.Sprintf("ir: encodeType: unknown type %T", t))
	}
}

func (m *Module) decodeType(w *wireType) (Type, error) {
	if w == nil {
		return nil, errors.New("ir: nil type in wire format")
	}
	switch w.Kind {
	case "int":
		return &IntType{Bits: w.Bits}, nil
	case "void":
		return &VoidType{}, nil
	case "ptr":
		elem, err := m.decodeType(w.Elem)
		if err != nil {
			return nil, err
		}
		return &PointerType{Elem: elem}, nil
	case "func":
		ret, err := m.decodeType(w.Ret)
		if err != nil {
			return nil, err
		}
		ft := &FuncType{Ret: ret}
		for _, p := range w.Params {
			pt, err := m.decodeType(p)
			if err != nil {
				return nil, err
			}
			ft.Params = append(ft.Params, pt)
		}
		return ft, nil
	case "record":
		rec, ok := m.Records[w.Record]
		if !ok {
			return nil, errors.Errorf("ir: decodeType: undeclared record %q", w.Record)
		}
		return &RecordType{Record: rec}, nil
	case "array":
		elem, err := m.decodeType(w.Elem)
		if err != nil {
			return nil, err
		}
		return &ArrayType{Elem: elem, Count: w.Count}, nil
	default:
		return nil, errors.Errorf("ir: decodeType: unknown kind %q", w.Kind)
	}
}

type wireField struct {
	Name string    `json:"name"`
	Type *wireType `json:"type"`
}

type wireRecord struct {
	Name   string      `json:"name"`
	Fields []wireField `json:"fields"`
}

type wireValue struct {
	Kind string `json:"kind"` // int, null, zero_record, struct, func_addr, array, param, global, ref
	// int
	Int int64 `json:"int,omitempty"`
	// null, zero_record, array element/struct field types inherit Type
	Type *wireType `json:"type,omitempty"`
	// struct, array
	Elements []*wireValue `json:"elements,omitempty"`
	// func_addr, param(by owning function+name), global, ref(instruction result)
	Name string `json:"name,omitempty"`
	Func string `json:"func,omitempty"`
}

func encodeConstant(c Constant) *wireValue {
	return encodeValue(c)
}

func encodeValue(v Value) *wireValue {
	switch v := v.(type) {
	case *ConstInt:
		return &wireValue{Kind: "int", Int: v.Val, Type: encodeType(v.Typ)}
	case *ConstNull:
		return &wireValue{Kind: "null", Type: encodeType(v.Typ)}
	case *ConstZeroRecord:
		return &wireValue{Kind: "zero_record", Type: encodeType(v.Typ)}
	case *ConstStruct:
		w := &wireValue{Kind: "struct", Type: encodeType(v.Typ)}
		for _, f := range v.Fields {
			w.Elements = append(w.Elements, encodeConstant(f))
		}
		return w
	case *ConstArray:
		w := &wireValue{Kind: "array", Type: encodeType(v.Typ)}
		for _, e := range v.Elements {
			w.Elements = append(w.Elements, encodeConstant(e))
		}
		return w
	case *ConstFuncAddr:
		return &wireValue{Kind: "func_addr", Func: v.Fn.Name}
	case *Param:
		return &wireValue{Kind: "param", Func: v.Parent.Name, Name: v.Name}
	case *Global:
		return &wireValue{Kind: "global", Name: v.Name}
	case *FieldAddr:
		return &wireValue{Kind: "ref", Name: v.Name}
	case *Load:
		return &wireValue{Kind: "ref", Name: v.Name}
	case *BitCast:
		return &wireValue{Kind: "ref", Name: v.Name}
	case *IntToPtr:
		return &wireValue{Kind: "ref", Name: v.Name}
	case *Call:
		return &wireValue{Kind: "ref", Name: v.Name}
	default:
		panic(fmt.Sprintf("ir: encodeValue: unknown value %T", v))
	}
}

type wireInstr struct {
	Op   string `json:"op"` // fieldaddr, load, store, bitcast, inttoptr, call, memcopy, return
	Name string `json:"name,omitempty"`

	Base    *wireValue `json:"base,omitempty"`    // fieldaddr
	Indices []int64    `json:"indices,omitempty"` // fieldaddr

	Addr *wireValue `json:"addr,omitempty"` // load, store
	Val  *wireValue `json:"val,omitempty"`  // store, return

	X *wireValue `json:"x,omitempty"` // bitcast, inttoptr

	Callee *wireValue   `json:"callee,omitempty"` // call
	Args   []*wireValue `json:"args,omitempty"`   // call

	Dst  *wireValue `json:"dst,omitempty"`  // memcopy
	Src  *wireValue `json:"src,omitempty"`  // memcopy
	Size int64      `json:"size,omitempty"` // memcopy

	Type *wireType `json:"type,omitempty"` // result/destination type, where applicable
}

func encodeInstr(inst Instruction) wireInstr {
	switch inst := inst.(type) {
	case *FieldAddr:
		return wireInstr{Op: "fieldaddr", Name: inst.Name, Base: encodeValue(inst.Base), Indices: inst.Indices, Type: encodeType(inst.Typ)}
	case *Load:
		return wireInstr{Op: "load", Name: inst.Name, Addr: encodeValue(inst.Addr), Type: encodeType(inst.Typ)}
	case *Store:
		return wireInstr{Op: "store", Addr: encodeValue(inst.Addr), Val: encodeValue(inst.Val)}
	case *BitCast:
		return wireInstr{Op: "bitcast", Name: inst.Name, X: encodeValue(inst.X), Type: encodeType(inst.Typ)}
	case *IntToPtr:
		return wireInstr{Op: "inttoptr", Name: inst.Name, X: encodeValue(inst.X), Type: encodeType(inst.Typ)}
	case *Call:
		w := wireInstr{Op: "call", Name: inst.Name, Callee: encodeValue(inst.Callee), Type: encodeType(inst.Typ)}
		for _, a := range inst.Args {
			w.Args = append(w.Args, encodeValue(a))
		}
		return w
	case *MemCopy:
		return wireInstr{Op: "memcopy", Dst: encodeValue(inst.Dst), Src: encodeValue(inst.Src), Size: inst.Size}
	case *Return:
		w := wireInstr{Op: "return"}
		if inst.Val != nil {
			w.Val = encodeValue(inst.Val)
		}
		return w
	default:
		panic(fmt.Sprintf("ir: encodeInstr: unknown instruction %T", inst))
	}
}

type wireBlock struct {
	Name   string      `json:"name"`
	Instrs []wireInstr `json:"instrs"`
}

type wireParam struct {
	Name string    `json:"name"`
	Type *wireType `json:"type"`
}

type wireFunction struct {
	Name    string      `json:"name"`
	Params  []wireParam `json:"params"`
	Ret     *wireType   `json:"ret"`
	Linkage string      `json:"linkage,omitempty"`
	Blocks  []wireBlock `json:"blocks,omitempty"` // absent/empty => declaration
}

func encodeFunction(f *Function) wireFunction {
	w := wireFunction{Name: f.Name, Ret: encodeType(f.Sig.Ret), Linkage: f.Linkage.String()}
	for i, p := range f.Sig.Params {
		name := fmt.Sprintf("arg%d", i)
		if i < len(f.Params) {
			name = f.Params[i].Name
		}
		w.Params = append(w.Params, wireParam{Name: name, Type: encodeType(p)})
	}
	for _, b := range f.Blocks {
		wb := wireBlock{Name: b.Name}
		for _, inst := range b.Instrs {
			wb.Instrs = append(wb.Instrs, encodeInstr(inst))
		}
		w.Blocks = append(w.Blocks, wb)
	}
	return w
}

type wireGlobal struct {
	Name    string     `json:"name"`
	Type    *wireType  `json:"type"`
	Linkage string     `json:"linkage,omitempty"`
	Init    *wireValue `json:"init,omitempty"`
}

func encodeGlobal(g *Global) wireGlobal {
	w := wireGlobal{Name: g.Name, Type: encodeType(g.Typ), Linkage: g.Linkage.String()}
	if g.Init != nil {
		w.Init = encodeConstant(g.Init)
	}
	return w
}

type wireModule struct {
	Records   []wireRecord   `json:"records"`
	Globals   []wireGlobal   `json:"globals"`
	Functions []wireFunction `json:"functions"`
}

// Encode serializes m to its JSON wire form.
func Encode(m *Module) ([]byte, error) {
	w := wireModule{}
	for _, name := range m.RecordNames {
		rec := m.Records[name]
		wr := wireRecord{Name: rec.Name}
		for _, f := range rec.Fields {
			wr.Fields = append(wr.Fields, wireField{Name: f.Name, Type: encodeType(f.Type)})
		}
		w.Records = append(w.Records, wr)
	}
	for _, g := range m.Globals {
		w.Globals = append(w.Globals, encodeGlobal(g))
	}
	for _, f := range m.Functions {
		w.Functions = append(w.Functions, encodeFunction(f))
	}
	return json.MarshalIndent(w, "", "\t")
}

func parseLinkage(s string) Linkage {
	switch s {
	case "internal":
		return InternalLinkage
	case "private":
		return PrivateLinkage
	default:
		return ExternalLinkage
	}
}

// Decode parses a JSON wire-form module. Decoding happens in three passes
// so that forward references between records, globals, and functions (a
// field of record A naming record B declared later, a global initializer
// naming a function, a call naming a function defined further down) all
// resolve regardless of declaration order:
//
//  1. declare every record by name, with empty field lists;
//  2. fill in record fields, now that every record name resolves;
//  3. declare every global and function signature, then fill in global
//     initializers and function bodies, now that every record, global, and
//     function name resolves.
func Decode(data []byte) (*Module, error) {
	var w wireModule
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.Errorf("ir: decode: %w", err)
	}

	m := NewModule()
	for _, wr := range w.Records {
		m.AddRecord(&Record{Name: wr.Name})
	}
	for _, wr := range w.Records {
		rec := m.Records[wr.Name]
		for _, wf := range wr.Fields {
			t, err := m.decodeType(wf.Type)
			if err != nil {
				return nil, errors.Errorf("ir: decode record %s field %s: %w", wr.Name, wf.Name, err)
			}
			rec.Fields = append(rec.Fields, Field{Name: wf.Name, Type: t})
		}
	}

	funcsByName := make(map[string]*Function, len(w.Functions))
	for _, wf := range w.Functions {
		ret, err := m.decodeType(wf.Ret)
		if err != nil {
			return nil, errors.Errorf("ir: decode function %s: %w", wf.Name, err)
		}
		sig := &FuncType{Ret: ret}
		fn := &Function{Name: wf.Name, Sig: sig, Linkage: parseLinkage(wf.Linkage)}
		for _, wp := range wf.Params {
			pt, err := m.decodeType(wp.Type)
			if err != nil {
				return nil, errors.Errorf("ir: decode function %s param %s: %w", wf.Name, wp.Name, err)
			}
			sig.Params = append(sig.Params, pt)
			fn.Params = append(fn.Params, &Param{Name: wp.Name, Typ: pt, Parent: fn})
		}
		m.AddFunction(fn)
		funcsByName[fn.Name] = fn
	}

	globalsByName := make(map[string]*Global, len(w.Globals))
	for _, wg := range w.Globals {
		t, err := m.decodeType(wg.Type)
		if err != nil {
			return nil, errors.Errorf("ir: decode global %s: %w", wg.Name, err)
		}
		g := &Global{Name: wg.Name, Typ: t, Linkage: parseLinkage(wg.Linkage)}
		m.AddGlobal(g)
		globalsByName[g.Name] = g
	}

	d := &decoder{m: m, funcs: funcsByName, globals: globalsByName}

	for _, wg := range w.Globals {
		if wg.Init == nil {
			continue
		}
		g := globalsByName[wg.Name]
		c, err := d.decodeConstant(wg.Init)
		if err != nil {
			return nil, errors.Errorf("ir: decode global %s initializer: %w", wg.Name, err)
		}
		g.Init = c
	}

	for _, wf := range w.Functions {
		if len(wf.Blocks) == 0 {
			continue
		}
		fn := funcsByName[wf.Name]
		if err := d.decodeFunctionBody(fn, wf); err != nil {
			return nil, errors.Errorf("ir: decode function %s body: %w", wf.Name, err)
		}
	}

	return m, nil
}

// decoder resolves name references while a function's body is filled in:
// instruction results are visible to every later instruction in the same
// function, in the manner go/ssa resolves a BasicBlock's Instrs against its
// Function's named values as it builds them.
type decoder struct {
	m       *Module
	funcs   map[string]*Function
	globals map[string]*Global
}

func (d *decoder) decodeConstant(w *wireValue) (Constant, error) {
	v, err := d.decodeValue(w, nil)
	if err != nil {
		return nil, err
	}
	c, ok := v.(Constant)
	if !ok {
		return nil, errors.Errorf("ir: decode: %q is not a constant", w.Kind)
	}
	return c, nil
}

// decodeValue resolves w against locals (the current function's
// instruction-result and parameter names), which is nil when decoding a
// global initializer (only constants are legal there).
func (d *decoder) decodeValue(w *wireValue, locals map[string]Value) (Value, error) {
	switch w.Kind {
	case "int":
		t, err := d.m.decodeType(w.Type)
		if err != nil {
			return nil, err
		}
		return &ConstInt{Typ: t.(*IntType), Val: w.Int}, nil
	case "null":
		t, err := d.m.decodeType(w.Type)
		if err != nil {
			return nil, err
		}
		return &ConstNull{Typ: t}, nil
	case "zero_record":
		t, err := d.m.decodeType(w.Type)
		if err != nil {
			return nil, err
		}
		return &ConstZeroRecord{Typ: t.(*RecordType)}, nil
	case "struct":
		t, err := d.m.decodeType(w.Type)
		if err != nil {
			return nil, err
		}
		cs := &ConstStruct{Typ: t.(*RecordType)}
		for _, e := range w.Elements {
			c, err := d.decodeConstant(e)
			if err != nil {
				return nil, err
			}
			cs.Fields = append(cs.Fields, c)
		}
		return cs, nil
	case "array":
		t, err := d.m.decodeType(w.Type)
		if err != nil {
			return nil, err
		}
		ca := &ConstArray{Typ: t.(*ArrayType)}
		for _, e := range w.Elements {
			c, err := d.decodeConstant(e)
			if err != nil {
				return nil, err
			}
			ca.Elements = append(ca.Elements, c)
		}
		return ca, nil
	case "func_addr":
		fn, ok := d.funcs[w.Func]
		if !ok {
			return nil, errors.Errorf("ir: decode: undeclared function %q", w.Func)
		}
		return &ConstFuncAddr{Fn: fn}, nil
	case "global":
		g, ok := d.globals[w.Name]
		if !ok {
			return nil, errors.Errorf("ir: decode: undeclared global %q", w.Name)
		}
		return g, nil
	case "param":
		fn, ok := d.funcs[w.Func]
		if !ok {
			return nil, errors.Errorf("ir: decode: undeclared function %q", w.Func)
		}
		for _, p := range fn.Params {
			if p.Name == w.Name {
				return p, nil
			}
		}
		return nil, errors.Errorf("ir: decode: function %s has no param %q", w.Func, w.Name)
	case "ref":
		if locals == nil {
			return nil, errors.Errorf("ir: decode: ref %q used outside a function body", w.Name)
		}
		v, ok := locals[w.Name]
		if !ok {
			return nil, errors.Errorf("ir: decode: undefined local %q", w.Name)
		}
		return v, nil
	default:
		return nil, errors.Errorf("ir: decode: unknown value kind %q", w.Kind)
	}
}

func (d *decoder) decodeFunctionBody(fn *Function, wf wireFunction) error {
	locals := make(map[string]Value, 8)
	for _, p := range fn.Params {
		locals[p.Name] = p
	}
	for _, wb := range wf.Blocks {
		bb := fn.NewBlock(wb.Name)
		for _, wi := range wb.Instrs {
			inst, result, err := d.decodeInstr(wi, locals)
			if err != nil {
				return err
			}
			bb.Emit(inst)
			if result != "" {
				locals[result] = inst.(Value)
			}
		}
	}
	return nil
}

func (d *decoder) decodeInstr(wi wireInstr, locals map[string]Value) (inst Instruction, resultName string, err error) {
	switch wi.Op {
	case "fieldaddr":
		base, err := d.decodeValue(wi.Base, locals)
		if err != nil {
			return nil, "", err
		}
		t, err := d.m.decodeType(wi.Type)
		if err != nil {
			return nil, "", err
		}
		return &FieldAddr{Name: wi.Name, Base: base, Indices: wi.Indices, Typ: t}, wi.Name, nil
	case "load":
		addr, err := d.decodeValue(wi.Addr, locals)
		if err != nil {
			return nil, "", err
		}
		t, err := d.m.decodeType(wi.Type)
		if err != nil {
			return nil, "", err
		}
		return &Load{Name: wi.Name, Addr: addr, Typ: t}, wi.Name, nil
	case "store":
		addr, err := d.decodeValue(wi.Addr, locals)
		if err != nil {
			return nil, "", err
		}
		val, err := d.decodeValue(wi.Val, locals)
		if err != nil {
			return nil, "", err
		}
		return &Store{Addr: addr, Val: val}, "", nil
	case "bitcast":
		x, err := d.decodeValue(wi.X, locals)
		if err != nil {
			return nil, "", err
		}
		t, err := d.m.decodeType(wi.Type)
		if err != nil {
			return nil, "", err
		}
		return &BitCast{Name: wi.Name, X: x, Typ: t}, wi.Name, nil
	case "inttoptr":
		x, err := d.decodeValue(wi.X, locals)
		if err != nil {
			return nil, "", err
		}
		t, err := d.m.decodeType(wi.Type)
		if err != nil {
			return nil, "", err
		}
		return &IntToPtr{Name: wi.Name, X: x, Typ: t}, wi.Name, nil
	case "call":
		callee, err := d.decodeValue(wi.Callee, locals)
		if err != nil {
			return nil, "", err
		}
		t, err := d.m.decodeType(wi.Type)
		if err != nil {
			return nil, "", err
		}
		call := &Call{Name: wi.Name, Callee: callee, Typ: t}
		for _, a := range wi.Args {
			av, err := d.decodeValue(a, locals)
			if err != nil {
				return nil, "", err
			}
			call.Args = append(call.Args, av)
		}
		name := wi.Name
		if _, void := t.(*VoidType); void {
			name = ""
		}
		return call, name, nil
	case "memcopy":
		dst, err := d.decodeValue(wi.Dst, locals)
		if err != nil {
			return nil, "", err
		}
		src, err := d.decodeValue(wi.Src, locals)
		if err != nil {
			return nil, "", err
		}
		return &MemCopy{Dst: dst, Src: src, Size: wi.Size}, "", nil
	case "return":
		if wi.Val == nil {
			return &Return{}, "", nil
		}
		v, err := d.decodeValue(wi.Val, locals)
		if err != nil {
			return nil, "", err
		}
		return &Return{Val: v}, "", nil
	default:
		return nil, "", errors.Errorf("ir: decode: unknown instruction op %q", wi.Op)
	}
}
