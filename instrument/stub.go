// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instrument

import (
	"fmt"

	"github.com/Frankenween/ssa-ptr-track/ir"
)

// fillSingletons is instrument_ir.cpp's fillSingletons: for every
// interesting record, synthesize a field stub for each function-pointer
// field, then compute and install that record's singleton initializer.
func (p *Pass) fillSingletons() {
	for _, rec := range p.filter.Interesting(p.Module) {
		for i, f := range rec.Fields {
			if _, ok := f.IsFunctionPointer(); ok {
				p.createStubFunction(rec, i)
			}
		}
		p.initializeStructureFields(rec)
	}
}

// createStubFunction synthesizes F(rec,idx): it loads field idx from
// S(rec) and tail-calls through it, forwarding every argument and the
// return value unchanged. Its signature is identical to the field's, so a
// pointer-analysis engine treats it as an alias for every value ever
// stored to S(rec).idx.
func (p *Pass) createStubFunction(rec *ir.Record, idx int) *ir.Function {
	if f, ok := p.stubs[fieldKey{rec, idx}]; ok {
		return f
	}
	ft, ok := rec.Fields[idx].IsFunctionPointer()
	if !ok {
		// Programming error: the scheduler (fillSingletons) violated its
		// contract with the synthesizer.
		failNoFunctionPointerField(rec, idx)
	}

	fn := &ir.Function{Name: stubName(p.Prefix, rec.Name, idx), Sig: ft}
	for i, pt := range ft.Params {
		param := &ir.Param{Name: fmt.Sprintf("arg%d", i), Typ: pt, Parent: fn}
		fn.Params = append(fn.Params, param)
	}
	p.markNew(fn)

	bb := fn.NewBlock("entry")
	singleton := p.singletons[rec]
	addr := bb.Emit(&ir.FieldAddr{
		Name:    p.Module.Temp("fptr"),
		Base:    singleton,
		Indices: []int64{int64(idx)},
		Typ:     &ir.PointerType{Elem: &ir.PointerType{Elem: ft}},
	}).(ir.Value)
	loaded := bb.Emit(&ir.Load{
		Name: p.Module.Temp("fptr.v"),
		Addr: addr,
		Typ:  &ir.PointerType{Elem: ft},
	}).(ir.Value)

	var args []ir.Value
	for _, param := range fn.Params {
		args = append(args, param)
	}
	var call ir.Value
	if _, void := ft.Ret.(*ir.VoidType); void {
		bb.Emit(&ir.Call{Name: p.Module.Temp("call"), Callee: loaded, Args: args, Typ: ft.Ret})
		bb.Emit(&ir.Return{})
	} else {
		call = bb.Emit(&ir.Call{Name: p.Module.Temp("call"), Callee: loaded, Args: args, Typ: ft.Ret}).(ir.Value)
		bb.Emit(&ir.Return{Val: call})
	}

	p.Module.AddFunction(fn)
	p.stubs[fieldKey{rec, idx}] = fn
	return fn
}

// initializeStructureFields computes S(rec)'s final constant initializer:
//   - function-pointer field  -> the field stub
//   - nested interesting record (by value) -> zero in the initializer,
//     plus a bidirectional copy wired up by alias.go
//   - pointer to interesting record -> S(field-target-type)
//   - anything else -> zero
func (p *Pass) initializeStructureFields(rec *ir.Record) {
	recType := &ir.RecordType{Record: rec}
	singleton := p.singletons[rec]

	var fields []ir.Constant
	for i, f := range rec.Fields {
		switch {
		case isFunctionPointerField(f):
			fields = append(fields, &ir.ConstFuncAddr{Fn: p.stubs[fieldKey{rec, i}]})

		case p.filter.IsInterestingType(f.Type):
			fields = append(fields, ir.Zero(f.Type))
			p.plumbNestedAlias(rec, i, f, singleton)

		case p.filter.IsPtrToInterestingType(f.Type):
			sub := ir.DereferenceRecordPtr(f.Type)
			fields = append(fields, p.singletons[sub])

		default:
			fields = append(fields, ir.Zero(f.Type))
		}
	}

	singleton.Init = &ir.ConstStruct{Typ: recType, Fields: fields}
}

func isFunctionPointerField(f ir.Field) bool {
	_, ok := f.IsFunctionPointer()
	return ok
}
