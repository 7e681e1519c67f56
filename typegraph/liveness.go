// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package typegraph

import "github.com/Frankenween/ssa-ptr-track/ir"

// pruneDead removes from interesting any record the module's functions,
// globals, and instructions never actually mention. Input modules
// routinely declare hundreds of record types of which only a handful are
// ever used; emitting singletons for the rest would waste space and
// pollute the downstream analysis.
func pruneDead(m *ir.Module, interesting map[*ir.Record]bool) {
	live := make(map[*ir.Record]bool)

	mark := func(t ir.Type) {
		if rec, ok := ir.AsRecord(t); ok {
			live[rec] = true
		}
		if rec, ok := ir.AsPointerToRecord(t); ok {
			live[rec] = true
		}
	}

	for _, fn := range m.Functions {
		mark(fn.Sig.Ret)
		for _, p := range fn.Sig.Params {
			mark(p)
		}
		for _, b := range fn.Blocks {
			for _, inst := range b.Instrs {
				markInstruction(inst, mark)
			}
		}
	}

	for _, g := range m.Globals {
		mark(g.Typ)
		if g.Init != nil {
			markConstant(g.Init, mark)
		}
	}

	for rec := range interesting {
		if !live[rec] {
			delete(interesting, rec)
		}
	}
}

// markInstruction calls mark on every type named in the source or
// destination type of a cast, field-offset computation, integer-to-pointer,
// load, or store instruction. A type switch over the closed Instruction
// variant set.
func markInstruction(inst ir.Instruction, mark func(ir.Type)) {
	switch inst := inst.(type) {
	case *ir.FieldAddr:
		mark(inst.Typ)
		mark(inst.Base.Type())
	case *ir.Load:
		mark(inst.Typ)
		mark(inst.Addr.Type())
	case *ir.Store:
		mark(inst.Addr.Type())
		mark(inst.Val.Type())
	case *ir.BitCast:
		mark(inst.Typ)
		mark(inst.X.Type())
	case *ir.IntToPtr:
		mark(inst.Typ)
	case *ir.Call:
		mark(inst.Typ)
		mark(inst.Callee.Type())
		for _, a := range inst.Args {
			mark(a.Type())
		}
	case *ir.MemCopy:
		mark(inst.Dst.Type())
		mark(inst.Src.Type())
	case *ir.Return:
		if inst.Val != nil {
			mark(inst.Val.Type())
		}
	}
}

// markConstant marks every record type reachable from a non-zero constant
// composite initializer, recursively for constant-composite initializers.
// Zero constants (ConstNull, ConstZeroRecord, and integer zero) contribute
// no liveness on their own: a zero field never actually names the type it
// would otherwise default to.
func markConstant(c ir.Constant, mark func(ir.Type)) {
	switch c := c.(type) {
	case *ir.ConstNull:
		// zero: contributes nothing.
	case *ir.ConstZeroRecord:
		// zero: contributes nothing.
	case *ir.ConstInt:
		// zero-or-not, an integer constant never names a record type.
	case *ir.ConstFuncAddr:
		mark(c.Type())
	case *ir.ConstStruct:
		mark(c.Typ)
		for _, f := range c.Fields {
			markConstant(f, mark)
		}
	case *ir.ConstArray:
		mark(c.Typ)
		for _, e := range c.Elements {
			markConstant(e, mark)
		}
	}
}
