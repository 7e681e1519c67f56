// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instrument

import "github.com/Frankenween/ssa-ptr-track/ir"

// rewireUses replaces every operand in fn that is old (by identity) with
// replacement. This stands in for LLVM's Value::replaceAllUsesWith, which
// this IR has no def-use chain to implement directly; instead every
// instruction's Value-typed operands are visited via a type switch over
// the closed Instruction set.
func rewireUses(fn *ir.Function, old, replacement ir.Value) {
	for _, b := range fn.Blocks {
		for _, inst := range b.Instrs {
			rewireInstruction(inst, old, replacement)
		}
	}
}

func rewireInstruction(inst ir.Instruction, old, replacement ir.Value) {
	swap := func(v ir.Value) ir.Value {
		if v == old {
			return replacement
		}
		return v
	}
	switch inst := inst.(type) {
	case *ir.FieldAddr:
		inst.Base = swap(inst.Base)
	case *ir.Load:
		inst.Addr = swap(inst.Addr)
	case *ir.Store:
		inst.Addr = swap(inst.Addr)
		inst.Val = swap(inst.Val)
	case *ir.BitCast:
		inst.X = swap(inst.X)
	case *ir.IntToPtr:
		inst.X = swap(inst.X)
	case *ir.Call:
		inst.Callee = swap(inst.Callee)
		for i, a := range inst.Args {
			inst.Args[i] = swap(a)
		}
	case *ir.MemCopy:
		inst.Dst = swap(inst.Dst)
		inst.Src = swap(inst.Src)
	case *ir.Return:
		if inst.Val != nil {
			inst.Val = swap(inst.Val)
		}
	}
}

// removeInstrs deletes every instruction in remove from b, preserving
// order of the rest.
func removeInstrs(b *ir.BasicBlock, remove map[ir.Instruction]bool) {
	if len(remove) == 0 {
		return
	}
	kept := b.Instrs[:0]
	for _, inst := range b.Instrs {
		if !remove[inst] {
			kept = append(kept, inst)
		}
	}
	b.Instrs = kept
}
