// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"fmt"
	"strings"
)

// Instruction is one IR operation within a BasicBlock. As with Value, the
// set of concrete kinds below is closed; callers use a type switch instead
// of adding virtual behavior here.
type Instruction interface {
	String() string
	Block() *BasicBlock
	setBlock(*BasicBlock)
}

type instrBase struct {
	block *BasicBlock
}

func (b *instrBase) Block() *BasicBlock      { return b.block }
func (b *instrBase) setBlock(bb *BasicBlock) { b.block = bb }

// FieldAddr is the field-offset computation: given a base pointer and a
// path of constant field indices, it yields a pointer to the interior
// field (the LLVM analogue is getelementptr). A negative index is the
// container-of idiom; Indices has exactly one element for every FieldAddr
// this module synthesizes, but the scrubber must tolerate arbitrary-length
// paths produced by the host pipeline.
type FieldAddr struct {
	instrBase
	Name    string
	Base    Value
	Indices []int64
	Typ     Type // pointer-to-field-type
}

func (f *FieldAddr) Type() Type { return f.Typ }
func (f *FieldAddr) String() string {
	idx := make([]string, len(f.Indices))
	for i, v := range f.Indices {
		idx[i] = fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("%%%s = fieldaddr %s, %s [%s]", f.Name, f.Typ, f.Base, strings.Join(idx, ", "))
}
func (*FieldAddr) isValue() {}

// NegativeIndex reports whether any constant index in the path is
// negative, the signature of a container-of computation.
func (f *FieldAddr) NegativeIndex() bool {
	for _, i := range f.Indices {
		if i < 0 {
			return true
		}
	}
	return false
}

// Load reads the value stored at Addr.
type Load struct {
	instrBase
	Name string
	Addr Value
	Typ  Type
}

func (l *Load) Type() Type     { return l.Typ }
func (l *Load) String() string { return fmt.Sprintf("%%%s = load %s, %s", l.Name, l.Typ, l.Addr) }
func (*Load) isValue()         {}

// Store writes Val to Addr. Store has no result value.
type Store struct {
	instrBase
	Addr Value
	Val  Value
}

func (s *Store) String() string { return fmt.Sprintf("store %s, %s", s.Val, s.Addr) }

// BitCast reinterprets X's pointer type as Typ without changing the bits.
type BitCast struct {
	instrBase
	Name string
	X    Value
	Typ  Type
}

func (c *BitCast) Type() Type     { return c.Typ }
func (c *BitCast) String() string { return fmt.Sprintf("%%%s = bitcast %s to %s", c.Name, c.X, c.Typ) }
func (*BitCast) isValue()         {}

// IntToPtr converts an integer constant to a pointer of type Typ. This is
// what replaceAllNegativeGEPs substitutes for a negative FieldAddr.
type IntToPtr struct {
	instrBase
	Name string
	X    Value
	Typ  Type
}

func (c *IntToPtr) Type() Type     { return c.Typ }
func (c *IntToPtr) String() string { return fmt.Sprintf("%%%s = inttoptr %s to %s", c.Name, c.X, c.Typ) }
func (*IntToPtr) isValue()         {}

// Call invokes Callee (direct: a Function's address; indirect: any other
// pointer-to-function Value, typically a Load) with Args, and yields its
// return value unless Typ is VoidType.
type Call struct {
	instrBase
	Name   string
	Callee Value
	Args   []Value
	Typ    Type
}

func (c *Call) Type() Type { return c.Typ }
func (c *Call) String() string {
	var args []string
	for _, a := range c.Args {
		args = append(args, a.String())
	}
	prefix := ""
	if _, void := c.Typ.(*VoidType); !void {
		prefix = "%" + c.Name + " = "
	}
	return fmt.Sprintf("%scall %s(%s)", prefix, c.Callee, strings.Join(args, ", "))
}
func (*Call) isValue() {}

// StaticCallee returns the Function c calls directly, or nil if the call
// is indirect. Field stubs exist precisely so that a call through a field
// ends up, after this pass, resolvable here.
func (c *Call) StaticCallee() *Function {
	if addr, ok := c.Callee.(*ConstFuncAddr); ok {
		return addr.Fn
	}
	return nil
}

// MemCopy copies Size bytes from Src to Dst. It is how this pass expresses
// its bidirectional record-copy operations (the LLVM analogue is
// llvm.memcpy / IRBuilder::CreateMemCpy).
type MemCopy struct {
	instrBase
	Dst, Src Value
	Size     int64
}

func (m *MemCopy) String() string {
	return fmt.Sprintf("memcopy %s, %s, %d", m.Dst, m.Src, m.Size)
}

// Return terminates a BasicBlock, optionally yielding Val (nil for void
// functions).
type Return struct {
	instrBase
	Val Value
}

func (r *Return) String() string {
	if r.Val == nil {
		return "ret void"
	}
	return "ret " + r.Val.String()
}

// IsTerminator reports whether inst ends a BasicBlock.
func IsTerminator(inst Instruction) bool {
	_, ok := inst.(*Return)
	return ok
}
