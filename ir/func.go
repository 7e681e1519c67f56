// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import "fmt"

// BasicBlock is a straight-line sequence of Instructions ending, once the
// function is complete, in a Return.
type BasicBlock struct {
	Name    string
	Instrs  []Instruction
	Parent  *Function
}

// Emit appends inst to b and sets its parent block.
func (b *BasicBlock) Emit(inst Instruction) Instruction {
	inst.setBlock(b)
	b.Instrs = append(b.Instrs, inst)
	return inst
}

// Function is a module-level function: either a definition (len(Blocks) >
// 0) or a declaration, realized later if the declaration realizer gives it
// a body.
type Function struct {
	Name      string
	Sig       *FuncType
	Params    []*Param
	Blocks    []*BasicBlock
	Linkage   Linkage
	Synthetic bool // member of the set of functions this pass itself synthesized
}

// IsDeclaration reports whether f has no body.
func (f *Function) IsDeclaration() bool { return len(f.Blocks) == 0 }

// NewBlock creates and appends a new, empty BasicBlock to f.
func (f *Function) NewBlock(name string) *BasicBlock {
	bb := &BasicBlock{Name: name, Parent: f}
	f.Blocks = append(f.Blocks, bb)
	return bb
}

func (f *Function) String() string {
	return fmt.Sprintf("func %s%s", f.Name, f.Sig)
}

// Arg returns the i'th formal parameter as a Value.
func (f *Function) Arg(i int) *Param { return f.Params[i] }
