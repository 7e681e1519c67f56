// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import "fmt"

// Value is anything that can be used as an operand: a constant, a
// parameter, a global, a function address, or the result of an
// instruction. This mirrors go/ssa's Value interface, but the concrete set
// of implementations below is closed and handled by type switches rather
// than by virtual dispatch.
type Value interface {
	Type() Type
	String() string
	isValue()
}

// Constant is a Value with no dependency on any instruction or parameter:
// it can appear in a global initializer.
type Constant interface {
	Value
	isConstant()
}

// ConstInt is an integer constant.
type ConstInt struct {
	Typ *IntType
	Val int64
}

func (c *ConstInt) Type() Type      { return c.Typ }
func (c *ConstInt) String() string  { return fmt.Sprintf("%d", c.Val) }
func (*ConstInt) isValue()          {}
func (*ConstInt) isConstant()       {}

// ConstNull is the null pointer constant of a pointer (or function) type.
type ConstNull struct {
	Typ Type
}

func (c *ConstNull) Type() Type     { return c.Typ }
func (c *ConstNull) String() string { return "null" }
func (*ConstNull) isValue()         {}
func (*ConstNull) isConstant()      {}

// ConstZeroRecord is the all-zero value of a record type, used as a
// placeholder initializer and as the default value wherever an interesting
// record type is required by value but no singleton exists to substitute.
type ConstZeroRecord struct {
	Typ *RecordType
}

func (c *ConstZeroRecord) Type() Type     { return c.Typ }
func (c *ConstZeroRecord) String() string { return "zeroinitializer" }
func (*ConstZeroRecord) isValue()         {}
func (*ConstZeroRecord) isConstant()      {}

// ConstStruct is a composite constant naming one constant per field of T,
// in field order. This is the shape of a singleton global's initializer.
type ConstStruct struct {
	Typ    *RecordType
	Fields []Constant
}

func (c *ConstStruct) Type() Type     { return c.Typ }
func (c *ConstStruct) String() string { return "{...}" }
func (*ConstStruct) isValue()         {}
func (*ConstStruct) isConstant()      {}

// ConstFuncAddr is the address of a Function used as a constant value, the
// form a field stub takes once stored into a singleton's initializer.
type ConstFuncAddr struct {
	Fn *Function
}

func (c *ConstFuncAddr) Type() Type     { return &PointerType{Elem: c.Fn.Sig} }
func (c *ConstFuncAddr) String() string { return "@" + c.Fn.Name }
func (*ConstFuncAddr) isValue()         {}
func (*ConstFuncAddr) isConstant()      {}

// ConstArray is a composite constant for an ArrayType: one constant per
// element.
type ConstArray struct {
	Typ      *ArrayType
	Elements []Constant
}

func (c *ConstArray) Type() Type     { return c.Typ }
func (c *ConstArray) String() string { return "[...]" }
func (*ConstArray) isValue()         {}
func (*ConstArray) isConstant()      {}

// Param is a formal parameter of a Function.
type Param struct {
	Name   string
	Typ    Type
	Parent *Function
}

func (p *Param) Type() Type     { return p.Typ }
func (p *Param) String() string { return "%" + p.Name }
func (*Param) isValue()         {}

// Linkage distinguishes symbols visible to the rest of the program from
// ones that are not.
type Linkage int

const (
	// ExternalLinkage is the default for authored, externally-visible
	// functions and globals.
	ExternalLinkage Linkage = iota
	// InternalLinkage is module-internal: singletons always use this.
	InternalLinkage
	// PrivateLinkage functions are never externally reachable.
	PrivateLinkage
)

func (l Linkage) String() string {
	switch l {
	case InternalLinkage:
		return "internal"
	case PrivateLinkage:
		return "private"
	default:
		return "external"
	}
}

// Global is a module-level variable.
type Global struct {
	Name    string
	Typ     Type // the pointee type; Global's own Value type is *PointerType{Elem: Typ}
	Linkage Linkage
	Init    Constant // nil means uninitialized/external
}

func (g *Global) Type() Type     { return &PointerType{Elem: g.Typ} }
func (g *Global) String() string { return "@" + g.Name }
func (*Global) isValue()         {}
func (*Global) isConstant()      {} // a global's address is a link-time constant
