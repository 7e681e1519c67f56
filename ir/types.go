// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ir defines a small, explicit, typed SSA-style IR: named record
// (struct) types, globals, and functions built of basic blocks of
// instructions. It plays the role that an in-memory LLVM Module plays for
// the pass this module reimplements: the host pipeline builds one, hands it
// to the instrumentation pass, and gets the same Module back, mutated.
package ir

import (
	"fmt"
	"strings"
)

// Type is the type of a Value: an integer, void, a pointer, a function
// signature, a named record (struct) type, or a fixed-length array.
type Type interface {
	String() string
	isType()
}

// IntType is an integer of the given bit width.
type IntType struct {
	Bits int
}

func (t *IntType) String() string { return fmt.Sprintf("i%d", t.Bits) }
func (*IntType) isType()          {}

// VoidType is the absence of a value, used only as a function return type.
type VoidType struct{}

func (*VoidType) String() string { return "void" }
func (*VoidType) isType()        {}

// PointerType is a pointer to Elem.
type PointerType struct {
	Elem Type
}

func (t *PointerType) String() string { return t.Elem.String() + "*" }
func (*PointerType) isType()          {}

// FuncType is a function signature: zero or more parameter types and a
// return type (VoidType if none). A pointer to a FuncType is a
// function-pointer field.
type FuncType struct {
	Params []Type
	Ret    Type
}

func (t *FuncType) String() string {
	var ps []string
	for _, p := range t.Params {
		ps = append(ps, p.String())
	}
	return fmt.Sprintf("%s(%s)", t.Ret, strings.Join(ps, ", "))
}
func (*FuncType) isType() {}

// RecordType is a reference to a named record (struct) type declared in a
// Module. Two RecordTypes naming the same Record are the same type; Record
// pointers are compared by identity.
type RecordType struct {
	Record *Record
}

func (t *RecordType) String() string { return "struct." + t.Record.Name }
func (*RecordType) isType()          {}

// ArrayType is a fixed-length array of Elem, used for authored globals like
// "Outer all_ops[3] = {...}".
type ArrayType struct {
	Elem  Type
	Count int
}

func (t *ArrayType) String() string { return fmt.Sprintf("[%d x %s]", t.Count, t.Elem) }
func (*ArrayType) isType()          {}

// Field is one element of a Record, in declaration order.
type Field struct {
	Name string
	Type Type
}

// Record is a named, ordered tuple of fields: the IR's user-defined
// composite type.
type Record struct {
	Name   string
	Fields []Field
}

// IsFunctionPointer reports whether f's static type is a pointer to a
// function signature. Pointers to function-typed targets count as
// function-pointer fields only at depth 1: a pointer to a pointer to a
// function is not one.
func (f Field) IsFunctionPointer() (*FuncType, bool) {
	if p, ok := f.Type.(*PointerType); ok {
		if ft, ok := p.Elem.(*FuncType); ok {
			return ft, true
		}
	}
	return nil, false
}

// AsRecord reports whether t is a record type (by value) and returns it.
func AsRecord(t Type) (*Record, bool) {
	if rt, ok := t.(*RecordType); ok {
		return rt.Record, true
	}
	return nil, false
}

// AsPointerToRecord reports whether t is a pointer to a record type and
// returns the pointee record.
func AsPointerToRecord(t Type) (*Record, bool) {
	if p, ok := t.(*PointerType); ok {
		return AsRecord(p.Elem)
	}
	return nil, false
}

// Zero returns the canonical zero/null constant for t, used whenever a
// field, parameter, or return value needs a default and no singleton
// applies.
func Zero(t Type) Constant {
	switch t := t.(type) {
	case *IntType:
		return &ConstInt{Typ: t, Val: 0}
	case *PointerType:
		return &ConstNull{Typ: t}
	case *RecordType:
		return &ConstZeroRecord{Typ: t}
	case *FuncType:
		return &ConstNull{Typ: &PointerType{Elem: t}}
	default:
		return &ConstNull{Typ: t}
	}
}
