// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import "fmt"

// Module is an entire compiled program: its named record types, its global
// variables, and its functions. The host pipeline builds one and hands it
// to the instrumentation pass; the pass mutates it in place and hands it
// back.
//
// Module owns every Record, Global, and Function reachable from it;
// packages downstream (typegraph, instrument, purge) hold only non-owning
// references into it.
type Module struct {
	RecordNames []string           // declaration order, for deterministic iteration
	Records     map[string]*Record
	Globals     []*Global
	Functions   []*Function

	nextTemp int
}

// NewModule returns an empty Module ready for records/globals/functions to
// be added to it.
func NewModule() *Module {
	return &Module{Records: make(map[string]*Record)}
}

// AddRecord declares a new named record type.
func (m *Module) AddRecord(r *Record) *RecordType {
	if _, exists := m.Records[r.Name]; exists {
		panic("ir: duplicate record name " + r.Name)
	}
	m.RecordNames = append(m.RecordNames, r.Name)
	m.Records[r.Name] = r
	return &RecordType{Record: r}
}

// AddGlobal appends g to the module.
func (m *Module) AddGlobal(g *Global) *Global {
	m.Globals = append(m.Globals, g)
	return g
}

// AddFunction appends f to the module.
func (m *Module) AddFunction(f *Function) *Function {
	m.Functions = append(m.Functions, f)
	return f
}

// FindGlobal returns the global named name, or nil.
func (m *Module) FindGlobal(name string) *Global {
	for _, g := range m.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// FindFunction returns the function named name, or nil.
func (m *Module) FindFunction(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Temp returns a fresh, module-unique local-value name with the given
// prefix, used by synthesized instructions that need a name.
func (m *Module) Temp(prefix string) string {
	m.nextTemp++
	return fmt.Sprintf("%s.%d", prefix, m.nextTemp)
}

// sizeCache memoizes record sizes within one SizeOf call and doubles as
// its cycle guard; SizeOf starts a fresh one on every call.
type sizeCache map[*Record]int64

// SizeOf returns the allocation size, in bytes, of t. It backs every
// record-copy (memcpy) length this pass needs, using a simple
// sum-of-field-sizes layout (no padding/alignment), which is sufficient
// for an IR that never needs ABI-accurate layout: nothing in this pass
// lowers to machine code.
func (m *Module) SizeOf(t Type) int64 {
	return m.sizeOf(t, make(sizeCache))
}

func (m *Module) sizeOf(t Type, seen sizeCache) int64 {
	switch t := t.(type) {
	case *IntType:
		return int64((t.Bits + 7) / 8)
	case *PointerType:
		return 8
	case *ArrayType:
		return int64(t.Count) * m.sizeOf(t.Elem, seen)
	case *RecordType:
		if sz, ok := seen[t.Record]; ok {
			return sz // cycle guard; by-value cycles are malformed input anyway
		}
		seen[t.Record] = 0
		var total int64
		for _, f := range t.Record.Fields {
			total += m.sizeOf(f.Type, seen)
		}
		seen[t.Record] = total
		return total
	default:
		return 0
	}
}
