// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instrument

import "github.com/Frankenween/ssa-ptr-track/ir"

// plumbNestedAlias wires up the bidirectional copy between an outer
// singleton's occurrence of a nested-by-value interesting field and that
// field type's own standalone singleton: the global-initializer function
// ends up containing bidirectional copy operations between S(R)'s
// occurrence of that subfield and S(R′).
//
// This is the pass's alias-plumbing component: it creates a
// unification-style aliasing so that any write reaching either the
// container-embedded subfield or the standalone nested singleton is
// observed in both. The exchange runs once, in the global initializer, at
// startup: sufficient because downstream analyses may be flow-insensitive.
func (p *Pass) plumbNestedAlias(outer *ir.Record, fieldIdx int, field ir.Field, outerSingleton *ir.Global) {
	subRec, _ := ir.AsRecord(field.Type)
	subSingleton := p.singletons[subRec]
	if subSingleton == nil {
		// Liveness pruned the nested type's own singleton even though the
		// outer record is interesting through some other path; nothing to
		// alias against.
		return
	}

	fieldPtrType := &ir.PointerType{Elem: field.Type}
	subFieldAddr := p.globalInitBB.Emit(&ir.FieldAddr{
		Name:    p.Module.Temp("alias"),
		Base:    outerSingleton,
		Indices: []int64{int64(fieldIdx)},
		Typ:     fieldPtrType,
	}).(ir.Value)

	// outer subfield -> nested singleton
	p.emitCopy(p.globalInitBB, field.Type, subSingleton, subFieldAddr)
	// nested singleton -> outer subfield
	p.emitCopy(p.globalInitBB, field.Type, subFieldAddr, subSingleton)
}
