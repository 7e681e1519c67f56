// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instrument

import "github.com/Frankenween/ssa-ptr-track/ir"

// detectAllGlobals is the global-variable reconciler: for every authored
// global of an interesting record type that is not itself a singleton, it
// appends a record-copy from the global into its singleton, so the
// analyzer sees the authored static data as flowing into the observation
// point. Named after instrument_ir.cpp's detectAllGlobals, whose doc
// comment cites the upstream rationale for copying rather than aliasing
// globals directly: https://github.com/SVF-tools/SVF/issues/1650.
//
// Extended for array-of-record globals, which instrument_ir.cpp's original
// check (isInterestingType(glob.getValueType())) would miss entirely since
// an array type is never itself a record type: each element is copied in
// turn.
func (p *Pass) detectAllGlobals() {
	for _, g := range p.Module.Globals {
		if p.isSingleton(g) {
			continue
		}
		switch t := g.Typ.(type) {
		case *ir.RecordType:
			if !p.filter.IsInterestingType(t) {
				continue
			}
			p.emitCopy(p.globalInitBB, t, p.singletons[t.Record], g)

		case *ir.ArrayType:
			elemRec, ok := ir.AsRecord(t.Elem)
			if !ok || !p.filter.IsInterestingType(&ir.RecordType{Record: elemRec}) {
				continue
			}
			singleton := p.singletons[elemRec]
			for i := 0; i < t.Count; i++ {
				elemAddr := p.globalInitBB.Emit(&ir.FieldAddr{
					Name:    p.Module.Temp("elem"),
					Base:    g,
					Indices: []int64{int64(i)},
					Typ:     &ir.PointerType{Elem: t.Elem},
				}).(ir.Value)
				p.emitCopy(p.globalInitBB, t.Elem, singleton, elemAddr)
			}
		}
	}
}

func (p *Pass) isSingleton(g *ir.Global) bool {
	for _, s := range p.singletons {
		if s == g {
			return true
		}
	}
	return false
}
