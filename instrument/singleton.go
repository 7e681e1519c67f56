// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instrument

import "github.com/Frankenween/ssa-ptr-track/ir"

// createSingleton emits S(rec) with module-internal linkage and a
// placeholder zero initializer. The final initializer is patched in by
// fillSingletons once field stubs exist. Mirrors instrument_ir.cpp's
// createSingleton, which also installs a null initializer up front
// ("Definition is required for internal linkage") and patches it later via
// setInitializer.
func (p *Pass) createSingleton(rec *ir.Record) *ir.Global {
	if g, ok := p.singletons[rec]; ok {
		return g
	}
	recType := &ir.RecordType{Record: rec}
	g := &ir.Global{
		Name:    singletonName(p.Prefix, rec.Name),
		Typ:     recType,
		Linkage: ir.InternalLinkage,
		Init:    &ir.ConstZeroRecord{Typ: recType},
	}
	p.Module.AddGlobal(g)
	p.singletons[rec] = g
	return g
}
