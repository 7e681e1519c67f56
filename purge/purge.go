// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package purge

import "github.com/Frankenween/ssa-ptr-track/ir"

// Stats reports what one Run removed.
type Stats struct {
	StoresRemoved int
}

// Run deletes every store instruction in m whose stored value has
// pointer-to-record type for a record type named in cfg, across every
// defined function. It runs before the main instrumentation pass: removing
// these stores first reduces false-alias noise the main pass would
// otherwise have to reason about.
func Run(m *ir.Module, cfg Config) Stats {
	targets := cfg.targetSet()
	var stats Stats
	for _, fn := range m.Functions {
		if fn.IsDeclaration() {
			continue
		}
		for _, b := range fn.Blocks {
			stats.StoresRemoved += purgeBlock(b, targets)
		}
	}
	return stats
}

func purgeBlock(b *ir.BasicBlock, targets map[string]bool) int {
	kept := b.Instrs[:0]
	removed := 0
	for _, inst := range b.Instrs {
		if store, ok := inst.(*ir.Store); ok && storesPurgeTarget(store, targets) {
			removed++
			continue
		}
		kept = append(kept, inst)
	}
	b.Instrs = kept
	return removed
}

// storesPurgeTarget reports whether store's stored value is a
// pointer-to-record value for a record type named in targets.
func storesPurgeTarget(store *ir.Store, targets map[string]bool) bool {
	if store.Val == nil {
		return false
	}
	rec, ok := ir.AsPointerToRecord(store.Val.Type())
	return ok && targets[rec.Name]
}
