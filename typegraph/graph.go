// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package typegraph implements the type filter: it decides which record
// types are "interesting" (ancestors, inclusive, of any record that
// directly holds a function-pointer field) and, among those, which are
// actually mentioned anywhere in the module ("live").
//
// The upward closure is a worklist-over-a-visited-set traversal, the same
// shape golang.org/x/tools/go/callgraph/static.CallGraph uses to close a
// call graph from its roots (see DESIGN.md), because the type graph, like
// a call graph, is cyclic in general and a worklist with a visited set
// avoids the stack-depth and revisit problems plain recursion would hit.
package typegraph

import "github.com/Frankenween/ssa-ptr-track/ir"

// Filter is the result of running the type filter over a Module: the set
// of interesting record types, pruned by liveness.
type Filter struct {
	interesting map[*ir.Record]bool
}

// Build computes Filter for m: it seeds the interesting set with every
// record directly holding a function-pointer field, closes it upward along
// the "is contained by" edges, and then prunes any record the module never
// actually mentions.
func Build(m *ir.Module) *Filter {
	backlinks := make(map[*ir.Record]map[*ir.Record]bool) // child -> set of parents
	interesting := make(map[*ir.Record]bool)
	var seeds []*ir.Record

	for _, name := range m.RecordNames {
		rec := m.Records[name]
		wasInteresting := false
		for _, f := range rec.Fields {
			if _, ok := f.IsFunctionPointer(); ok {
				wasInteresting = true
				continue
			}
			if sub, ok := ir.AsRecord(f.Type); ok {
				addBacklink(backlinks, sub, rec)
			} else if sub, ok := ir.AsPointerToRecord(f.Type); ok {
				addBacklink(backlinks, sub, rec)
			} else if arr, ok := f.Type.(*ir.ArrayType); ok {
				if sub, ok := ir.AsRecord(arr.Elem); ok {
					addBacklink(backlinks, sub, rec)
				}
			}
		}
		if wasInteresting {
			interesting[rec] = true
			seeds = append(seeds, rec)
		}
	}

	// Upward closure: a worklist of newly-marked-interesting records,
	// following backlinks (container edges) until no more are added.
	worklist := append([]*ir.Record(nil), seeds...)
	for len(worklist) > 0 {
		n := len(worklist) - 1
		rec := worklist[n]
		worklist = worklist[:n]
		for parent := range backlinks[rec] {
			if !interesting[parent] {
				interesting[parent] = true
				worklist = append(worklist, parent)
			}
		}
	}

	pruneDead(m, interesting)

	return &Filter{interesting: interesting}
}

func addBacklink(backlinks map[*ir.Record]map[*ir.Record]bool, child, parent *ir.Record) {
	if backlinks[child] == nil {
		backlinks[child] = make(map[*ir.Record]bool)
	}
	backlinks[child][parent] = true
}

// IsInterestingType reports whether t is a record type in the interesting
// set.
func (f *Filter) IsInterestingType(t ir.Type) bool {
	rec, ok := ir.AsRecord(t)
	return ok && f.interesting[rec]
}

// IsPtrToInterestingType reports whether t is a pointer to an interesting
// record type.
func (f *Filter) IsPtrToInterestingType(t ir.Type) bool {
	rec, ok := ir.AsPointerToRecord(t)
	return ok && f.interesting[rec]
}

// IsInterestingTypeOrPtr reports whether t is an interesting record, or a
// pointer to one.
func (f *Filter) IsInterestingTypeOrPtr(t ir.Type) bool {
	return f.IsInterestingType(t) || f.IsPtrToInterestingType(t)
}

// Interesting returns the interesting records, in the module's declaration
// order (for deterministic iteration downstream).
func (f *Filter) Interesting(m *ir.Module) []*ir.Record {
	var out []*ir.Record
	for _, name := range m.RecordNames {
		rec := m.Records[name]
		if f.interesting[rec] {
			out = append(out, rec)
		}
	}
	return out
}

// Len reports the number of interesting types, post-liveness-pruning.
func (f *Filter) Len() int { return len(f.interesting) }
