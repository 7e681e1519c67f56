// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instrument

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Frankenween/ssa-ptr-track/ir"
)

// runParallelOverFunctions fans work out across m's functions, one goroutine
// per function bounded to GOMAXPROCS at a time, in the
// `var g errgroup.Group; g.SetLimit(n)` shape
// go/packages/internal/linecount/linecount.go uses for its own per-file
// walk. skip excludes synthetic and declaration-only functions, which have
// nothing for work to scrub.
//
// Per-function work touches only that function's own blocks, so no mutex is
// needed the way linecount.go needs one for its shared maps.
func runParallelOverFunctions(m *ir.Module, skip func(*ir.Function) bool, work func(*ir.Function)) {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, fn := range m.Functions {
		if skip(fn) || fn.IsDeclaration() {
			continue
		}
		fn := fn
		g.Go(func() error {
			work(fn)
			return nil
		})
	}
	g.Wait()
}
