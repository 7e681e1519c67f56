// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package passmgr stands in for the LLVM pass manager's
// RegisterPass/RegisterStandardPasses machinery: a named-pass registry plus
// the command-line option that selects a pass when the host is invoked
// standalone, in the style of the standard library's database/sql driver
// registry (sql.Register / sql.Open): a blank import or an init function
// registers a driver by name, and a string selects it at the call site.
package passmgr

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Frankenween/ssa-ptr-track/ir"
)

// Func runs one named pass over m and reports whether it mutated the
// module.
type Func func(m *ir.Module) (mutated bool, err error)

var (
	mu       sync.Mutex
	registry = make(map[string]Func)
	options  = make(map[string]string) // pass name -> CLI flag name
)

// Register adds a pass under name, selectable from the command line via
// option (e.g. "-instr" for the main pass, "-remove-store" for the
// store-purger). Register panics on a duplicate name, the same contract
// sql.Register makes for duplicate driver names.
func Register(name, option string, fn Func) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[name]; dup {
		panic("passmgr: Register called twice for pass " + name)
	}
	registry[name] = fn
	options[name] = option
}

// Lookup returns the pass registered under name, or false if none is.
func Lookup(name string) (Func, bool) {
	mu.Lock()
	defer mu.Unlock()
	fn, ok := registry[name]
	return fn, ok
}

// Option returns the CLI flag name a registered pass was registered under.
func Option(name string) (string, bool) {
	mu.Lock()
	defer mu.Unlock()
	opt, ok := options[name]
	return opt, ok
}

// Names returns every registered pass name, sorted, for -help output.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe formats the registered passes and their CLI options, one per
// line, for usage text.
func Describe() string {
	var out string
	for _, name := range Names() {
		opt, _ := Option(name)
		out += fmt.Sprintf("  -%s\t%s\n", opt, name)
	}
	return out
}
