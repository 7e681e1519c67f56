// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// This file defines printing of Functions and Modules, in the manner of
// go/ssa's print.go, repurposed to dump our own Instruction variants
// rather than go/ssa's. It exists so a -dump flag and tests can show a
// human a function's body instead of a Go-syntax struct dump, the
// equivalent of the original pass's `inst.dump()`/`t->dump()` calls.

import (
	"fmt"
	"io"
	"strings"
)

// WriteFunction writes a textual disassembly of f to w.
func WriteFunction(w io.Writer, f *Function) {
	kind := "func"
	if f.Synthetic {
		kind = "synthetic func"
	}
	fmt.Fprintf(w, "%s %s%s (%s) {\n", kind, f.Name, sigParams(f.Sig), f.Linkage)
	if f.IsDeclaration() {
		fmt.Fprintf(w, "  ; declaration only\n}\n")
		return
	}
	for _, b := range f.Blocks {
		fmt.Fprintf(w, "%s:\n", b.Name)
		for _, inst := range b.Instrs {
			fmt.Fprintf(w, "\t%s\n", inst.String())
		}
	}
	fmt.Fprintln(w, "}")
}

func sigParams(sig *FuncType) string {
	var ps []string
	for i, p := range sig.Params {
		ps = append(ps, fmt.Sprintf("%%arg%d %s", i, p))
	}
	return strings.Join(ps, ", ")
}

// WriteModule writes a textual disassembly of the whole module to w:
// records, globals, then functions, in declaration order.
func WriteModule(w io.Writer, m *Module) {
	for _, name := range m.RecordNames {
		r := m.Records[name]
		fmt.Fprintf(w, "struct.%s = type { ", r.Name)
		for i, f := range r.Fields {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			fmt.Fprintf(w, "%s", f.Type)
		}
		fmt.Fprintln(w, " }")
	}
	for _, g := range m.Globals {
		init := "external"
		if g.Init != nil {
			init = g.Init.String()
		}
		fmt.Fprintf(w, "@%s = %s global %s %s\n", g.Name, g.Linkage, g.Typ, init)
	}
	for _, f := range m.Functions {
		WriteFunction(w, f)
	}
}

// DumpString renders m as text, a dump-to-string convenience over
// WriteModule for callers that want a string rather than a writer.
func DumpString(m *Module) string {
	var sb strings.Builder
	WriteModule(&sb, m)
	return sb.String()
}
