// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command structprep runs the struct-instrumentation pass (and, optionally,
// the store-purger) over a JSON-encoded IR module standalone, outside of
// any host compilation pipeline, the same way cmd/deadcode drives its
// analysis directly from the command line rather than from inside a
// compiler.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/Frankenween/ssa-ptr-track/instrument"
	"github.com/Frankenween/ssa-ptr-track/internal/diag"
	"github.com/Frankenween/ssa-ptr-track/ir"
	"github.com/Frankenween/ssa-ptr-track/passmgr"
	"github.com/Frankenween/ssa-ptr-track/purge"
	"github.com/Frankenween/ssa-ptr-track/report"
)

// flags
var (
	instrFlag       = flag.Bool("instr", true, "run the struct-instrumentation pass")
	removeStoreFlag = flag.Bool("remove-store", false, "run the intrusive-list store-purger before -instr")
	prefixFlag      = flag.String("prefix", instrument.DefaultPrefix, "prefix for synthetic symbol names")
	purgeConfigFlag = flag.String("purge-config", "", "TOML file naming the record types the store-purger targets (default: compiled-in kernel intrusive-list types)")
	outFlag         = flag.String("o", "", "write the rewritten module here (default: stdout)")
	reportFlag      = flag.String("report", "", "write a run summary in this format: md, html")
	reportOutFlag   = flag.String("report-out", "", "write the report here (default: stderr)")
	dumpFlag        = flag.Bool("dump", false, "write a textual disassembly of the module before and after the passes run to stderr")
	cpuProfile      = flag.String("cpuprofile", "", "write CPU profile to this file")
	memProfile      = flag.String("memprofile", "", "write memory profile to this file")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: structprep [flags] module.json

structprep instruments record types holding function-pointer fields so that
indirect calls through them become resolvable to a finite set of candidate
callees by a downstream whole-program pointer analysis.

Flags:

`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nRegistered passes:\n%s", passmgr.Describe())
}

func main() {
	log.SetPrefix("structprep: ")
	log.SetFlags(0)

	flag.Usage = usage
	flag.Parse()
	if len(flag.Args()) != 1 {
		usage()
		os.Exit(2)
	}

	// The CLI options below are the ones passmgr.Register bound each pass
	// to; structprep itself, unlike the host pipeline, still talks to
	// instrument and purge directly so it can report their detailed Stats
	// rather than just the mutated bool a passmgr.Func returns.
	if _, ok := passmgr.Lookup("instr"); !ok {
		log.Fatal("internal error: \"instr\" pass not registered")
	}
	if _, ok := passmgr.Lookup("remove-store"); !ok {
		log.Fatal("internal error: \"remove-store\" pass not registered")
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.Fatal(err)
		}
		defer func() {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.Fatalf("writing memory profile: %v", err)
			}
			f.Close()
		}()
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	m, err := ir.Decode(data)
	if err != nil {
		log.Fatalf("decoding module: %v", err)
	}

	if *dumpFlag {
		fmt.Fprintln(os.Stderr, "--- before ---")
		ir.WriteModule(os.Stderr, m)
	}

	var stats report.Summary
	stats.Prefix = *prefixFlag
	var notices []diag.Notice

	if *removeStoreFlag {
		cfg := purge.Default()
		if *purgeConfigFlag != "" {
			cfg, err = purge.LoadFile(*purgeConfigFlag)
			if err != nil {
				log.Fatalf("loading -purge-config: %v", err)
			}
		}
		purgeStats := purge.Run(m, cfg)
		stats.StoresPurged = purgeStats.StoresRemoved
	}

	if *instrFlag {
		pass := instrument.New(*prefixFlag, m)
		if _, err := pass.Run(); err != nil {
			log.Fatalf("instrumentation pass failed: %v", err)
		}
		passStats := pass.Stats()
		stats.InterestingTypes = passStats.InterestingTypes
		stats.Singletons = passStats.Singletons
		stats.Stubs = passStats.Stubs
		stats.GEPsScrubbed = passStats.GEPsScrubbed
		stats.CastsScrubbed = passStats.CastsScrubbed
		stats.CallerCoverage = passStats.CallerCoverage
		stats.Declarations = passStats.Declarations
		notices = pass.Diag.Notices
	}
	stats.Notices = notices

	if *dumpFlag {
		fmt.Fprintln(os.Stderr, "--- after ---")
		ir.WriteModule(os.Stderr, m)
	}

	out := os.Stdout
	if *outFlag != "" {
		f, err := os.Create(*outFlag)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		out = f
	}
	encoded, err := ir.Encode(m)
	if err != nil {
		log.Fatalf("encoding result module: %v", err)
	}
	if _, err := out.Write(encoded); err != nil {
		log.Fatalf("writing result module: %v", err)
	}

	if *reportFlag != "" {
		var w io.Writer = os.Stderr
		if *reportOutFlag != "" {
			f, err := os.Create(*reportOutFlag)
			if err != nil {
				log.Fatal(err)
			}
			defer f.Close()
			w = f
		}
		switch *reportFlag {
		case "md":
			err = report.WriteMarkdown(w, stats)
		case "html":
			err = report.WriteHTML(w, stats)
		default:
			log.Fatalf("invalid -report %q (want md or html)", *reportFlag)
		}
		if err != nil {
			log.Fatalf("writing report: %v", err)
		}
	}
}
