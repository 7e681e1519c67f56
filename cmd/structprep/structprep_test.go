// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// buildStructprep builds the structprep executable and returns its path.
func buildStructprep(t *testing.T) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "structprep")
	if runtime.GOOS == "windows" {
		bin += ".exe"
	}
	cmd := exec.Command("go", "build", "-o", bin)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("building structprep: %v\n%s", err, out)
	}
	return bin
}

// Test runs structprep over testdata/simple.json with -report md and checks
// that the instrumentation pass ran: a singleton, a field stub, and the
// synthetic caller/global initializer appear in the rewritten module on
// stdout. The report's counts are checked by TestReportToFile.
func Test(t *testing.T) {
	exe := buildStructprep(t)

	var stdout bytes.Buffer
	cmd := exec.Command(exe, "-report", "md", "-report-out", filepath.Join(t.TempDir(), "report.md"), "testdata/simple.json")
	cmd.Stdout = &stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("structprep failed: %v (stderr=%s)", err, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{
		`"sptrk_Thing_singleton"`,
		`"sptrk_function_caller"`,
		`"sptrk_global_initializer"`,
		`"sptrk_Thing_0_stub"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rewritten module missing %s\noutput: %s", want, out)
		}
	}
}

// TestDump exercises -dump by checking that the textual disassembly of
// both the input and rewritten module appears on stderr.
func TestDump(t *testing.T) {
	exe := buildStructprep(t)

	cmd := exec.Command(exe, "-dump", "-o", filepath.Join(t.TempDir(), "out.json"), "testdata/simple.json")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("structprep failed: %v (stderr=%s)", err, stderr.String())
	}

	out := stderr.String()
	if !strings.Contains(out, "--- before ---") || !strings.Contains(out, "--- after ---") {
		t.Fatalf("missing before/after dump markers, got:\n%s", out)
	}
	if !strings.Contains(out, "struct.Thing = type {") {
		t.Errorf("dump missing Thing record declaration, got:\n%s", out)
	}
	if !strings.Contains(out, "sptrk_Thing_singleton") {
		t.Errorf("dump missing singleton global, got:\n%s", out)
	}
}

// TestReportToFile exercises -report-out by writing the report to a
// file instead of stderr and checking its Markdown table.
func TestReportToFile(t *testing.T) {
	exe := buildStructprep(t)
	reportPath := filepath.Join(t.TempDir(), "report.md")

	cmd := exec.Command(exe, "-prefix", "pfx", "-report", "md", "-report-out", reportPath, "-o", filepath.Join(t.TempDir(), "out.json"), "testdata/simple.json")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("structprep failed: %v (stderr=%s)", err, stderr.String())
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	report := string(data)
	if !strings.Contains(report, "| Singletons | 1 |") {
		t.Errorf("report missing singleton count, got:\n%s", report)
	}
	if !strings.Contains(report, "| Field stubs | 1 |") {
		t.Errorf("report missing stub count, got:\n%s", report)
	}
}
