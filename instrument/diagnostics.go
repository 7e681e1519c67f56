// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instrument

import (
	"github.com/Frankenween/ssa-ptr-track/internal/diag"
	"github.com/Frankenween/ssa-ptr-track/ir"
)

// failNoFunctionPointerField reports the fail-fast programming error that
// occurs when stub synthesis is asked to build a field stub for a record
// type with no function-pointer field at the requested index.
func failNoFunctionPointerField(rec *ir.Record, idx int) {
	diag.Fail("createStubFunction: record %s has no function pointer at field %d", rec.Name, idx)
}
