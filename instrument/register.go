// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instrument

import (
	"github.com/Frankenween/ssa-ptr-track/ir"
	"github.com/Frankenween/ssa-ptr-track/passmgr"
)

// DefaultPrefix names synthetic symbols when no -prefix flag overrides it.
// A fixed, compiled-in default is acceptable here: the prefix only needs
// to avoid colliding with the host module's own symbol names.
const DefaultPrefix = "sptrk"

func init() {
	passmgr.Register("instr", "instr", func(m *ir.Module) (bool, error) {
		return New(DefaultPrefix, m).Run()
	})
}
