// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package purge

import (
	"github.com/Frankenween/ssa-ptr-track/ir"
	"github.com/Frankenween/ssa-ptr-track/passmgr"
)

func init() {
	passmgr.Register("remove-store", "remove-store", func(m *ir.Module) (bool, error) {
		stats := Run(m, Default())
		return stats.StoresRemoved > 0, nil
	})
}
