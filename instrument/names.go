// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instrument

import "fmt"

// Symbol naming for every synthetic symbol this pass produces.

func singletonName(prefix, recordName string) string {
	return fmt.Sprintf("%s_%s_singleton", prefix, recordName)
}

func stubName(prefix, recordName string, fieldIdx int) string {
	return fmt.Sprintf("%s_%s_%d_stub", prefix, recordName, fieldIdx)
}

func globalInitializerName(prefix string) string {
	return prefix + "_global_initializer"
}

func callerName(prefix string) string {
	return prefix + "_function_caller"
}
