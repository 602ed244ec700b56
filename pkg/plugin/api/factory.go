/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package api

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
)

type (
	// Factory builds one plugin instance from its configuration mapping.
	// Unknown or missing parameters are configuration errors and must be
	// reported at construction time, not at run time.
	Factory func(params map[string]interface{}) (Plugin, error)
)

// factories is keyed by the lowercase plugin name. Plugin names in the
// configuration are matched case-insensitively.
var factories = make(map[string]Factory)

func Register(name string, factory Factory) {
	key := strings.ToLower(name)
	if _, exist := factories[key]; exist {
		logger.Warnf("[plugin] register factory %s already exist, cover it", name)
	}
	factories[key] = factory
}

func RegisteredNames() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build instantiates the named plugin. A panic inside the factory is
// converted into an error so that one broken plugin cannot take down suite
// startup on its own.
func Build(name string, params map[string]interface{}) (_ Plugin, retErr error) {
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			logger.Errorf("[plugin] factory %s panicked: %v\n%s", name, r, buf)

			retErr = fmt.Errorf("build plugin %s: %v", name, r)
		}
	}()

	f, ok := factories[strings.ToLower(name)]
	if !ok {
		return nil, &ConfigError{Plugin: name, Reason: "unknown plugin, registered: " + strings.Join(RegisteredNames(), ", ")}
	}
	return f(params)
}
