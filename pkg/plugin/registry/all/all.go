/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package all registers every built-in plugin. Importing it for side
// effects is enough to populate the factory table.
package all

import (
	_ "github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/registry/commandexecutor"
	_ "github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/registry/cpufreq"
	_ "github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/registry/gpupower"
	_ "github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/registry/ipmipower"
	_ "github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/registry/loadavg"
	_ "github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/registry/raplpower"
	_ "github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/registry/testplugin"
	_ "github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/registry/usedmemory"
)
