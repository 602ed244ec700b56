/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package commandexecutor

import "github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"

func init() {
	api.Register(pluginName, func(params map[string]interface{}) (api.Plugin, error) {
		return New(params)
	})
}
