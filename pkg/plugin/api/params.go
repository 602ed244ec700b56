/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package api

import (
	"fmt"
	"strings"
)

type (
	// ConfigError is raised at plugin construction, before any phase
	// starts. It is the only plugin error class that may surface to the
	// operator as a startup failure.
	ConfigError struct {
		Plugin string
		Reason string
	}

	// Schema is the explicit per-plugin parameter schema: the set of
	// parameters a plugin accepts, split into required and optional.
	Schema struct {
		Required []string
		Optional []string
	}
)

func (e *ConfigError) Error() string {
	return fmt.Sprintf("plugin %s: %s", e.Plugin, e.Reason)
}

func IsConfigError(err error) bool {
	_, ok := err.(*ConfigError)
	return ok
}

// Check validates the supplied configuration mapping against the schema.
// Superfluous parameters and missing required parameters are both
// configuration errors.
func (s Schema) Check(plugin string, params map[string]interface{}) error {
	for key := range params {
		if !contains(s.Required, key) && !contains(s.Optional, key) {
			return &ConfigError{
				Plugin: plugin,
				Reason: fmt.Sprintf("unexpected parameter %q, accepted: %s", key, s.describe()),
			}
		}
	}
	for _, key := range s.Required {
		if _, ok := params[key]; !ok {
			return &ConfigError{
				Plugin: plugin,
				Reason: fmt.Sprintf("missing required parameter %q", key),
			}
		}
	}
	return nil
}

func (s Schema) describe() string {
	all := make([]string, 0, len(s.Required)+len(s.Optional))
	all = append(all, s.Required...)
	for _, opt := range s.Optional {
		all = append(all, opt+"?")
	}
	return strings.Join(all, ", ")
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
