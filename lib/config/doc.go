// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for bureau-perfmon.
//
// Configuration is loaded from a single file specified by either the
// BUREAU_PERFMON_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There is no file search. Fields the file does
// not set keep the values from [Default].
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// This package depends on no other Bureau packages.
package config
