// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads chatexport settings from TOML.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command-line flags (applied by the cli package)
//   - Environment variables (CHATEXPORT_*)
//   - ~/.chatexport/config.toml, or the file named by --config
//   - Built-in defaults
//
// # Example
//
//	[store]
//	path = "/data/decrypted/msg.db"
//	report_every = 200
//
//	[export]
//	format = "html"
//	output_dir = "exports"
//	streaming = true
//	throttle_ms = 120
//	html_theme = "light"
//
//	[log]
//	level = "info"
//	format = "text"
package config
