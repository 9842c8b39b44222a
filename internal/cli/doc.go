// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the chatexport command line on cobra.
//
// # Commands
//
//   - export: run one export job and report its progress
//   - sessions: list the sessions in a message database
//   - config init|show|path: manage ~/.chatexport/config.toml
//   - version: print build information
//
// The export command is a host for one worker job. It picks a driver for the
// event stream: a bubbletea progress view when stderr is a terminal, one
// JSON line per event with --json, and logrus lines otherwise.
package cli
