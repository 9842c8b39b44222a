// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the logrus logger shared by chatexport commands.
//
// Components never construct their own logger; they take a
// logrus.FieldLogger and attach job_id, session_id, format and path fields.
package logging
