// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export serializes one chat session into one output file.
//
// Every format is an Encoder registered in a Registry. The worker looks the
// job's format up once per session, so adding a format never touches the
// orchestration code.
//
// # Key Types
//
//   - Encoder: Writes a Request's messages to Request.Path
//   - Registry: Format to Encoder lookup
//   - Options: Theme, indentation and clock shared by all encoders
//
// # Supported Formats
//
//   - JSON: Session header plus full message list
//   - HTML: Standalone page with embedded light or dark theme
//   - XLSX: Single "Messages" sheet via excelize
//   - SQL: SQLite-compatible script in one transaction
//
// # Output Safety
//
// Encoders write into a temporary file next to the destination and rename it
// into place only after the last byte is flushed. A failed or canceled
// encode leaves nothing at Request.Path.
//
// # Usage
//
//	reg := export.DefaultRegistry(export.DefaultOptions())
//	enc, err := reg.Lookup(model.FormatHTML)
//	if err != nil {
//	    return err
//	}
//	err = enc.Encode(ctx, export.Request{
//	    Session:  spec,
//	    Messages: model.Chronological(msgs),
//	    Path:     export.OutputPath(dir, spec.Name(), time.Now().UnixMilli(), model.FormatHTML),
//	})
package export
