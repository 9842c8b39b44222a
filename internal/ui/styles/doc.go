// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles holds the color palette and status rendering shared by the
chatexport progress view and CLI output.

All colors are Lip Gloss AdaptiveColor values, so they follow the terminal's
light or dark background. Status helpers always prefix a shape indicator:

	styles.RenderSuccess("exported 3 sessions") // [OK] exported 3 sessions
	styles.RenderError("database is locked")    // [X] database is locked
*/
package styles
