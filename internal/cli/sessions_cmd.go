// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatexport/internal/model"
	"github.com/jeranaias/chatexport/internal/storage"
)

// newSessionsCmd creates the sessions command
func newSessionsCmd(a *app) *cobra.Command {
	var (
		db      string
		jsonOut bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"ls"},
		Short:   "List the sessions in a message database",
		Long: `List every session with its message count, most recently active first.
The ids shown are what export --session expects.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Store.Path
			if cmd.Flags().Changed("db") {
				path = db
			}
			if path == "" {
				return &ValidationError{Field: "--db", Reason: "message database path is required"}
			}

			store, err := storage.OpenSQLite(cmd.Context(), path, a.cfg.Store.ReportEvery, a.log)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(sessions) > limit {
				sessions = sessions[:limit]
			}

			if jsonOut {
				return NewJSONResponse("sessions", sessionData(sessions)).Print(cmd.OutOrStdout())
			}
			renderSessions(cmd.OutOrStdout(), sessions)
			return nil
		},
	}

	cmd.Flags().StringVar(&db, "db", "", "message database (overrides store.path)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n sessions")
	return cmd
}

func sessionData(sessions []model.SessionSpec) []SessionData {
	out := make([]SessionData, 0, len(sessions))
	for _, s := range sessions {
		d := SessionData{
			ID:           s.ID,
			Name:         s.Name(),
			Kind:         string(s.Meta.Kind),
			MessageCount: s.Meta.MessageCount,
		}
		if !s.Meta.LastActive.IsZero() {
			d.LastActive = s.Meta.LastActive.Format("2006-01-02 15:04")
		}
		out = append(out, d)
	}
	return out
}

// =============================================================================
// TABLE RENDERING
// =============================================================================

const (
	maxIDWidth   = 28
	maxNameWidth = 24
)

// renderSessions writes an aligned table. Column widths are measured in
// terminal cells so CJK names line up.
func renderSessions(w io.Writer, sessions []model.SessionSpec) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No sessions found."))
		return
	}

	rows := sessionData(sessions)
	idW, nameW := len("ID"), len("NAME")
	for _, r := range rows {
		idW = max(idW, min(runewidth.StringWidth(r.ID), maxIDWidth))
		nameW = max(nameW, min(runewidth.StringWidth(r.Name), maxNameWidth))
	}

	header := cell("ID", idW) + "  " + cell("NAME", nameW) + "  " + cell("KIND", 7) + "  " +
		runewidth.FillLeft("MESSAGES", 8) + "  LAST ACTIVE"
	fmt.Fprintln(w, TitleStyle.Render(header))
	fmt.Fprintln(w, RenderSeparator(runewidth.StringWidth(header)))

	for _, r := range rows {
		var sb strings.Builder
		sb.WriteString(cell(r.ID, idW))
		sb.WriteString("  ")
		sb.WriteString(cell(r.Name, nameW))
		sb.WriteString("  ")
		sb.WriteString(cell(r.Kind, 7))
		sb.WriteString("  ")
		sb.WriteString(runewidth.FillLeft(strconv.Itoa(r.MessageCount), 8))
		sb.WriteString("  ")
		sb.WriteString(DimStyle.Render(r.LastActive))
		fmt.Fprintln(w, sb.String())
	}
	fmt.Fprintln(w, DimStyle.Render(fmt.Sprintf("%d session(s)", len(rows))))
}

// cell truncates s to width cells and pads it on the right.
func cell(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "..."), width)
}
