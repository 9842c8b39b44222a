// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bufio"
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/chatexport/internal/model"
)

// =============================================================================
// HTML ENCODER
// =============================================================================

// HTMLEncoder writes a session as a standalone page with embedded CSS.
// Output is always written incrementally; the page needs no second pass.
type HTMLEncoder struct {
	options *Options
}

// NewHTMLEncoder creates a new HTML encoder.
func NewHTMLEncoder(opts *Options) *HTMLEncoder {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLEncoder{options: opts}
}

// Format implements Encoder.
func (e *HTMLEncoder) Format() model.Format {
	return model.FormatHTML
}

// Encode implements Encoder.
func (e *HTMLEncoder) Encode(ctx context.Context, req Request) error {
	return writeAtomic(req.Path, func(w *bufio.Writer) error {
		return e.render(ctx, w, req)
	})
}

func (e *HTMLEncoder) render(ctx context.Context, w *bufio.Writer, req Request) error {
	title := html.EscapeString(req.Session.Name())
	theme := strings.ToLower(e.options.Theme)
	if theme != "light" {
		theme = "dark"
	}

	w.WriteString("<!DOCTYPE html>\n")
	w.WriteString("<html lang=\"en\">\n")
	w.WriteString("<head>\n")
	w.WriteString("    <meta charset=\"UTF-8\">\n")
	w.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(w, "    <title>%s</title>\n", title)
	w.WriteString("    <meta name=\"generator\" content=\"chatexport\">\n")
	w.WriteString(htmlCSS)
	w.WriteString("</head>\n")
	fmt.Fprintf(w, "<body class=\"%s-theme\">\n", theme)
	w.WriteString("    <div class=\"container\">\n")

	e.renderHeader(w, req)

	w.WriteString("        <main class=\"conversation\">\n")
	lastDay := ""
	for i, m := range req.Messages {
		if err := checkCtx(ctx, i); err != nil {
			return err
		}
		t := m.Time()
		if day := t.Format("2006-01-02"); day != lastDay {
			fmt.Fprintf(w, "            <div class=\"day-separator\">%s</div>\n", day)
			lastDay = day
		}
		e.renderMessage(w, m, t)
		req.report(i + 1)
	}
	w.WriteString("        </main>\n")

	w.WriteString("        <footer class=\"footer\">\n")
	fmt.Fprintf(w, "            <p>Exported by <strong>chatexport</strong> on %s</p>\n",
		e.options.now().Format("January 2, 2006 at 3:04 PM"))
	w.WriteString("        </footer>\n")
	w.WriteString("    </div>\n")
	w.WriteString("</body>\n")
	_, err := w.WriteString("</html>\n")
	return err
}

// renderHeader renders the header section with the session metadata snapshot.
func (e *HTMLEncoder) renderHeader(w *bufio.Writer, req Request) {
	s := req.Session
	w.WriteString("        <header class=\"header\">\n")
	fmt.Fprintf(w, "            <h1>%s</h1>\n", html.EscapeString(s.Name()))
	w.WriteString("            <div class=\"metadata\">\n")
	if s.Meta.Kind != "" {
		fmt.Fprintf(w, "                <span class=\"meta-item\"><strong>Type:</strong> %s</span>\n", html.EscapeString(string(s.Meta.Kind)))
	}
	if s.Meta.MemberCount > 0 {
		fmt.Fprintf(w, "                <span class=\"meta-item\"><strong>Members:</strong> %d</span>\n", s.Meta.MemberCount)
	}
	fmt.Fprintf(w, "                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(req.Messages))
	if n := len(req.Messages); n > 0 {
		fmt.Fprintf(w, "                <span class=\"meta-item\"><strong>Range:</strong> %s &ndash; %s</span>\n",
			formatTimestamp(req.Messages[0].Time()), formatTimestamp(req.Messages[n-1].Time()))
	}
	w.WriteString("            </div>\n")
	w.WriteString("        </header>\n")
}

// renderMessage renders a single message.
func (e *HTMLEncoder) renderMessage(w *bufio.Writer, m model.Message, t time.Time) {
	class := "received"
	if m.IsSend {
		class = "sent"
	}
	if m.Kind == model.KindSystem || m.Kind == model.KindRecall {
		class = "system"
	}

	fmt.Fprintf(w, "            <div class=\"message %s-message\">\n", class)
	w.WriteString("                <div class=\"message-header\">\n")
	fmt.Fprintf(w, "                    <span class=\"sender\">%s</span>\n", html.EscapeString(m.DisplaySender()))
	fmt.Fprintf(w, "                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(t))
	w.WriteString("                </div>\n")
	w.WriteString("                <div class=\"message-content\">")
	w.WriteString(formatContent(m))
	w.WriteString("</div>\n")
	w.WriteString("            </div>\n")
}

// formatContent escapes message text; non-text kinds get a placeholder label.
func formatContent(m model.Message) string {
	if m.Kind != model.KindText && m.Kind != model.KindSystem && m.Content == "" {
		return fmt.Sprintf("<span class=\"placeholder\">[%s]</span>", m.Kind)
	}
	escaped := html.EscapeString(m.Content)
	return strings.ReplaceAll(escaped, "\n", "<br>\n")
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const htmlCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", monospace;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #414868;
            --text-primary: #c0caf5;
            --text-secondary: #a9b1d6;
            --text-muted: #565f89;
            --border-color: #414868;
            --sent-bg: #2d3f76;
            --received-bg: #1f2335;
            --accent: #7aa2f7;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-tertiary: #e1e4e8;
            --text-primary: #24292e;
            --text-secondary: #586069;
            --text-muted: #6a737d;
            --border-color: #e1e4e8;
            --sent-bg: #d8f3c9;
            --received-bg: #ffffff;
            --accent: #0366d6;
        }

        body {
            font-family: var(--font-sans);
            font-size: 15px;
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 900px;
            margin: 0 auto;
            background: var(--bg-secondary);
            border-radius: 12px;
            overflow: hidden;
        }

        .header {
            padding: 28px 32px;
            background: var(--bg-tertiary);
            border-bottom: 2px solid var(--border-color);
        }

        .header h1 { font-size: 26px; margin-bottom: 12px; }

        .metadata {
            display: flex;
            flex-wrap: wrap;
            gap: 16px;
            font-size: 14px;
            color: var(--text-secondary);
        }

        .conversation { padding: 24px 32px; }

        .day-separator {
            text-align: center;
            margin: 20px 0 12px;
            font-size: 13px;
            color: var(--text-muted);
        }

        .message {
            max-width: 75%;
            margin-bottom: 12px;
            padding: 10px 14px;
            border-radius: 8px;
            border: 1px solid var(--border-color);
        }

        .sent-message { margin-left: auto; background: var(--sent-bg); }
        .received-message { margin-right: auto; background: var(--received-bg); }
        .system-message {
            max-width: 100%;
            text-align: center;
            font-size: 13px;
            color: var(--text-muted);
            border: none;
        }

        .message-header {
            display: flex;
            justify-content: space-between;
            gap: 12px;
            margin-bottom: 4px;
            font-size: 13px;
        }

        .sender { font-weight: 600; color: var(--accent); }
        .timestamp { color: var(--text-muted); font-family: var(--font-mono); }
        .message-content { word-wrap: break-word; }
        .placeholder { color: var(--text-muted); font-style: italic; }

        .footer {
            padding: 20px 32px;
            text-align: center;
            font-size: 14px;
            color: var(--text-muted);
            border-top: 1px solid var(--border-color);
        }

        @media print {
            body { padding: 0; }
            .container { border-radius: 0; }
            .message { page-break-inside: avoid; }
        }
    </style>
`
