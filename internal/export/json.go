// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/chatexport/internal/model"
)

// =============================================================================
// JSON DOCUMENT
// =============================================================================

type jsonSession struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"displayName"`
	Kind        model.SessionKind `json:"kind,omitempty"`
	Remark      string            `json:"remark,omitempty"`
	Nickname    string            `json:"nickname,omitempty"`
	MemberCount int               `json:"memberCount,omitempty"`
}

type jsonMessage struct {
	LocalID       int64  `json:"localId"`
	CreateTime    int64  `json:"createTime"`
	FormattedTime string `json:"formattedTime"`
	Sender        string `json:"sender"`
	SenderName    string `json:"senderName"`
	IsSend        bool   `json:"isSend"`
	Kind          int    `json:"kind"`
	Type          string `json:"type"`
	Content       string `json:"content"`
}

type jsonDocument struct {
	Session      jsonSession   `json:"session"`
	ExportedAt   string        `json:"exportedAt"`
	MessageCount int           `json:"messageCount"`
	Messages     []jsonMessage `json:"messages"`
}

func newJSONSession(s model.SessionSpec) jsonSession {
	return jsonSession{
		ID:          s.ID,
		DisplayName: s.Name(),
		Kind:        s.Meta.Kind,
		Remark:      s.Meta.Remark,
		Nickname:    s.Meta.Nickname,
		MemberCount: s.Meta.MemberCount,
	}
}

func newJSONMessage(m model.Message) jsonMessage {
	return jsonMessage{
		LocalID:       m.ID,
		CreateTime:    m.CreateTime,
		FormattedTime: formatTimestamp(m.Time()),
		Sender:        m.Sender,
		SenderName:    m.DisplaySender(),
		IsSend:        m.IsSend,
		Kind:          int(m.Kind),
		Type:          m.Kind.String(),
		Content:       m.Content,
	}
}

// =============================================================================
// JSON ENCODER
// =============================================================================

// JSONEncoder writes a session as one JSON document.
type JSONEncoder struct {
	options *Options
}

// NewJSONEncoder creates a new JSON encoder.
func NewJSONEncoder(opts *Options) *JSONEncoder {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONEncoder{options: opts}
}

// Format implements Encoder.
func (e *JSONEncoder) Format() model.Format {
	return model.FormatJSON
}

// Encode implements Encoder. With Streaming set, messages are encoded one at
// a time straight to disk instead of building the document in memory.
func (e *JSONEncoder) Encode(ctx context.Context, req Request) error {
	if req.Streaming {
		return writeAtomic(req.Path, func(w *bufio.Writer) error {
			return e.encodeStreaming(ctx, w, req)
		})
	}

	doc := jsonDocument{
		Session:      newJSONSession(req.Session),
		ExportedAt:   e.options.now().Format(time.RFC3339),
		MessageCount: len(req.Messages),
		Messages:     make([]jsonMessage, 0, len(req.Messages)),
	}
	for i, m := range req.Messages {
		if err := checkCtx(ctx, i); err != nil {
			return err
		}
		doc.Messages = append(doc.Messages, newJSONMessage(m))
		req.report(i + 1)
	}

	var data []byte
	var err error
	if e.options.Pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	return writeAtomic(req.Path, func(w *bufio.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func (e *JSONEncoder) encodeStreaming(ctx context.Context, w *bufio.Writer, req Request) error {
	session, err := json.Marshal(newJSONSession(req.Session))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	exportedAt, _ := json.Marshal(e.options.now().Format(time.RFC3339))

	fmt.Fprintf(w, "{\n  \"session\": %s,\n  \"exportedAt\": %s,\n  \"messageCount\": %d,\n  \"messages\": [",
		session, exportedAt, len(req.Messages))

	for i, m := range req.Messages {
		if err := checkCtx(ctx, i); err != nil {
			return err
		}
		line, err := json.Marshal(newJSONMessage(m))
		if err != nil {
			return fmt.Errorf("marshal message %d: %w", m.ID, err)
		}
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteString("\n    ")
		if _, err := w.Write(line); err != nil {
			return err
		}
		req.report(i + 1)
	}

	if len(req.Messages) > 0 {
		w.WriteString("\n  ")
	}
	_, err = w.WriteString("]\n}\n")
	return err
}
