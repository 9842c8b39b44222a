// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jeranaias/chatexport/internal/model"
	"github.com/jeranaias/chatexport/internal/util"
)

// ErrUnsupportedFormat is returned by Registry.Lookup for unregistered formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ctxCheckEvery is how many messages an encoder writes between context checks.
const ctxCheckEvery = 256

// =============================================================================
// ENCODER INTERFACE
// =============================================================================

// ProgressFunc receives the number of messages written so far and the total.
type ProgressFunc func(count, total int)

// Request is everything an encoder needs for one session.
type Request struct {
	Session model.SessionSpec

	// Messages are in chronological order, oldest first.
	Messages []model.Message

	// Path is the destination file. Nothing may exist there unless Encode
	// returns nil.
	Path string

	// Streaming is advisory: write incrementally when the format allows it.
	Streaming bool

	// OnProgress may be nil.
	OnProgress ProgressFunc
}

func (r Request) report(n int) {
	if r.OnProgress != nil {
		r.OnProgress(n, len(r.Messages))
	}
}

// Encoder turns one session's messages into one file.
type Encoder interface {
	// Format returns the format this encoder produces.
	Format() model.Format

	// Encode writes req.Messages to req.Path. A non-nil error means no file
	// was published.
	Encode(ctx context.Context, req Request) error
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures encoder output.
type Options struct {
	// Theme for HTML export ("light" or "dark").
	// Default: "dark"
	Theme string

	// Pretty indents JSON output when not streaming.
	Pretty bool

	// Now stamps exports; defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		Theme:  "dark",
		Pretty: true,
		Now:    time.Now,
	}
}

func (o *Options) now() time.Time {
	if o == nil || o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry maps each format to its encoder. The worker looks an encoder up
// once per session and otherwise knows nothing about formats.
type Registry struct {
	encoders map[model.Format]Encoder
}

// NewRegistry creates a registry holding encs.
func NewRegistry(encs ...Encoder) *Registry {
	r := &Registry{encoders: make(map[model.Format]Encoder, len(encs))}
	for _, e := range encs {
		r.Register(e)
	}
	return r
}

// DefaultRegistry registers the JSON, HTML, XLSX and SQL encoders.
func DefaultRegistry(opts *Options) *Registry {
	if opts == nil {
		opts = DefaultOptions()
	}
	return NewRegistry(
		NewJSONEncoder(opts),
		NewHTMLEncoder(opts),
		NewXLSXEncoder(opts),
		NewSQLEncoder(opts),
	)
}

// Register adds or replaces the encoder for e.Format().
func (r *Registry) Register(e Encoder) {
	r.encoders[e.Format()] = e
}

// Lookup returns the encoder for f.
func (r *Registry) Lookup(f model.Format) (Encoder, error) {
	if r != nil {
		if e, ok := r.encoders[f]; ok {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
}

// Formats returns the registered formats, sorted.
func (r *Registry) Formats() []model.Format {
	out := make([]model.Format, 0, len(r.encoders))
	for f := range r.encoders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// writeAtomic runs fn against a buffered writer over a temp file and
// publishes it at path only if fn and the flush succeed.
func writeAtomic(path string, fn func(w *bufio.Writer) error) error {
	f, err := util.CreateAtomic(path, 0644)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Abort()

	w := bufio.NewWriterSize(f, 64*1024)
	if err := fn(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return f.Commit()
}

// checkCtx returns ctx.Err() every ctxCheckEvery messages.
func checkCtx(ctx context.Context, i int) error {
	if i%ctxCheckEvery == 0 {
		return ctx.Err()
	}
	return nil
}

// formatTimestamp formats a message timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
