// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bufio"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jeranaias/chatexport/internal/model"
	"github.com/jeranaias/chatexport/internal/util"
)

// xlsxSheet is the worksheet every export is written to.
const xlsxSheet = "Messages"

// xlsxMaxCell is the most characters a spreadsheet cell can hold.
const xlsxMaxCell = 32767

var xlsxHeader = []interface{}{"#", "Time", "Sender", "Direction", "Type", "Content"}

// =============================================================================
// XLSX ENCODER
// =============================================================================

// XLSXEncoder writes a session as a single-sheet workbook.
type XLSXEncoder struct {
	options *Options
}

// NewXLSXEncoder creates a new XLSX encoder.
func NewXLSXEncoder(opts *Options) *XLSXEncoder {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &XLSXEncoder{options: opts}
}

// Format implements Encoder.
func (e *XLSXEncoder) Format() model.Format {
	return model.FormatXLSX
}

// Encode implements Encoder. Streaming uses excelize's row streamer, which
// keeps memory flat for large sessions.
func (e *XLSXEncoder) Encode(ctx context.Context, req Request) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	f.SetDocProps(&excelize.DocProperties{
		Title:   req.Session.Name(),
		Creator: "chatexport",
		Created: e.options.now().UTC().Format("2006-01-02T15:04:05Z"),
	})

	var err error
	if req.Streaming {
		err = e.writeStreaming(ctx, f, req)
	} else {
		err = e.writeCells(ctx, f, req)
	}
	if err != nil {
		return err
	}

	return writeAtomic(req.Path, func(w *bufio.Writer) error {
		return f.Write(w)
	})
}

func (e *XLSXEncoder) writeCells(ctx context.Context, f *excelize.File, req Request) error {
	if err := f.SetSheetRow(xlsxSheet, "A1", &xlsxHeader); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}
	for i, m := range req.Messages {
		if err := checkCtx(ctx, i); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := xlsxRow(i, m)
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+1, err)
		}
		req.report(i + 1)
	}
	f.SetColWidth(xlsxSheet, "B", "B", 20)
	f.SetColWidth(xlsxSheet, "C", "C", 18)
	f.SetColWidth(xlsxSheet, "F", "F", 80)
	return nil
}

func (e *XLSXEncoder) writeStreaming(ctx context.Context, f *excelize.File, req Request) error {
	sw, err := f.NewStreamWriter(xlsxSheet)
	if err != nil {
		return fmt.Errorf("xlsx stream: %w", err)
	}
	sw.SetColWidth(2, 2, 20)
	sw.SetColWidth(3, 3, 18)
	sw.SetColWidth(6, 6, 80)

	if err := sw.SetRow("A1", xlsxHeader); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}
	for i, m := range req.Messages {
		if err := checkCtx(ctx, i); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, xlsxRow(i, m)); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+1, err)
		}
		req.report(i + 1)
	}
	return sw.Flush()
}

func xlsxRow(i int, m model.Message) []interface{} {
	direction := "received"
	if m.IsSend {
		direction = "sent"
	}
	return []interface{}{
		i + 1,
		formatTimestamp(m.Time()),
		m.DisplaySender(),
		direction,
		m.Kind.String(),
		util.TruncateRunes(m.Content, xlsxMaxCell),
	}
}
