// Package voucher produces the payment workbook disbursers use to pay out an accepted request.
package voucher

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/funding-workflow/internal/domain/breakdown"
	"github.com/garyjia/funding-workflow/internal/domain/entity"
	"github.com/garyjia/funding-workflow/internal/domain/workflow"
)

// SheetName is the single worksheet of the payment workbook
const SheetName = "Payment"

// ErrNotAccepted is returned for requests that may not be paid out
var ErrNotAccepted = errors.New("payment sheet is only available for accepted requests")

// PaymentSheet fills the payment workbook
type PaymentSheet struct {
	organization string
	logger       *zap.Logger
}

// NewPaymentSheet creates a new payment sheet builder
func NewPaymentSheet(organization string, logger *zap.Logger) *PaymentSheet {
	return &PaymentSheet{
		organization: organization,
		logger:       logger,
	}
}

// Build renders the xlsx bytes for an accepted request
func (p *PaymentSheet) Build(req *entity.FundingRequest, bd breakdown.Breakdown) ([]byte, error) {
	if req.Status != workflow.StateAccepted {
		return nil, ErrNotAccepted
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	w := &sheetWriter{f: f, bold: bold, money: money, logger: p.logger}

	w.text("A1", "Funding request payment sheet", true)
	w.text("A2", "Organization", true)
	w.text("B2", p.organization, false)
	w.text("A3", "Request", true)
	w.text("B3", req.ID, false)
	w.text("A4", "Requester", true)
	w.text("B4", req.SubmittedBy, false)
	w.text("A5", "Submitted", true)
	w.text("B5", req.SubmittedAt.UTC().Format("2006-01-02"), false)
	if req.DecidedAt != nil {
		w.text("A6", "Accepted", true)
		w.text("B6", req.DecidedAt.UTC().Format("2006-01-02"), false)
	}
	w.text("A7", "Event", true)
	w.text("B7", req.FormData.String(entity.FieldEventName), false)

	row := 9
	row = w.section(row, "Pay ahead of the event", bd.PrepaidItems, bd.PrepaidTotal)
	row = w.section(row+1, "Reimburse requester", bd.ReimbursementItems, bd.ReimbursementTotal)

	w.text(cell("A", row+1), "Total cost", true)
	w.amount(cell("C", row+1), bd.TotalCost.InexactFloat64())

	if err := f.SetColWidth(SheetName, "A", "A", 28); err != nil {
		p.logger.Warn("Failed to set column width", zap.Error(err))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	p.logger.Info("Payment sheet generated",
		zap.String("request_id", req.ID),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

type sheetWriter struct {
	f      *excelize.File
	bold   int
	money  int
	logger *zap.Logger
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// section writes a titled item list with its subtotal and returns the next free row
func (w *sheetWriter) section(row int, title string, items []breakdown.Item, total decimal.Decimal) int {
	w.text(cell("A", row), title, true)
	row++
	for _, it := range items {
		w.text(cell("B", row), it.Label, false)
		w.amount(cell("C", row), it.Amount.InexactFloat64())
		row++
	}
	w.text(cell("B", row), "Subtotal", true)
	w.amount(cell("C", row), total.InexactFloat64())
	return row + 1
}

func (w *sheetWriter) text(at, value string, bold bool) {
	if err := w.f.SetCellValue(SheetName, at, value); err != nil {
		w.logger.Warn("Failed to set cell value", zap.String("cell", at), zap.Error(err))
		return
	}
	if bold {
		if err := w.f.SetCellStyle(SheetName, at, at, w.bold); err != nil {
			w.logger.Warn("Failed to set cell style", zap.String("cell", at), zap.Error(err))
		}
	}
}

func (w *sheetWriter) amount(at string, value float64) {
	if err := w.f.SetCellValue(SheetName, at, value); err != nil {
		w.logger.Warn("Failed to set cell value", zap.String("cell", at), zap.Error(err))
		return
	}
	if err := w.f.SetCellStyle(SheetName, at, at, w.money); err != nil {
		w.logger.Warn("Failed to set cell style", zap.String("cell", at), zap.Error(err))
	}
}
