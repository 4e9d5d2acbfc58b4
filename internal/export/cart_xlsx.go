package export

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ikkim/storefront/internal/app/model"
	"github.com/xuri/excelize/v2"
)

const (
	CartSheet   = "Cart"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var cartHeaders = []string{"Product ID", "Title", "Category", "Unit Price", "Quantity", "Line Total", "Cart Item ID"}

// WriteCart renders lines and totals as a single-sheet workbook. Line rows
// come first, then an empty row, then the totals block.
func WriteCart(w io.Writer, lines []model.CartLine, totals model.CartTotals) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), CartSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(CartSheet, "A1", &cartHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(CartSheet, 1, 1, style)
	}

	row := 2
	for _, line := range lines {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{
			line.ProductID,
			line.Title,
			line.Category,
			line.Price,
			line.Quantity,
			line.LineTotal().StringFixed(2),
			line.CartItemID,
		}
		if err := f.SetSheetRow(CartSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
		row++
	}

	row++
	summary := [][]interface{}{
		{"Subtotal", totals.Subtotal.StringFixed(2)},
		{"Tax", totals.Tax.StringFixed(2)},
		{"Grand Total", totals.GrandTotal.StringFixed(2)},
		{"Items", totals.ItemCount},
	}
	for _, values := range summary {
		cell, _ := excelize.CoordinatesToCellName(5, row)
		if err := f.SetSheetRow(CartSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write totals: %w", err)
		}
		row++
	}

	_ = f.SetColWidth(CartSheet, "B", "B", 40)
	_ = f.SetColWidth(CartSheet, "G", "G", 38)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// CartBytes is WriteCart into a buffer.
func CartBytes(lines []model.CartLine, totals model.CartTotals) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCart(&buf, lines, totals); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadCartLines parses the line rows of a workbook written by WriteCart.
// Reading stops at the first empty row. Rows whose product id or quantity
// is not an integer are skipped.
func ReadCartLines(r io.Reader) ([]model.CartLine, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := CartSheet
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("no sheets found in workbook")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in workbook")
	}

	lines := make([]model.CartLine, 0, len(rows)-1)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if isBlank(row) {
			break
		}
		line, ok := parseLineRow(row)
		if !ok {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func parseLineRow(row []string) (model.CartLine, bool) {
	get := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	productID, err := strconv.Atoi(get(0))
	if err != nil || productID <= 0 {
		return model.CartLine{}, false
	}
	quantity, err := strconv.Atoi(get(4))
	if err != nil {
		return model.CartLine{}, false
	}
	price, _ := strconv.ParseFloat(get(3), 64)

	return model.CartLine{
		ProductID:  productID,
		Title:      get(1),
		Category:   get(2),
		Price:      price,
		Quantity:   quantity,
		CartItemID: get(6),
	}, true
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
