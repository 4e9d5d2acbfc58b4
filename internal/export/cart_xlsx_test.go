package export

import (
	"bytes"
	"testing"

	"github.com/ikkim/storefront/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleCart() ([]model.CartLine, model.CartTotals) {
	lines := []model.CartLine{
		{ProductID: 1, Title: "Backpack", Category: "bags", Price: 10, Quantity: 2, CartItemID: "a"},
		{ProductID: 2, Title: "T-Shirt", Category: "clothing", Price: 5.5, Quantity: 1, CartItemID: "b"},
	}
	totals := model.CartTotals{
		Subtotal:   decimal.RequireFromString("25.50"),
		Tax:        decimal.RequireFromString("2.55"),
		GrandTotal: decimal.RequireFromString("28.05"),
		ItemCount:  3,
	}
	return lines, totals
}

func TestWriteCart_Layout(t *testing.T) {
	lines, totals := sampleCart()

	data, err := CartBytes(lines, totals)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(CartSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 8)

	assert.Equal(t, cartHeaders, rows[0])
	assert.Equal(t, "Backpack", rows[1][1])
	assert.Equal(t, "20.00", rows[1][5])
	assert.Equal(t, "5.50", rows[2][5])

	grand, err := f.GetCellValue(CartSheet, "F7")
	require.NoError(t, err)
	assert.Equal(t, "28.05", grand)
	label, err := f.GetCellValue(CartSheet, "E7")
	require.NoError(t, err)
	assert.Equal(t, "Grand Total", label)
}

func TestReadCartLines_RoundTrip(t *testing.T) {
	lines, totals := sampleCart()

	var buf bytes.Buffer
	require.NoError(t, WriteCart(&buf, lines, totals))

	got, err := ReadCartLines(&buf)
	require.NoError(t, err)
	assert.Equal(t, lines, got)
}

func TestReadCartLines_EmptyCart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCart(&buf, nil, model.CartTotals{}))

	got, err := ReadCartLines(&buf)
	require.NoError(t, err)
	assert.Len(t, got, 0)
}

func TestReadCartLines_SkipsBadRows(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Product ID", "Title", "Category", "Unit Price", "Quantity"},
		{"7", "Ring", "jewelery", "168.5", "2"},
		{"x", "Bad id", "", "1", "1"},
		{"8", "Bad qty", "", "1", "lots"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	got, err := ReadCartLines(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].ProductID)
	assert.Equal(t, 168.5, got[0].Price)
	assert.Empty(t, got[0].CartItemID)
}

func TestReadCartLines_NotAWorkbook(t *testing.T) {
	_, err := ReadCartLines(bytes.NewReader([]byte("not a zip")))
	assert.Error(t, err)
}
