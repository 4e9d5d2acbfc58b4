package model

import "github.com/shopspring/decimal"

// CartLine is one product selection in a cart. The JSON shape is the
// persisted storage format.
type CartLine struct {
	ProductID  int     `json:"id"`
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
	Image      string  `json:"image"`
	Category   string  `json:"category"`
	Quantity   int     `json:"quantity"`
	CartItemID string  `json:"cartItemId"`
}

// NewCartLine snapshots the display fields of product.
func NewCartLine(product Product, cartItemID string, quantity int) CartLine {
	return CartLine{
		ProductID:  product.ID,
		Title:      product.Title,
		Price:      product.Price,
		Image:      product.Image,
		Category:   product.Category,
		Quantity:   quantity,
		CartItemID: cartItemID,
	}
}

// LineTotal is price × quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type CartTotals struct {
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	GrandTotal decimal.Decimal
	ItemCount  int
}

// CartView is the JSON shape of a cart in API responses and feed events.
// Money is rendered with two decimals.
type CartView struct {
	Items      []CartLine `json:"items"`
	Count      int        `json:"count"`
	ItemCount  int        `json:"item_count"`
	Subtotal   string     `json:"subtotal"`
	Tax        string     `json:"tax"`
	GrandTotal string     `json:"grand_total"`
}

func NewCartView(lines []CartLine, totals CartTotals) CartView {
	if lines == nil {
		lines = []CartLine{}
	}
	return CartView{
		Items:      lines,
		Count:      len(lines),
		ItemCount:  totals.ItemCount,
		Subtotal:   totals.Subtotal.StringFixed(2),
		Tax:        totals.Tax.StringFixed(2),
		GrandTotal: totals.GrandTotal.StringFixed(2),
	}
}
