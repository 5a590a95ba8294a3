package templates

import "github.com/shopspring/decimal"

// RenderContext is the data a document template is rendered with.
type RenderContext struct {
	Order    SampleOrder    `json:"order"`
	Company  SampleCompany  `json:"company"`
	Customer SampleCustomer `json:"customer"`
}

type SampleOrder struct {
	Number   string       `json:"number"`
	Date     string       `json:"date"`
	DueDate  string       `json:"dueDate"`
	Status   string       `json:"status"`
	Subtotal float64      `json:"subtotal"`
	Tax      float64      `json:"tax"`
	Shipping float64      `json:"shipping"`
	Total    float64      `json:"total"`
	Items    []SampleItem `json:"items"`
}

type SampleItem struct {
	Name      string  `json:"name"`
	SKU       string  `json:"sku"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Total     float64 `json:"total"`
}

type SampleCompany struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Country    string `json:"country"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	TaxID      string `json:"taxId"`
	BankName   string `json:"bankName"`
	BankIBAN   string `json:"bankIban"`
	BankSwift  string `json:"bankSwift"`
}

type SampleAddress struct {
	Street     string `json:"street"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

type SampleCustomer struct {
	Name    string        `json:"name"`
	Address SampleAddress `json:"address"`
	Email   string        `json:"email"`
}

var (
	sampleTaxRate  = decimal.RequireFromString("0.10")
	sampleShipping = decimal.NewFromInt(10)
)

type sampleLine struct {
	name, sku string
	qty       int64
	unit      decimal.Decimal
}

// SampleContext returns the generic context used to render every template
// in a generate pass. Totals are computed from the line items.
func SampleContext() RenderContext {
	lines := []sampleLine{
		{"Office Desk Chair", "ODC-ERG-001", 1, decimal.NewFromInt(150)},
		{"Wireless Keyboard and Mouse Set", "WKM-BT-200", 2, decimal.NewFromInt(100)},
	}

	subtotal := decimal.Zero
	items := make([]SampleItem, 0, len(lines))
	for _, l := range lines {
		total := l.unit.Mul(decimal.NewFromInt(l.qty))
		subtotal = subtotal.Add(total)
		items = append(items, SampleItem{
			Name:      l.name,
			SKU:       l.sku,
			Quantity:  int(l.qty),
			UnitPrice: l.unit.InexactFloat64(),
			Total:     total.InexactFloat64(),
		})
	}
	tax := subtotal.Mul(sampleTaxRate).Round(2)
	grand := subtotal.Add(tax).Add(sampleShipping)

	return RenderContext{
		Order: SampleOrder{
			Number:   "ORD-AUTO-2026",
			Date:     "2026-01-23",
			DueDate:  "2026-02-22",
			Status:   "shipped",
			Subtotal: subtotal.InexactFloat64(),
			Tax:      tax.InexactFloat64(),
			Shipping: sampleShipping.InexactFloat64(),
			Total:    grand.InexactFloat64(),
			Items:    items,
		},
		Company: SampleCompany{
			Name:       "ERP System Company",
			Address:    "123 Business St",
			PostalCode: "12345",
			City:       "Business City",
			Country:    "Germany",
			Email:      "info@erp-system.com",
			Phone:      "+49 123 456789",
			TaxID:      "DE-12-3456789",
			BankName:   "Deutsche Bank",
			BankIBAN:   "DE12345678901234567890",
			BankSwift:  "DEUTDEBB",
		},
		Customer: SampleCustomer{
			Name:    "Max Mustermann GmbH",
			Address: SampleAddress{Street: "Musterstraße 456", PostalCode: "54321", City: "Musterstadt", Country: "Germany"},
			Email:   "info@mustermann.de",
		},
	}
}
