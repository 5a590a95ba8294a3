package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the read projection of a shop order used by verification runs.
// Status values are owned by the shop service and treated as opaque strings.
type Order struct {
	ID          string          `json:"id"`
	OrderNumber string          `json:"orderNumber"`
	Status      string          `json:"status"`
	Total       decimal.Decimal `json:"total"`
	Items       []Item          `json:"items"`
	Documents   []Document      `json:"documents"`
}

// Item is a single order line.
type Item struct {
	ID          string          `json:"id"`
	ProductName string          `json:"productName"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
}

// Document is a generated artifact attached to an order. It is created
// asynchronously by the shop service after a status change.
type Document struct {
	ID           string `json:"id"`
	DocumentType string `json:"documentType"`
	State        string `json:"state"`
	PDFURL       string `json:"pdfUrl,omitempty"`
	GeneratedAt  string `json:"generatedAt,omitempty"`
	TemplateKey  string `json:"templateKey"`
}

// generatedAt layouts seen from the shop service; the zone-less form is what
// a .NET DateTime without Kind serializes to.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
}

// GeneratedTime parses GeneratedAt. ok is false when the field is empty or unparseable.
func (d Document) GeneratedTime() (t time.Time, ok bool) {
	if d.GeneratedAt == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, d.GeneratedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// HasPDF reports whether the document carries an artifact URL.
func (d Document) HasPDF() bool { return d.PDFURL != "" }

// FirstPDF returns the first document with a PDF URL.
func FirstPDF(docs []Document) (Document, bool) {
	for _, d := range docs {
		if d.HasPDF() {
			return d, true
		}
	}
	return Document{}, false
}

// ItemsTotal sums the line totals of items.
func ItemsTotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Total)
	}
	return sum
}
