package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

type Invoice struct {
	Base
	InvoiceNumber string          `json:"invoiceNumber"`
	TripID        uuid.UUID       `json:"tripId"`
	CustomerID    *uuid.UUID      `json:"customerId,omitempty"`
	IssueDate     time.Time       `json:"issueDate"`
	DueDate       *time.Time      `json:"dueDate,omitempty"`
	Status        InvoiceStatus   `json:"status"`
	Currency      string          `json:"currency"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

func (*Invoice) TableName() string { return "invoices" }

func (*Invoice) Columns() []string {
	return withBase("invoice_number", "trip_id", "customer_id", "issue_date", "due_date", "status",
		"currency", "total_amount")
}

func (i *Invoice) Values() []any {
	return append(i.baseValues(), i.InvoiceNumber, i.TripID, i.CustomerID, i.IssueDate, i.DueDate, i.Status,
		i.Currency, i.TotalAmount)
}

func (i *Invoice) ScanDest() []any {
	return append(i.baseDest(), &i.InvoiceNumber, &i.TripID, &i.CustomerID, &i.IssueDate, &i.DueDate, &i.Status,
		&i.Currency, &i.TotalAmount)
}

// InvoiceLine amounts are Quantity * UnitPrice rounded to two places.
type InvoiceLine struct {
	Base
	InvoiceID   uuid.UUID       `json:"invoiceId"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
}

func (*InvoiceLine) TableName() string { return "invoice_lines" }

func (*InvoiceLine) Columns() []string {
	return withBase("invoice_id", "description", "quantity", "unit_price", "amount")
}

func (l *InvoiceLine) Values() []any {
	return append(l.baseValues(), l.InvoiceID, l.Description, l.Quantity, l.UnitPrice, l.Amount)
}

func (l *InvoiceLine) ScanDest() []any {
	return append(l.baseDest(), &l.InvoiceID, &l.Description, &l.Quantity, &l.UnitPrice, &l.Amount)
}
