package service

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

const defaultCurrency = "SGD"

type InvoiceService struct {
	Deps
}

func NewInvoiceService(d Deps) *InvoiceService { return &InvoiceService{Deps: d} }

type InvoiceLineInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type InvoiceInput struct {
	TripID   uuid.UUID          `json:"tripId"`
	DueDate  *time.Time         `json:"dueDate"`
	Currency string             `json:"currency"`
	Lines    []InvoiceLineInput `json:"lines"`
}

type InvoiceDetail struct {
	*model.Invoice
	Lines []*model.InvoiceLine `json:"lines"`
}

func (in *InvoiceInput) validate() violations {
	in.Currency = normalizeKey(in.Currency)
	if in.Currency == "" {
		in.Currency = defaultCurrency
	}
	var v violations
	if in.TripID == uuid.Nil {
		v.add("Trip is required.")
	}
	if len(in.Currency) != 3 {
		v.add("Currency must be a three letter code.")
	}
	if len(in.Lines) == 0 {
		v.add("At least one invoice line is required.")
	}
	for i, l := range in.Lines {
		if strings.TrimSpace(l.Description) == "" {
			v.add("Line %d: description is required.", i+1)
		}
		if !l.Quantity.IsPositive() {
			v.add("Line %d: quantity must be greater than zero.", i+1)
		}
		if l.UnitPrice.IsNegative() {
			v.add("Line %d: unit price must not be negative.", i+1)
		}
	}
	return v
}

// LineAmount is quantity times unit price rounded half away from zero to
// two decimal places.
func LineAmount(qty, price decimal.Decimal) decimal.Decimal {
	return qty.Mul(price).Round(2)
}

// Create drafts an invoice for a trip. The total is the sum of the rounded
// line amounts.
func (s *InvoiceService) Create(ctx context.Context, in InvoiceInput) (Result[InvoiceDetail], error) {
	if v := in.validate(); !v.empty() {
		return fail[InvoiceDetail](ErrValidation, v...), nil
	}
	uow := s.Store.UnitOfWork(ctx)
	trip, err := repository.Repo[model.Trip](uow).GetByID(ctx, in.TripID)
	if err != nil {
		return Result[InvoiceDetail]{}, err
	}
	if trip == nil {
		return fail[InvoiceDetail](ErrValidation, "Trip not found."), nil
	}
	if trip.Status == model.TripCancelled {
		return fail[InvoiceDetail](ErrConflict, "Cannot invoice a cancelled trip."), nil
	}

	now := s.now()
	inv := &model.Invoice{
		InvoiceNumber: newReference("INV", now),
		TripID:        trip.ID,
		CustomerID:    trip.CustomerID,
		IssueDate:     now,
		DueDate:       in.DueDate,
		Status:        model.InvoiceDraft,
		Currency:      in.Currency,
		TotalAmount:   decimal.Zero,
	}
	inv.ID = model.NewID()

	lines := make([]*model.InvoiceLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		line := &model.InvoiceLine{
			InvoiceID:   inv.ID,
			Description: strings.TrimSpace(l.Description),
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Amount:      LineAmount(l.Quantity, l.UnitPrice),
		}
		inv.TotalAmount = inv.TotalAmount.Add(line.Amount)
		lines = append(lines, line)
	}

	repository.Repo[model.Invoice](uow).Add(inv)
	lineRepo := repository.Repo[model.InvoiceLine](uow)
	for _, l := range lines {
		lineRepo.Add(l)
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[InvoiceDetail]{}, err
	}
	return ok(InvoiceDetail{Invoice: inv, Lines: lines}), nil
}

func (s *InvoiceService) Get(ctx context.Context, id uuid.UUID) (Result[InvoiceDetail], error) {
	uow := s.Store.UnitOfWork(ctx)
	inv, err := repository.Repo[model.Invoice](uow).GetByID(ctx, id)
	if err != nil {
		return Result[InvoiceDetail]{}, err
	}
	if inv == nil {
		return notFound[InvoiceDetail]("Invoice"), nil
	}
	lines, err := invoiceLines(ctx, uow, id)
	if err != nil {
		return Result[InvoiceDetail]{}, err
	}
	return ok(InvoiceDetail{Invoice: inv, Lines: lines}), nil
}

func invoiceLines(ctx context.Context, uow *repository.UnitOfWork, invoiceID uuid.UUID) ([]*model.InvoiceLine, error) {
	repo := repository.Repo[model.InvoiceLine](uow)
	lines, err := repo.Select(ctx, repo.Query().Where(sq.Eq{"invoice_id": invoiceID}).OrderBy("created_on"))
	return nonNil(lines), err
}

func (s *InvoiceService) ListByTrip(ctx context.Context, tripID uuid.UUID) (Result[[]*model.Invoice], error) {
	repo := repository.Repo[model.Invoice](s.Store.UnitOfWork(ctx))
	items, err := repo.Select(ctx, repo.Query().Where(sq.Eq{"trip_id": tripID}).OrderBy("issue_date DESC"))
	if err != nil {
		return Result[[]*model.Invoice]{}, err
	}
	return ok(nonNil(items)), nil
}

func (s *InvoiceService) Issue(ctx context.Context, id uuid.UUID) (Result[*model.Invoice], error) {
	return s.move(ctx, id, model.InvoiceIssued)
}

func (s *InvoiceService) Pay(ctx context.Context, id uuid.UUID) (Result[*model.Invoice], error) {
	return s.move(ctx, id, model.InvoicePaid)
}

func (s *InvoiceService) Void(ctx context.Context, id uuid.UUID) (Result[*model.Invoice], error) {
	return s.move(ctx, id, model.InvoiceVoid)
}

func (s *InvoiceService) move(ctx context.Context, id uuid.UUID, to model.InvoiceStatus) (Result[*model.Invoice], error) {
	uow := s.Store.UnitOfWork(ctx)
	repo := repository.Repo[model.Invoice](uow)
	inv, err := repo.GetByID(ctx, id)
	if err != nil {
		return Result[*model.Invoice]{}, err
	}
	if inv == nil {
		return notFound[*model.Invoice]("Invoice"), nil
	}
	if r, ok := transitionFailed[*model.Invoice](inv.Status.Transition(to)); ok {
		return r, nil
	}
	inv.Status = to
	if to == model.InvoiceIssued {
		inv.IssueDate = s.now()
	}
	repo.Update(inv)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[*model.Invoice]{}, err
	}
	return ok(inv), nil
}
