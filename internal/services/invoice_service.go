package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/tvkcanada/tvk-be/internal/models"
	"github.com/tvkcanada/tvk-be/internal/pdf"
	"github.com/tvkcanada/tvk-be/internal/repository"
)

const invoicePDFKeyPrefix = "tvk:invoice-pdf:"

// InvoiceServiceProvider defines the interface for invoice services.
type InvoiceServiceProvider interface {
	Issue(ctx context.Context, req IssueRequest) (*models.Invoice, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]models.Invoice, error)
	Get(ctx context.Context, id, userID string, isAdmin bool) (*models.Invoice, error)
	RenderHTML(inv *models.Invoice) (string, error)
	RenderPDF(ctx context.Context, inv *models.Invoice) ([]byte, error)
}

// IssueRequest describes a payment to issue an invoice for.
type IssueRequest struct {
	UserID       string
	MembershipID string
	Plan         string
	Description  string
	AmountCents  int64
	Currency     string
	Provider     string
	ProviderRef  string
	BillingName  string
	BillingEmail string
	PeriodStart  *time.Time
	PeriodEnd    *time.Time
}

// InvoiceService numbers, stores and renders invoices.
type InvoiceService struct {
	invoices repository.InvoiceRepository
	counters repository.CounterRepository
	renderer pdf.Renderer
	cache    *redis.Client
	cacheTTL time.Duration
	activity ActivityServiceProvider
	now      func() time.Time
}

// NewInvoiceService creates a new InvoiceService. renderer and cache may be nil.
func NewInvoiceService(invoices repository.InvoiceRepository, counters repository.CounterRepository,
	renderer pdf.Renderer, cache *redis.Client, cacheTTL time.Duration, activity ActivityServiceProvider) *InvoiceService {
	return &InvoiceService{
		invoices: invoices,
		counters: counters,
		renderer: renderer,
		cache:    cache,
		cacheTTL: cacheTTL,
		activity: activity,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Issue stores a new paid invoice with the next number of the current year. Issuing twice for
// the same provider reference returns the first invoice.
func (s *InvoiceService) Issue(ctx context.Context, req IssueRequest) (*models.Invoice, error) {
	if req.ProviderRef != "" {
		existing, err := s.invoices.GetByProviderRef(ctx, req.Provider, req.ProviderRef)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	now := s.now()
	seq, err := s.counters.Next(ctx, repository.InvoiceCounter(now.Year()))
	if err != nil {
		return nil, fmt.Errorf("failed to number invoice: %w", err)
	}
	currency := req.Currency
	if currency == "" {
		currency = "cad"
	}
	inv := &models.Invoice{
		ID:           uuid.New().String(),
		Number:       models.FormatInvoiceNumber(now.Year(), seq),
		UserID:       req.UserID,
		MembershipID: req.MembershipID,
		Plan:         req.Plan,
		Description:  req.Description,
		AmountCents:  req.AmountCents,
		Currency:     currency,
		Status:       models.InvoicePaid,
		Provider:     req.Provider,
		ProviderRef:  req.ProviderRef,
		BillingName:  req.BillingName,
		BillingEmail: req.BillingEmail,
		PeriodStart:  req.PeriodStart,
		PeriodEnd:    req.PeriodEnd,
		IssuedAt:     now,
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) && req.ProviderRef != "" {
			// A concurrent delivery of the same payment won; the number is skipped.
			return s.invoices.GetByProviderRef(ctx, req.Provider, req.ProviderRef)
		}
		return nil, err
	}

	s.activity.Record(ctx, "invoice.issued", LevelInfo,
		fmt.Sprintf("Invoice %s issued for %s.", inv.Number, models.FormatAmount(inv.AmountCents, inv.Currency)), &inv.ID)
	return inv, nil
}

// ListForUser returns the user's invoices, newest first.
func (s *InvoiceService) ListForUser(ctx context.Context, userID string, limit int) ([]models.Invoice, error) {
	return s.invoices.ListForUser(ctx, userID, limit)
}

// Get returns an invoice to its owner or an admin. Other users get ErrForbidden.
func (s *InvoiceService) Get(ctx context.Context, id, userID string, isAdmin bool) (*models.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("invoice "+id, err)
	}
	if !isAdmin && inv.UserID != userID {
		return nil, fmt.Errorf("invoice %s: %w", id, ErrForbidden)
	}
	return inv, nil
}

var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"amount": models.FormatAmount,
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("January 2, 2006")
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice {{.Number}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #222; margin: 0; }
header { border-bottom: 3px solid #b5121b; padding-bottom: 12px; margin-bottom: 24px; }
h1 { margin: 0; color: #b5121b; }
table { width: 100%; border-collapse: collapse; margin-top: 24px; }
th, td { text-align: left; padding: 8px; border-bottom: 1px solid #ddd; }
td.amount, th.amount { text-align: right; }
.total { font-weight: bold; }
footer { margin-top: 48px; font-size: 12px; color: #666; }
</style>
</head>
<body>
<header>
  <h1>TVK Canada</h1>
  <div>Non-profit fan club</div>
</header>
<p><strong>Invoice:</strong> {{.Number}}<br>
<strong>Date:</strong> {{.IssuedAt.Format "January 2, 2006"}}<br>
<strong>Status:</strong> {{.Status}}</p>
<p><strong>Billed to:</strong><br>{{.BillingName}}<br>{{.BillingEmail}}</p>
<table>
  <tr><th>Description</th><th>Period</th><th class="amount">Amount</th></tr>
  <tr>
    <td>{{.Description}}</td>
    <td>{{if .PeriodStart}}{{date .PeriodStart}} to {{date .PeriodEnd}}{{end}}</td>
    <td class="amount">{{amount .AmountCents .Currency}}</td>
  </tr>
  <tr class="total"><td colspan="2">Total paid</td><td class="amount">{{amount .AmountCents .Currency}}</td></tr>
</table>
<footer>Thank you for supporting TVK Canada.</footer>
</body>
</html>
`))

// RenderHTML renders the printable invoice page.
func (s *InvoiceService) RenderHTML(inv *models.Invoice) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, inv); err != nil {
		return "", fmt.Errorf("failed to render invoice %s: %w", inv.Number, err)
	}
	return buf.String(), nil
}

// RenderPDF renders the invoice to PDF, serving it from the Redis cache when possible.
func (s *InvoiceService) RenderPDF(ctx context.Context, inv *models.Invoice) ([]byte, error) {
	if s.renderer == nil {
		return nil, ErrPDFUnavailable
	}
	key := invoicePDFKeyPrefix + inv.ID
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Bytes()
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("Invoice PDF cache lookup failed")
		}
	}

	html, err := s.RenderHTML(inv)
	if err != nil {
		return nil, err
	}
	out, err := s.renderer.Render(ctx, html)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out, s.cacheTTL).Err(); err != nil {
			log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("Failed to cache invoice PDF")
		}
	}
	return out, nil
}
