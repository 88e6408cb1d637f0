package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/format"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/tax"
	"github.com/noah-isme/backend-pos/internal/taxconfig"
)

// ConfigSource loads a store's tax configuration.
type ConfigSource interface {
	Get(ctx context.Context, storeID string) (taxconfig.Record, error)
}

// Service prices carts and records invoices.
type Service struct {
	configs  ConfigSource
	invoices InvoiceStore
	calc     *tax.Calculator
	metrics  *obs.DomainMetrics
	logger   zerolog.Logger
	now      func() time.Time
	newID    func() string
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Configs    ConfigSource
	Invoices   InvoiceStore
	Calculator *tax.Calculator
	Metrics    *obs.DomainMetrics
	Logger     *zerolog.Logger
	Now        func() time.Time
	NewID      func() string
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Configs == nil {
		return nil, errors.New("billing: config source is required")
	}
	svc := &Service{
		configs:  cfg.Configs,
		invoices: cfg.Invoices,
		calc:     cfg.Calculator,
		metrics:  cfg.Metrics,
		logger:   obs.NopLogger(),
		now:      cfg.Now,
		newID:    cfg.NewID,
	}
	if svc.calc == nil {
		svc.calc = tax.NewCalculator(nil)
	}
	if cfg.Logger != nil {
		svc.logger = *cfg.Logger
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newID == nil {
		svc.newID = uuid.NewString
	}
	return svc, nil
}

// Quote prices req against the store's configuration.
func (s *Service) Quote(ctx context.Context, storeID string, req QuoteRequest) (Quote, error) {
	ctx, span := otel.Tracer("billing.Service").Start(ctx, "BillingService.Quote")
	defer span.End()

	start := time.Now()
	jurisdiction := strings.ToUpper(strings.TrimSpace(req.Jurisdiction))
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("pos.store_id", storeID),
			attribute.String("tax.jurisdiction", jurisdiction),
			attribute.String("tax.quote.result", result),
		)
		s.metrics.Quote(s.metricLabel(jurisdiction), result, obs.DurationMillis(time.Since(start)))
	}()

	rec, err := s.configs.Get(ctx, storeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load tax config")
		return Quote{}, err
	}
	if jurisdiction == "" {
		jurisdiction = strings.ToUpper(strings.TrimSpace(rec.Config.Country))
	}

	subtotal, err := resolveSubtotal(req)
	if err != nil {
		result = "invalid"
		return Quote{}, err
	}
	in := tax.Input{
		Subtotal:     subtotal,
		Discount:     req.Discount,
		Config:       tax.Resolve(rec.Config, req.Override),
		Jurisdiction: jurisdiction,
	}
	if err := tax.Validate(in); err != nil {
		result = "invalid"
		return Quote{}, err
	}

	breakdown := s.calc.Calculate(in)
	policy := s.calc.Policy(jurisdiction)
	result = "ok"
	s.logger.Debug().
		Str("store_id", storeID).
		Str("jurisdiction", jurisdiction).
		Str("total", breakdown.Total.String()).
		Msg("quote computed")

	return Quote{
		StoreID:       storeID,
		Jurisdiction:  jurisdiction,
		Currency:      policy.Currency,
		Subtotal:      subtotal,
		ConfigVersion: rec.Version,
		Breakdown:     breakdown,
		Display:       DisplayFor(breakdown, policy),
	}, nil
}

// metricLabel keeps jurisdiction label values inside the policy table.
func (s *Service) metricLabel(code string) string {
	switch {
	case code == "":
		return ""
	case s.calc.Known(code):
		return code
	default:
		return "other"
	}
}

// CreateInvoice prices req and persists the result as an invoice.
func (s *Service) CreateInvoice(ctx context.Context, storeID string, req QuoteRequest) (Invoice, error) {
	if s.invoices == nil {
		return Invoice{}, errors.New("billing: invoice store not configured")
	}
	q, err := s.Quote(ctx, storeID, req)
	if err != nil {
		return Invoice{}, err
	}
	inv, err := s.invoices.Create(ctx, Invoice{
		ID:            s.newID(),
		StoreID:       storeID,
		Jurisdiction:  q.Jurisdiction,
		Currency:      q.Currency,
		Subtotal:      q.Subtotal,
		Total:         q.Breakdown.Total,
		ConfigVersion: q.ConfigVersion,
		Lines:         req.Lines,
		Breakdown:     q.Breakdown,
		Override:      req.Override,
		CreatedAt:     s.now().UTC(),
	})
	if err != nil {
		return Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	s.metrics.InvoiceCreated(s.metricLabel(inv.Jurisdiction))
	s.logger.Info().
		Str("store_id", storeID).
		Str("invoice_id", inv.ID).
		Str("number", inv.Number).
		Str("total", inv.Total.String()).
		Msg("invoice created")
	return inv, nil
}

// GetInvoice loads one invoice belonging to storeID.
func (s *Service) GetInvoice(ctx context.Context, storeID, id string) (Invoice, error) {
	if s.invoices == nil {
		return Invoice{}, errors.New("billing: invoice store not configured")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Invoice{}, common.BadRequest("invalid invoice id", err)
	}
	inv, err := s.invoices.Get(ctx, storeID, id)
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			return Invoice{}, common.NotFound("invoice not found", err)
		}
		return Invoice{}, err
	}
	return inv, nil
}

// ListInvoices returns a page of the store's invoices, newest first, and the total count.
func (s *Service) ListInvoices(ctx context.Context, storeID string, page, perPage int) ([]Invoice, int, error) {
	if s.invoices == nil {
		return nil, 0, errors.New("billing: invoice store not configured")
	}
	if page < 1 {
		page = 1
	}
	return s.invoices.List(ctx, storeID, int32(perPage), int32((page-1)*perPage))
}

func resolveSubtotal(req QuoteRequest) (decimal.Decimal, error) {
	var fields []tax.FieldError
	for i, line := range req.Lines {
		if line.UnitPrice.IsNegative() {
			fields = append(fields, tax.FieldError{
				Field:   fmt.Sprintf("lines[%d].unitPrice", i),
				Rule:    "gte",
				Message: "must be at least 0",
			})
		}
	}
	if !req.Subtotal.IsSet() && len(req.Lines) == 0 {
		fields = append(fields, tax.FieldError{Field: "subtotal", Rule: "required", Message: "is required when no lines are given"})
	}
	if len(fields) > 0 {
		return decimal.Zero, &tax.ValidationError{Fields: fields}
	}
	if v, ok := req.Subtotal.Get(); ok {
		return v, nil
	}
	return tax.Subtotal(req.Lines), nil
}

// DisplayFor formats every amount of b in the policy currency, locale and scale.
func DisplayFor(b tax.Breakdown, p tax.Policy) Display {
	scale := p.RoundingScale()
	amount := func(d decimal.Decimal) string {
		return format.Amount(d, p.Currency, p.Locale, scale)
	}
	return Display{
		BaseAmount:             amount(b.BaseAmount),
		DiscountAmount:         amount(b.DiscountAmount),
		ServiceChargeAmount:    amount(b.ServiceChargeAmount),
		TaxAmount:              amount(b.TaxAmount),
		TaxRate:                format.Percent(b.TaxRate),
		MunicipalityFeeAmount:  amount(b.MunicipalityFeeAmount),
		CustomComponentsAmount: amount(b.CustomComponentsAmount),
		Total:                  amount(b.Total),
	}
}
