package billing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/clinicdesk/pkg/logger"
	"github.com/dmitrymomot/clinicdesk/pkg/webhook"
)

// Config holds the webhook processing settings.
type Config struct {
	WebhookSecret     string        `env:"STRIPE_WEBHOOK_SECRET"`
	ProcessingTimeout time.Duration `env:"WEBHOOK_PROCESSING_TIMEOUT" envDefault:"30s"`
	Plans             PlanConfig
}

// Processor verifies, decodes and applies webhook deliveries. Deliveries share
// no in-process state, so one Processor serves any number of concurrent
// requests.
type Processor struct {
	verifier *webhook.Verifier
	plans    *PlanResolver
	tenants  TenantStore
	subs     SubscriptionStore
	audit    AuditLog
	ledger   EventLedger
	archive  EventArchive
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewProcessor creates a Processor. A missing webhook secret is not an error
// here: the processor is still built and rejects every delivery with
// ErrUnconfigured. An unreadable plan prices file is.
// Panics if tenants or subs is nil.
func NewProcessor(cfg Config, tenants TenantStore, subs SubscriptionStore, opts ...ProcessorOption) (*Processor, error) {
	if tenants == nil {
		panic("billing: TenantStore is required")
	}
	if subs == nil {
		panic("billing: SubscriptionStore is required")
	}

	plans, err := NewPlanResolver(cfg.Plans)
	if err != nil {
		return nil, err
	}

	p := &Processor{
		plans:   plans,
		tenants: tenants,
		subs:    subs,
		logger:  logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logger.Component("billing"))

	if cfg.WebhookSecret == "" {
		p.logger.Error("webhook secret is not configured, all deliveries will be rejected")
	} else {
		p.verifier, err = webhook.NewVerifier(cfg.WebhookSecret, webhook.WithClock(p.now))
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Configured reports whether the processor has a signing secret.
func (p *Processor) Configured() bool {
	return p.verifier != nil
}

// Process handles one delivery. payload must be the exact request body.
//
// Returned errors match one of ErrUnconfigured, webhook.ErrInvalidSignature,
// ErrMalformedPayload or ErrPersistence. Best-effort write failures are
// reported in the Outcome only.
func (p *Processor) Process(ctx context.Context, payload []byte, signatureHeader string) (*Outcome, error) {
	start := p.now()

	if p.verifier == nil {
		p.metrics.observe("", outcomeUnconfigured, p.now().Sub(start))
		return nil, ErrUnconfigured
	}

	if err := p.verifier.Verify(payload, signatureHeader); err != nil {
		p.logger.WarnContext(ctx, "webhook signature rejected", logger.Error(err))
		p.metrics.observe("", outcomeInvalidSignature, p.now().Sub(start))
		return nil, err
	}

	event, err := ParseEvent(payload)
	if err != nil {
		p.logger.WarnContext(ctx, "webhook payload rejected", logger.Error(err))
		p.metrics.observe("", outcomeMalformed, p.now().Sub(start))
		return nil, err
	}

	meta := event.Meta()
	out := &Outcome{EventID: meta.ID, EventType: string(meta.Type)}
	log := p.logger.With(logger.EventID(meta.ID), logger.EventType(out.EventType))

	if p.ledger != nil && meta.ID != "" {
		seen, err := p.ledger.Seen(ctx, meta.ID)
		if err != nil {
			p.sideWrite(ctx, log, out, SideWriteLedger, err)
		} else if seen {
			out.Result = ResultDuplicate
			log.InfoContext(ctx, "duplicate webhook event acknowledged")
			p.metrics.observe(out.EventType, string(out.Result), p.now().Sub(start))
			return out, nil
		}
	}

	if p.archive != nil && meta.ID != "" {
		p.sideWrite(ctx, log, out, SideWriteArchive, p.archive.Archive(ctx, meta.ID, payload))
	}

	if err := p.dispatch(ctx, log, event, out); err != nil {
		log.ErrorContext(ctx, "webhook processing failed", logger.Error(err))
		p.metrics.observe(out.EventType, outcomeFailed, p.now().Sub(start))
		return nil, err
	}

	if p.ledger != nil && meta.ID != "" {
		p.sideWrite(ctx, log, out, SideWriteLedger, p.ledger.Record(ctx, meta.ID, out.EventType))
	}

	elapsed := p.now().Sub(start)
	p.metrics.observe(out.EventType, string(out.Result), elapsed)
	log.InfoContext(ctx, "webhook processed",
		slog.String("result", string(out.Result)),
		slog.Int("tenants_updated", out.TenantsUpdated),
		logger.Duration(elapsed),
	)

	return out, nil
}

// dispatch routes the event to exactly one lifecycle handler.
func (p *Processor) dispatch(ctx context.Context, log *slog.Logger, event Event, out *Outcome) error {
	switch e := event.(type) {
	case *CheckoutCompleted:
		return p.handleCheckoutCompleted(ctx, log, e, out)
	case *SubscriptionUpdated:
		return p.handleSubscriptionUpdated(ctx, log, e, out)
	case *SubscriptionDeleted:
		return p.handleSubscriptionDeleted(ctx, log, e, out)
	case *PaymentFailed:
		return p.handlePaymentFailed(ctx, log, e, out)
	default:
		out.Result = ResultIgnored
		log.DebugContext(ctx, "webhook event type has no handler")
		return nil
	}
}

// sideWrite records a best-effort write result. Failures are logged and
// counted but never returned.
func (p *Processor) sideWrite(ctx context.Context, log *slog.Logger, out *Outcome, name string, err error) {
	out.record(name, err)
	if err != nil {
		log.WarnContext(ctx, "best-effort write failed", slog.String("write", name), logger.Error(err))
		p.metrics.sideWriteFailed(name)
	}
}

func persistenceError(err error) error {
	return errors.Join(ErrPersistence, err)
}
