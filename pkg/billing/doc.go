// Package billing applies payment provider webhook events to tenant billing
// state.
//
// A delivery flows through a fixed pipeline: the HTTP handler captures the raw
// body, the Processor verifies its signature (package webhook), ParseEvent
// decodes it into one of the typed variants, and exactly one lifecycle handler
// applies the state transition:
//
//	checkout.session.completed     tenant activated with the purchased plan
//	customer.subscription.updated  status mirrored, plan re-resolved from price
//	customer.subscription.deleted  tenant dropped to basic, canceled
//	invoice.payment_failed         tenant marked past_due
//
// Any other event type decodes to *Unrecognized and is acknowledged without
// changes.
//
// # Failure policy
//
// Only the primary tenant write can fail a delivery (ErrPersistence, answered
// with 500 so the sender retries). Writes to the subscription mirror, the audit
// log, the event ledger and the raw archive are best effort: their results are
// returned in Outcome.SideWrites, logged and counted, but never surfaced to the
// sender.
//
// A tenant whose subscription status is canceled or unpaid is always on the
// basic plan; TenantPatch.Normalize enforces this on every write.
//
// # Usage
//
//	processor, err := billing.NewProcessor(cfg, store, store,
//	    billing.WithAuditLog(auditLogger),
//	    billing.WithLedger(ledger),
//	    billing.WithMetrics(billing.NewMetrics(prometheus.DefaultRegisterer)),
//	    billing.WithLogger(log),
//	)
//	if err != nil {
//	    return err
//	}
//	r.Method(http.MethodPost, "/webhooks/stripe",
//	    billing.NewWebhookHandler(processor, cfg.ProcessingTimeout, log))
package billing
