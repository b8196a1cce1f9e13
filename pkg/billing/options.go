package billing

import (
	"log/slog"
	"time"
)

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithAuditLog sets the audit sink. Without it no audit entries are written.
func WithAuditLog(log AuditLog) ProcessorOption {
	return func(p *Processor) {
		if log != nil {
			p.audit = log
		}
	}
}

// WithLedger enables duplicate detection by event id.
func WithLedger(ledger EventLedger) ProcessorOption {
	return func(p *Processor) {
		if ledger != nil {
			p.ledger = ledger
		}
	}
}

// WithArchive stores every verified raw payload.
func WithArchive(archive EventArchive) ProcessorOption {
	return func(p *Processor) {
		if archive != nil {
			p.archive = archive
		}
	}
}

// WithMetrics records delivery outcomes and side-write failures in m.
func WithMetrics(m *Metrics) ProcessorOption {
	return func(p *Processor) {
		p.metrics = m
	}
}

// WithLogger sets the processor logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock overrides the time source for signature freshness checks and
// fallback timestamps.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}
