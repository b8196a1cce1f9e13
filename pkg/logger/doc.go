// Package logger is a thin factory around log/slog.
//
// New builds a *slog.Logger from functional options and wraps its handler in
// LogHandlerDecorator, which appends attributes pulled from the context of
// every record (request ids, for example):
//
//	log := logger.New(
//	    logger.WithEnvironment(environment.Production, "clinicdesk"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "webhook processed", logger.EventType("invoice.payment_failed"))
//
// The attribute helpers in attr.go keep key names consistent across packages.
// Helpers that receive a zero value return an empty slog.Attr, which slog
// omits, so callers can pass possibly-nil errors without a guard.
package logger
