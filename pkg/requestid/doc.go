// Package requestid tags every inbound request with a correlation id.
//
// The middleware keeps a well-formed X-Request-ID sent by the caller and
// generates a UUID otherwise. The id lands in the request context, the
// response header, every log record (via LoggerExtractor) and every audit
// entry written while handling the request (via Lookup):
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	auditLog := audit.NewLogger(store, audit.WithRequestIDExtractor(requestid.Lookup))
//	r.Use(requestid.Middleware)
package requestid
