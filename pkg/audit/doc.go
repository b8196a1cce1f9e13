// Package audit writes append-only audit log entries.
//
// A Logger stamps each event with an id and a creation time, fills tenant and
// request ids from the context when extractors are configured, validates it and
// passes it to a Storage:
//
//	log := audit.NewLogger(storage,
//	    audit.WithRequestIDExtractor(func(ctx context.Context) (string, bool) {
//	        id := requestid.FromContext(ctx)
//	        return id, id != ""
//	    }),
//	)
//
//	err := log.Log(ctx, "payment_failed",
//	    audit.WithTenant(tenantID.String()),
//	    audit.WithEntity("subscription", "sub_123"),
//	    audit.WithDetail("attempt_count", 2),
//	)
//
// Storage implementations live next to the backends they use (Postgres, the
// REST persistence gateway, MongoDB); MemoryStorage is provided for tests.
// Events are never mutated after Store returns.
package audit
