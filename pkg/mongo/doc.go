// Package mongo connects to MongoDB with the v2 driver and provides
// AuditStorage, an audit.Storage that appends events to a collection.
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Disconnect(ctx)
//
//	auditLog := audit.NewLogger(mongo.NewAuditStorage(client, cfg))
//
// New retries the initial connection RetryAttempts times so the service
// tolerates a database that is still starting. Healthcheck wraps Ping for
// readiness probes.
package mongo
