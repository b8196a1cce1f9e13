// Package redis connects to Redis with go-redis and provides Ledger, a
// processed-event ledger for webhook deduplication.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	ledger := redis.NewLedger(client, cfg)
//	seen, err := ledger.Seen(ctx, "evt_123")
//
// Ledger entries are written with SET NX and expire after Config.LedgerTTL.
// Healthcheck returns a readiness probe that pings the server.
package redis
