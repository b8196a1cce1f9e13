// Package archive keeps a copy of every verified webhook payload in Amazon S3
// or an S3-compatible store, keyed by provider event id.
//
//	a, err := archive.NewS3Archive(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	err = a.Archive(ctx, "evt_123", payload) // s3://bucket/stripe/events/evt_123.json
//
// Archived payloads can be replayed against a local endpoint after re-signing
// them with webhook.SignPayload.
package archive
