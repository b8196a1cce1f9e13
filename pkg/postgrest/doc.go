// Package postgrest is a small client for PostgREST-style persistence
// gateways: one generic operation of (method, table, filter, body, select)
// returning the written or matching rows.
//
//	client, err := postgrest.New(cfg)
//	if err != nil {
//	    return err
//	}
//
//	var rows []tenantRow
//	err = client.Update(ctx, "tenants", postgrest.Request{
//	    Filter: map[string]string{"stripe_customer_id": postgrest.Eq("cus_123")},
//	    Body:   map[string]any{"subscription_status": "past_due"},
//	}, &rows)
//
// Every mutating request sends "Prefer: return=representation". Non-2xx
// responses are returned as *Error joined with ErrRequestFailed.
package postgrest
