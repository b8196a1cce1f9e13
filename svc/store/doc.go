// Package store holds the persistence backends behind the billing core.
//
// PostgresStore talks to PostgreSQL directly through pgx; RESTStore reaches the
// same schema through a PostgREST gateway. Both implement
// billing.TenantStore, billing.SubscriptionStore, billing.EventLedger and
// audit.Storage, and both normalize tenant patches before writing so that a
// canceled or unpaid tenant can never keep a paid plan.
package store
