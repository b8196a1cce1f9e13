package store

var (
	TenantAssignments       = tenantAssignments
	SubscriptionAssignments = subscriptionAssignments
)
