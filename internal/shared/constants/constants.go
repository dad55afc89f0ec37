// Package constants defines shared table names and identifiers used across
// the persistence layer.
package constants

const (
	TableWorkspaces        = "workspaces"
	TablePlans             = "plans"
	TableSubscriptions     = "subscriptions"
	TablePaymentFailures   = "payment_failures"
	TableRetentionAttempts = "retention_attempts"
	TableScheduledJobs     = "scheduled_jobs"
	TableNotifications     = "notifications"
)
