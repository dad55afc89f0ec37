package notification

import (
	appbilling "github.com/lumahq/luma/internal/application/billing"
)

// emailTemplate pairs a subject line with a markdown body. Both are
// text/template sources rendered against the caller's data map, plus the
// billing_portal_url and support_email keys the dispatcher injects.
type emailTemplate struct {
	Subject string
	Body    string
}

var emailTemplates = map[string]emailTemplate{
	appbilling.TemplatePaymentFailed: {
		Subject: "Payment failed for {{.workspace_name}}",
		Body: `Hi,

We couldn't process the latest payment for **{{.workspace_name}}**.

We'll automatically retry on {{.next_retry_at}}. Your workspace stays fully active during the next {{.grace_days}} days.

[Update your payment method]({{.billing_portal_url}}) to fix this right away, or reply to {{.support_email}} if you need help.`,
	},
	appbilling.TemplateRetrySucceeded: {
		Subject: "Payment recovered — you're all set",
		Body: `Good news: retry attempt {{.attempt}} went through and your subscription is active again.

No action is needed. Questions? Write to {{.support_email}}.`,
	},
	appbilling.TemplateRetryFailedLow: {
		Subject: "We couldn't charge your card",
		Body: `Retry attempt {{.attempt}} was declined. We'll try again on {{.next_retry_at}}.

You have {{.grace_days}} days of full access left. [Update your payment method]({{.billing_portal_url}}) whenever convenient, or contact {{.support_email}}.`,
	},
	appbilling.TemplateRetryFailedMedium: {
		Subject: "Action needed: payment still failing",
		Body: `Retry attempt {{.attempt}} was declined and only {{.grace_days}} days of your grace period remain.

Please [update your payment method]({{.billing_portal_url}}) before the next retry on {{.next_retry_at}} to avoid any interruption. We're at {{.support_email}} if something looks wrong.`,
	},
	appbilling.TemplateRetryFailedHigh: {
		Subject: "Final notice: your subscription will be suspended",
		Body: `Retry attempt {{.attempt}} was declined and your grace period ends in {{.grace_days}} day(s).

If the next charge fails your workspace will be suspended. Your data is safe, but access will be revoked until payment is fixed.

[Update your payment method now]({{.billing_portal_url}}) or contact {{.support_email}} immediately.`,
	},
	appbilling.TemplateSuspended: {
		Subject: "Your subscription has been suspended",
		Body: `Payment for **{{.workspace_name}}** could not be collected and the subscription is now suspended.

All your data is retained. We've prepared {{.offers_count}} offer(s) to make coming back easier — see them in your [billing portal]({{.billing_portal_url}}).

Reply to {{.support_email}} and we'll sort it out together.`,
	},
	appbilling.TemplateCancelled: {
		Subject: "Your subscription has been cancelled",
		Body: `Your subscription for **{{.workspace_name}}** is cancelled, effective {{.effective_at}}.

Your data stays safe and you can reactivate any time from the [billing portal]({{.billing_portal_url}}).

Thanks for being with us. {{.support_email}} is always open.`,
	},
	appbilling.TemplateRetentionOfferAccepted: {
		Subject: "Your offer is active",
		Body: `The offer **{{.offer_title}}** is now applied to {{.workspace_name}}.

You can review your plan and billing details in the [billing portal]({{.billing_portal_url}}). Questions? {{.support_email}}.`,
	},
	appbilling.TemplatePaused: {
		Subject: "Your subscription is paused",
		Body: `Your subscription for **{{.workspace_name}}** is paused. Billing stops until it resumes automatically on {{.resume_at}}.

Change your mind any time in the [billing portal]({{.billing_portal_url}}).`,
	},
	appbilling.TemplateResumed: {
		Subject: "Welcome back — your subscription resumed",
		Body: `The pause on **{{.workspace_name}}** has ended and your subscription is active again.

Billing continues on your usual schedule. Manage it in the [billing portal]({{.billing_portal_url}}).`,
	},
	appbilling.TemplateReactivated: {
		Subject: "Your subscription is active again",
		Body: `Great to have you back. **{{.workspace_name}}** is reactivated with a fresh billing period from {{.period_start}} to {{.period_end}}.

All features are restored. Manage your plan in the [billing portal]({{.billing_portal_url}}).`,
	},

	"winback.suspension_discount_tease": {
		Subject: "Come back to {{.workspace_name}} — we saved your spot",
		Body: `Your workspace is suspended but everything is exactly where you left it.

You have {{.pending_offers}} personal offer(s) waiting, including a discount on your current plan. [See your offers]({{.billing_portal_url}}).`,
	},
	"winback.suspension_data_safety": {
		Subject: "Your data is safe and waiting",
		Body: `Just a note: nothing in **{{.workspace_name}}** has been deleted. Projects, settings and history are all intact.

Reactivate in one click from the [billing portal]({{.billing_portal_url}}).`,
	},
	"winback.suspension_final_offer": {
		Subject: "Last chance on your reactivation offers",
		Body: `The offers we set aside for **{{.workspace_name}}** won't be around forever.

[Review them now]({{.billing_portal_url}}) before they expire, or reply to {{.support_email}} for anything custom.`,
	},
	"winback.suspension_farewell": {
		Subject: "We'd hate to see you go",
		Body: `It's been a while since **{{.workspace_name}}** was suspended.

If pricing or a missing feature kept you away, tell us at {{.support_email}} — there's usually something we can do.`,
	},
	"winback.suspension_deletion_warning": {
		Subject: "Upcoming data retention review for {{.workspace_name}}",
		Body: `Your workspace has been suspended for an extended period and is approaching our data retention review.

Reactivating from the [billing portal]({{.billing_portal_url}}) keeps everything as is. Questions? {{.support_email}}.`,
	},

	"winback.cancellation_check_in": {
		Subject: "Checking in from the {{.workspace_name}} team",
		Body: `Your cancellation went through as requested. Your data stays available if you ever want to pick things back up.

We'd love to hear what we could have done better: {{.support_email}}.`,
	},
	"winback.cancellation_whats_new": {
		Subject: "A lot has changed since you left",
		Body: `Since you cancelled we've shipped improvements across the board.

Take a look at what's new, and reactivate **{{.workspace_name}}** any time from the [billing portal]({{.billing_portal_url}}).`,
	},
	"winback.cancellation_comeback_offer": {
		Subject: "A comeback offer for {{.workspace_name}}",
		Body: `We'd like to make returning easy: reactivate now and we'll apply a welcome-back discount to your first months.

[Reactivate your workspace]({{.billing_portal_url}}) or reply to {{.support_email}}.`,
	},
	"winback.cancellation_final_goodbye": {
		Subject: "Thanks for trying {{.workspace_name}}",
		Body: `This is our last email. Your account stays reactivatable and your data retained per our policy.

If you ever come back, everything will be waiting. All the best from the team — {{.support_email}}.`,
	},
}
