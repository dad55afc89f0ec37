// Package payment adapts the Stripe API to the billing engine's gateway port.
package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"

	appbilling "github.com/lumahq/luma/internal/application/billing"
	"github.com/lumahq/luma/internal/shared/config"
	"github.com/lumahq/luma/internal/shared/logger"
)

// StripeGateway implements the billing GatewayClient against Stripe. All
// amounts cross this boundary in minor currency units, matching Stripe's
// own integer representation.
type StripeGateway struct {
	client *stripe.Client
	logger logger.Interface
}

func NewStripeGateway(cfg *config.StripeConfig, log logger.Interface) *StripeGateway {
	return &StripeGateway{
		client: stripe.NewClient(cfg.APIKey, nil),
		logger: log,
	}
}

// RetryPayment re-attempts collection on an open invoice using the customer's
// default payment method. A declined card is a normal outcome, not an error:
// it returns (false, nil) so the caller can schedule the next retry.
func (g *StripeGateway) RetryPayment(ctx context.Context, invoiceID string) (bool, error) {
	inv, err := g.client.V1Invoices.Pay(ctx, invoiceID, &stripe.InvoicePayParams{})
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.Type == stripe.ErrorTypeCard {
			g.logger.Infow("payment retry declined",
				"invoice_id", invoiceID,
				"decline_code", stripeErr.DeclineCode,
				"code", stripeErr.Code,
			)
			return false, nil
		}
		g.logger.Errorw("payment retry failed", "invoice_id", invoiceID, "error", err)
		return false, fmt.Errorf("failed to pay invoice %s: %w", invoiceID, err)
	}

	return inv.Status == stripe.InvoiceStatusPaid, nil
}

// PayInvoice collects an outstanding invoice during reactivation. Same
// semantics as RetryPayment; kept separate so call sites read as intent.
func (g *StripeGateway) PayInvoice(ctx context.Context, invoiceID string) (bool, error) {
	return g.RetryPayment(ctx, invoiceID)
}

func (g *StripeGateway) GetInvoice(ctx context.Context, invoiceID string) (*appbilling.Invoice, error) {
	inv, err := g.client.V1Invoices.Retrieve(ctx, invoiceID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve invoice %s: %w", invoiceID, err)
	}
	return toInvoice(inv), nil
}

// GetUpcomingInvoice previews the customer's next invoice.
func (g *StripeGateway) GetUpcomingInvoice(ctx context.Context, customerID string) (*appbilling.Invoice, error) {
	inv, err := g.client.V1Invoices.CreatePreview(ctx, &stripe.InvoiceCreatePreviewParams{
		Customer: stripe.String(customerID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to preview upcoming invoice for customer %s: %w", customerID, err)
	}
	return toInvoice(inv), nil
}

// CreateOrGetCustomer looks the customer up by billing email first so repeat
// calls stay idempotent, then creates one if none exists.
func (g *StripeGateway) CreateOrGetCustomer(ctx context.Context, email, name string) (string, error) {
	searchParams := &stripe.CustomerSearchParams{}
	searchParams.Query = "email:'" + email + "'"
	searchParams.Limit = stripe.Int64(1)

	for customer, err := range g.client.V1Customers.Search(ctx, searchParams) {
		if err != nil {
			return "", fmt.Errorf("failed to search customer by email: %w", err)
		}
		return customer.ID, nil
	}

	customer, err := g.client.V1Customers.Create(ctx, &stripe.CustomerCreateParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}

	g.logger.Infow("gateway customer created", "customer_id", customer.ID, "email", email)
	return customer.ID, nil
}

func (g *StripeGateway) CreateSubscription(ctx context.Context, customerID, priceID string) (string, error) {
	sub, err := g.client.V1Subscriptions.Create(ctx, &stripe.SubscriptionCreateParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionCreateItemParams{
			{Price: stripe.String(priceID)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create gateway subscription: %w", err)
	}

	g.logger.Infow("gateway subscription created", "subscription_id", sub.ID, "customer_id", customerID)
	return sub.ID, nil
}

// UpdateSubscription swaps the subscription onto a new price, replacing the
// single line item. Proration is left to the gateway's default behavior.
func (g *StripeGateway) UpdateSubscription(ctx context.Context, gatewaySubscriptionID, priceID string) error {
	sub, err := g.client.V1Subscriptions.Retrieve(ctx, gatewaySubscriptionID, nil)
	if err != nil {
		return fmt.Errorf("failed to retrieve gateway subscription %s: %w", gatewaySubscriptionID, err)
	}
	if len(sub.Items.Data) == 0 {
		return fmt.Errorf("gateway subscription %s has no items", gatewaySubscriptionID)
	}

	_, err = g.client.V1Subscriptions.Update(ctx, gatewaySubscriptionID, &stripe.SubscriptionUpdateParams{
		Items: []*stripe.SubscriptionUpdateItemParams{
			{
				ID:    stripe.String(sub.Items.Data[0].ID),
				Price: stripe.String(priceID),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update gateway subscription %s: %w", gatewaySubscriptionID, err)
	}
	return nil
}

func (g *StripeGateway) CancelSubscription(ctx context.Context, gatewaySubscriptionID string, atPeriodEnd bool) error {
	if atPeriodEnd {
		_, err := g.client.V1Subscriptions.Update(ctx, gatewaySubscriptionID, &stripe.SubscriptionUpdateParams{
			CancelAtPeriodEnd: stripe.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("failed to schedule gateway cancellation for %s: %w", gatewaySubscriptionID, err)
		}
		return nil
	}

	_, err := g.client.V1Subscriptions.Cancel(ctx, gatewaySubscriptionID, &stripe.SubscriptionCancelParams{})
	if err != nil {
		return fmt.Errorf("failed to cancel gateway subscription %s: %w", gatewaySubscriptionID, err)
	}
	return nil
}

func (g *StripeGateway) CreateRefund(ctx context.Context, paymentID string, amountCents int64) error {
	_, err := g.client.V1Refunds.Create(ctx, &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(paymentID),
		Amount:        stripe.Int64(amountCents),
	})
	if err != nil {
		return fmt.Errorf("failed to create refund for payment %s: %w", paymentID, err)
	}

	g.logger.Infow("refund created", "payment_id", paymentID, "amount_cents", amountCents)
	return nil
}

func toInvoice(inv *stripe.Invoice) *appbilling.Invoice {
	customerID := ""
	if inv.Customer != nil {
		customerID = inv.Customer.ID
	}
	return &appbilling.Invoice{
		ID:             inv.ID,
		CustomerID:     customerID,
		AmountDueCents: inv.AmountDue,
		Currency:       string(inv.Currency),
		Paid:           inv.Status == stripe.InvoiceStatusPaid,
	}
}
