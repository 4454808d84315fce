package services

import (
	"encoding/json"
	"os"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/rephrase-labs/rephrase_api/dto"
	"github.com/rephrase-labs/rephrase_api/model"
	"github.com/rephrase-labs/rephrase_api/shared"
)

// PaymentService fronts the Stripe collaborator: checkout sessions and
// payment intents out, signed webhook events in. Webhook metadata is
// expected to carry the internal user id and the target plan.
type PaymentService struct {
	context.DefaultService

	sqlSvc   *PostgresService
	redisSvc *RedisService

	webhookSecret string
	frontendURL   string
	planPrices    map[string]string
}

const PAYMENT_SVC = "payment_svc"

func (svc PaymentService) Id() string {
	return PAYMENT_SVC
}

func (svc *PaymentService) Configure(ctx *context.Context) error {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	svc.webhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")

	svc.frontendURL = os.Getenv("FRONTEND_URL")
	if svc.frontendURL == "" {
		svc.frontendURL = "http://localhost:3000"
	}

	svc.planPrices = map[string]string{
		shared.PlanBasic: os.Getenv("STRIPE_PRICE_BASIC"),
		shared.PlanPro:   os.Getenv("STRIPE_PRICE_PRO"),
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *PaymentService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)

	if stripe.Key == "" {
		log.Warn("STRIPE_SECRET_KEY not set, payment endpoints will fail")
	}
	return nil
}

// CreateCheckoutSession starts a subscription checkout for the given plan.
func (svc *PaymentService) CreateCheckoutSession(user *model.User, plan string) (*dto.CheckoutResponse, error) {
	priceID, ok := svc.planPrices[plan]
	if !ok || priceID == "" {
		return nil, shared.ErrUnknownPlan(plan)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(user.Email),
		SuccessURL:    stripe.String(svc.frontendURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(svc.frontendURL + "/billing/cancel"),
	}
	params.AddMetadata("user_id", user.ID)
	params.AddMetadata("plan", plan)

	sess, err := session.New(params)
	if err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("Failed to create checkout session")
		return nil, shared.ErrUpstreamUnavailable("Payment provider")
	}

	return &dto.CheckoutResponse{
		CheckoutURL: sess.URL,
		SessionID:   sess.ID,
	}, nil
}

// CreatePaymentIntent creates a one-off intent and returns its client secret.
func (svc *PaymentService) CreatePaymentIntent(req dto.PaymentIntentRequest) (*dto.PaymentIntentResponse, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}
	params.AddMetadata("order_id", req.OrderID)

	intent, err := paymentintent.New(params)
	if err != nil {
		log.WithError(err).WithField("order_id", req.OrderID).Error("Failed to create payment intent")
		return nil, shared.ErrUpstreamUnavailable("Payment provider")
	}

	return &dto.PaymentIntentResponse{ClientSecret: intent.ClientSecret}, nil
}

type webhookObject struct {
	Customer string            `json:"customer"`
	Metadata map[string]string `json:"metadata"`
}

// HandleWebhook verifies the event signature, deduplicates deliveries by
// event id and applies the subscription state change. Unknown event types
// are acknowledged and ignored.
func (svc *PaymentService) HandleWebhook(c *fiber.Ctx, payload []byte, signature string) (*dto.WebhookResponse, error) {
	event, err := webhook.ConstructEvent(payload, signature, svc.webhookSecret)
	if err != nil {
		return nil, shared.ErrBadRequest("Invalid webhook signature")
	}

	// Stripe retries deliveries; claim the event id before acting on it.
	claimed, err := svc.redisSvc.SetNX(c.Context(), "stripe:event:"+event.ID, 24*time.Hour)
	if err != nil {
		log.WithError(err).Warn("Webhook dedup check failed, processing anyway")
	} else if !claimed {
		return &dto.WebhookResponse{Status: "duplicate"}, nil
	}

	var object webhookObject
	if err := json.Unmarshal(event.Data.Raw, &object); err != nil {
		return nil, shared.ErrBadRequest("Invalid webhook payload")
	}

	switch event.Type {
	case "checkout.session.completed", "payment_intent.succeeded":
		return svc.handlePaymentSucceeded(object)

	case "payment_intent.payment_failed", "invoice.payment_failed", "customer.subscription.deleted":
		return svc.handlePaymentFailed(object)

	default:
		return &dto.WebhookResponse{Status: "ignored"}, nil
	}
}

func (svc *PaymentService) handlePaymentSucceeded(object webhookObject) (*dto.WebhookResponse, error) {
	userID := object.Metadata["user_id"]
	plan := object.Metadata["plan"]

	if userID == "" || plan == "" {
		return &dto.WebhookResponse{Status: "missing_metadata"}, nil
	}

	if err := svc.sqlSvc.UpdateSubscription(userID, plan, shared.SubscriptionActive); err != nil {
		return nil, err
	}

	if object.Customer != "" {
		if err := svc.sqlSvc.SetStripeCustomerID(userID, object.Customer); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Failed to store customer id")
		}
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"plan":    plan,
	}).Info("Subscription activated")

	return &dto.WebhookResponse{Status: "upgraded"}, nil
}

func (svc *PaymentService) handlePaymentFailed(object webhookObject) (*dto.WebhookResponse, error) {
	userID := object.Metadata["user_id"]

	if userID == "" && object.Customer != "" {
		user, err := svc.sqlSvc.GetUserByStripeCustomerID(object.Customer)
		if err != nil {
			return nil, err
		}
		if user != nil {
			userID = user.ID
		}
	}

	if userID == "" {
		return &dto.WebhookResponse{Status: "user_not_found"}, nil
	}

	if err := svc.sqlSvc.UpdateSubscription(userID, shared.PlanFree, shared.SubscriptionInactive); err != nil {
		return nil, err
	}

	log.WithField("user_id", userID).Info("Subscription downgraded")

	return &dto.WebhookResponse{Status: "downgraded"}, nil
}
